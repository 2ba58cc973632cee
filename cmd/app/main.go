package main

import (
	"os"

	"github.com/DRSN-tech/furniture-recs/internal/app"
	config "github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

//	@title			Furniture Recommendations API
//	@version		1.0
//	@description	Семантический поиск мебели с AI-описаниями
//	@BasePath		/
func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
