package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/app"
	config "github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

func main() {
	var opts app.IngestOptions
	flag.StringVar(&opts.Source, "catalog", "", "catalog file: local .csv/.xlsx or s3://bucket/key (default CATALOG_PATH)")
	flag.IntVar(&opts.Skip, "skip", 0, "skip the first N catalog rows that are already in the index")
	flag.BoolVar(&opts.Resume, "resume", false, "continue after the last failed run recorded in the journal")
	flag.Parse()

	log := logger.NewSlogLogger()

	cfg, err := config.LoadIngest(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingester, err := app.NewIngester(ctx, cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize ingestion")
		os.Exit(1)
	}

	report, runErr := ingester.Run(ctx, opts)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ingester.Close(closeCtx); err != nil {
		log.Warnf("%v", err)
	}

	if runErr != nil {
		if report != nil {
			log.Warnf("run %s: %d of %d products are in the index", report.RunID, report.Skipped+report.Committed, report.Total)
		}
		os.Exit(1)
	}
}
