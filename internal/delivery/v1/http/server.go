package http

import (
	"context"
	"net"
	"net/http"

	"github.com/DRSN-tech/furniture-recs/internal/cfg"
)

const maxHeaderBytes = 1 << 16

type Server struct {
	httpServer *http.Server
}

// NewServer настраивает HTTP-сервер API. Заголовки читаются с тем же таймаутом, что и тело.
func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Stop дожидается завершения текущих запросов, включая генерацию описаний, пока не истечёт ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
