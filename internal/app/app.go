package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/furniture-recs/internal/cfg"
	v1Grpc "github.com/DRSN-tech/furniture-recs/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/furniture-recs/internal/delivery/v1/http"
	"github.com/DRSN-tech/furniture-recs/internal/infrastructure/genai"
	"github.com/DRSN-tech/furniture-recs/internal/repository/redis"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/clients"
	"github.com/DRSN-tech/furniture-recs/pkg/closer"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout  = 10 * time.Second
	redisPingTimeout = 5 * time.Second
)

// App — HTTP API рекомендаций вместе с gRPC health-сервером.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
}

// NewApp собирает все зависимости. Ошибка здесь означает, что сервис запускать нельзя.
func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	ctx := context.Background()
	cl := closer.NewCloser(0)

	app, err := build(ctx, cfg, logger, cl)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if cerr := cl.Close(closeCtx); cerr != nil {
			logger.Warnf("%v", cerr)
		}
		return nil, err
	}

	return app, nil
}

func build(ctx context.Context, cfg *config.Config, logger logger.Logger, cl *closer.Closer) (*App, error) {
	vectorIndex, err := initVectorIndex(ctx, cfg.Qdrant, logger, cl)
	if err != nil {
		logger.Errorf(err, "failed to initialize vector index")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoder, err := initEncoder(cfg.Embedder, int(cfg.Qdrant.VectorSize), cl)
	if err != nil {
		logger.Errorf(err, "failed to initialize encoder")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	generator, err := genai.NewGenerator(ctx, cfg.GenAI.ApiKey, cfg.GenAI.Model, cfg.GenAI.Timeout)
	if err != nil {
		logger.Errorf(err, "failed to initialize text generator")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	loader, err := initCatalogLoader(cfg.Minio, logger)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Каталог читается один раз: аналитика считается по снимку на момент старта
	rows, err := loader.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		logger.Errorf(err, "failed to load catalog %s", cfg.Catalog.Path)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	statsRepo, err := initQueryStats(ctx, cfg.Redis, logger, cl)
	if err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	describer := usecase.NewDescriptionUC(generator, cfg.GenAI.MaxConcurrent, logger)
	recommendationUC := usecase.NewRecommendationUC(encoder, vectorIndex, describer, statsRepo, logger)
	analyticsUC := usecase.NewAnalyticsUC(rows, statsRepo, logger)

	grpcSrv := v1Grpc.NewGRPCServer(cfg.Grpc, logger)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger, cfg.Http.AllowedOrigins)
	router.Init(recommendationUC, analyticsUC)

	return &App{
		cfg:     cfg,
		logger:  logger,
		closer:  cl,
		httpSrv: v1Http.NewServer(r, cfg.Http),
		grpcSrv: grpcSrv,
	}, nil
}

// initQueryStats возвращает nil без ошибки, если Redis не настроен.
func initQueryStats(ctx context.Context, cfg *config.RedisCfg, logger logger.Logger, cl *closer.Closer) (usecase.QueryStatsRepository, error) {
	if cfg == nil {
		logger.Infof("REDIS_ADDR is not set, query statistics are disabled")
		return nil, nil
	}

	redisClient := clients.NewRedisClient(cfg)
	cl.AddErr("redis", redisClient.Close)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := redisClient.Ping(pingCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return redis.NewQueryStatsRepo(redisClient, cfg, logger), nil
}

// Run запускает серверы и блокируется до сигнала остановки или падения одного из них.
func (a *App) Run() error {
	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	a.grpcSrv.SetServing(true)

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.grpcSrv.SetServing(false)

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// серверы регистрируются последними, поэтому закрываются первыми
	a.closer.Add("grpc server", a.grpcSrv.Stop)
	a.closer.Add("http server", a.httpSrv.Stop)

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("%v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}
