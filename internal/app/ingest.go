package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/internal/infrastructure/kafka"
	"github.com/DRSN-tech/furniture-recs/internal/repository/pgdb"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/closer"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/DRSN-tech/furniture-recs/pkg/postgres"
	"github.com/jimlawless/whereami"
)

const ensureTopicTimeout = 10 * time.Second

// IngestOptions — параметры одного запуска загрузки.
type IngestOptions struct {
	Source string // если пусто, берётся CATALOG_PATH
	Skip   int
	Resume bool // продолжить с места, где упал прошлый запуск по этому источнику
}

type resumeJournal interface {
	ResumePoint(ctx context.Context, source string) (int, error)
}

// Ingester — офлайн-загрузка каталога в векторный индекс.
type Ingester struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	uc      usecase.IngestionUC
	journal resumeJournal // nil, если журнал не настроен
}

func NewIngester(ctx context.Context, cfg *config.Config, logger logger.Logger) (*Ingester, error) {
	cl := closer.NewCloser(0)

	ing, err := buildIngester(ctx, cfg, logger, cl)
	if err != nil {
		if cerr := cl.Close(ctx); cerr != nil {
			logger.Warnf("%v", cerr)
		}
		return nil, err
	}

	return ing, nil
}

func buildIngester(ctx context.Context, cfg *config.Config, logger logger.Logger, cl *closer.Closer) (*Ingester, error) {
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

	loader, err := initCatalogLoader(cfg.Minio, logger)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var (
		journal   usecase.IngestionJournal
		runRepo   *pgdb.IngestionRunRepo
		publisher usecase.EventPublisher
	)

	if cfg.Db != nil {
		db, err := initPGDB(ctx, logger, cfg.Db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddSimple("postgres", db.Close)

		runRepo = pgdb.NewIngestionRunRepo(db.Pool)
		journal = runRepo
	} else {
		logger.Infof("POSTGRES_DB is not set, ingestion journal is disabled")
	}

	if cfg.Kafka != nil {
		producer := kafka.NewProducer(logger, cfg.Kafka)
		if err := producer.EnsureTopic(ensureTopicTimeout); err != nil {
			logger.Warnf("failed to ensure kafka topic %s: %v", cfg.Kafka.Topic, err)
		}
		cl.AddErr("kafka producer", producer.Close)
		publisher = producer
	}

	ing := &Ingester{
		cfg:    cfg,
		logger: logger,
		closer: cl,
		uc:     usecase.NewIngestionUC(loader, encoder, vectorIndex, journal, publisher, logger),
	}
	if runRepo != nil {
		ing.journal = runRepo
	}

	return ing, nil
}

// Run выполняет загрузку. При -resume точка продолжения берётся из журнала.
func (i *Ingester) Run(ctx context.Context, opts IngestOptions) (*usecase.IngestReport, error) {
	source := opts.Source
	if source == "" {
		source = i.cfg.Catalog.Path
	}

	skip := opts.Skip
	if opts.Resume {
		if i.journal == nil {
			i.logger.Warnf("-resume requires POSTGRES_DB, starting from row %d", skip)
		} else {
			done, err := i.journal.ResumePoint(ctx, source)
			if err != nil {
				return nil, e.Wrap(whereami.WhereAmI(), err)
			}
			i.logger.Infof("resuming %s from row %d", source, done)
			skip = done
		}
	}

	return i.uc.Ingest(ctx, usecase.NewIngestReq(source, skip))
}

func (i *Ingester) Close(ctx context.Context) error {
	return i.closer.Close(ctx)
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
