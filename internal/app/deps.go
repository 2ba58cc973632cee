package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/internal/infrastructure/catalog"
	"github.com/DRSN-tech/furniture-recs/internal/infrastructure/embedding"
	"github.com/DRSN-tech/furniture-recs/internal/infrastructure/vectorindex"
	s3Repo "github.com/DRSN-tech/furniture-recs/internal/repository/minio"
	qdrantRepo "github.com/DRSN-tech/furniture-recs/internal/repository/qdrant"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/clients"
	"github.com/DRSN-tech/furniture-recs/pkg/closer"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/jimlawless/whereami"
)

const ensureIndexTimeout = 10 * time.Second

// initEncoder выбирает модель эмбеддингов по EMBEDDER_TYPE.
func initEncoder(cfg *config.EmbedderCfg, dimensions int, cl *closer.Closer) (usecase.Encoder, error) {
	switch cfg.Type {
	case "onnx":
		enc, err := embedding.NewONNXEncoder(cfg.ModelPath, cfg.VocabPath, dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddErr("onnx encoder", enc.Close)
		return enc, nil
	default:
		return embedding.NewHTTPEncoder(cfg.BaseURL, cfg.ApiKey, cfg.Model, dimensions, cfg.Timeout), nil
	}
}

// initVectorIndex подключается к Qdrant и создаёт коллекцию, если её ещё нет.
func initVectorIndex(ctx context.Context, cfg *config.QdrantCfg, log logger.Logger, cl *closer.Closer) (*vectorindex.Client, error) {
	qdrantClient, err := clients.NewQdrantClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.AddErr("qdrant", qdrantClient.Close)

	indexRepo := qdrantRepo.NewIndexRepo(qdrantClient.Client, cfg.IndexName)
	index := vectorindex.NewClient(indexRepo, int(cfg.VectorSize), log)

	ensureCtx, cancel := context.WithTimeout(ctx, ensureIndexTimeout)
	defer cancel()

	if err := index.EnsureIndex(ensureCtx, domain.IndexSpec{
		Name:      cfg.IndexName,
		Dimension: cfg.VectorSize,
		Metric:    cfg.Metric,
	}); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return index, nil
}

// initCatalogLoader подключает MinIO как источник s3:// только когда он настроен.
func initCatalogLoader(cfg *config.MinIOCfg, log logger.Logger) (*catalog.Loader, error) {
	if cfg == nil {
		return catalog.NewLoader(nil, log), nil
	}

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return catalog.NewLoader(s3Repo.NewCatalogObjectRepo(minioClient), log), nil
}
