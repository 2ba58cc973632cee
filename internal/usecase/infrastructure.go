package usecase

import (
	"context"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
)

// Encoder переводит текст в вектор фиксированной длины.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// TextGenerator — внешняя генеративная модель. Вызывается ровно один раз на запрос, без повторов.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// VectorIndex — клиент векторного индекса: создание, пакетная запись, поиск.
type VectorIndex interface {
	EnsureIndex(ctx context.Context, spec domain.IndexSpec) error
	UpsertBatch(ctx context.Context, entries []domain.IndexEntry, onChunk ChunkFunc) (*UpsertReport, error)
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
}

// ChunkFunc вызывается после каждого успешно записанного пакета.
type ChunkFunc func(ctx context.Context, chunk ChunkResult)

type CatalogLoader interface {
	Load(ctx context.Context, source string) ([]domain.CatalogRow, error)
}

// EventPublisher публикует события загрузки каталога.
type EventPublisher interface {
	PublishChunkUpserted(ctx context.Context, ev *ChunkUpsertedEvent) error
	PublishIngested(ctx context.Context, ev *IngestedEvent) error
}
