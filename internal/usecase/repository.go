package usecase

import (
	"context"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
)

// IndexService — узкий контракт внешнего сервиса векторного поиска.
type IndexService interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, spec domain.IndexSpec) error
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
}

// IngestionJournal хранит историю запусков загрузки и уже записанные пакеты.
type IngestionJournal interface {
	StartRun(ctx context.Context, run *IngestionRun) error
	RecordChunk(ctx context.Context, runID string, chunk ChunkResult) error
	FinishRun(ctx context.Context, runID string, status RunStatus, errText string) error
}

// QueryStatsRepository считает популярность поисковых запросов.
type QueryStatsRepository interface {
	Increment(ctx context.Context, query string) error
	Top(ctx context.Context, limit int) ([]QueryCount, error)
}
