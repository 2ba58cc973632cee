package usecase

import "context"

// RecommendationUC — поиск товаров по свободному тексту.
type RecommendationUC interface {
	Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error)
	Chat(ctx context.Context, req *ChatReq) (*ChatRes, error)
}

type AnalyticsUC interface {
	Summary(ctx context.Context) *AnalyticsRes
	PopularQueries(ctx context.Context, limit int) ([]QueryCount, error)
}

type IngestionUC interface {
	Ingest(ctx context.Context, req *IngestReq) (*IngestReport, error)
}
