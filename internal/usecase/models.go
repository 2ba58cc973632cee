package usecase

import (
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
)

const (
	DefaultTopK = 5
	ChatTopK    = 3
	MaxTopK     = 100

	TopBrandsLimit = 10
)

// RECOMMENDATION USECASE

// RecommendReq — запрос рекомендаций по свободному тексту.
type RecommendReq struct {
	Query string
	TopK  int
}

// RecommendRes — найденные товары с AI-описаниями в порядке убывания сходства.
type RecommendRes struct {
	Query    string
	Products []RecommendedProduct
}

type RecommendedProduct struct {
	domain.Product
	AIDescription string
}

// ChatReq — сообщение чата. История диалога принимается API, но в поиске не участвует.
type ChatReq struct {
	Message string
}

type ChatRes struct {
	Reply    string
	Products []domain.Product
}

// ANALYTICS USECASE

type AnalyticsRes struct {
	TotalProducts int
	AvgPrice      float64
	TopBrands     []BrandCount
}

type BrandCount struct {
	Brand string
	Count int
}

type QueryCount struct {
	Query string
	Count int64
}

// INGESTION USECASE

// IngestReq — запрос на загрузку каталога в индекс.
// SkipFirst пропускает уже записанный префикс каталога при возобновлении.
type IngestReq struct {
	Source    string
	SkipFirst int
}

type IngestReport struct {
	RunID     string
	Source    string
	Total     int
	Skipped   int
	Committed int
	Chunks    int
	Duration  time.Duration
}

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type IngestionRun struct {
	ID        string
	Source    string
	Total     int
	Skipped   int
	StartedAt time.Time
}

// ChunkResult описывает один успешно записанный пакет.
type ChunkResult struct {
	Index     int // номер пакета с нуля
	IDs       []string
	Committed int // сколько записей записано с начала загрузки, включая этот пакет
}

// UpsertReport — итог пакетной записи.
type UpsertReport struct {
	Chunks    int
	Committed int
}

// EVENTS

type ChunkUpsertedEvent struct {
	RunID     string
	Chunk     int
	IDs       []string
	Committed int
}

type IngestedEvent struct {
	RunID     string
	Source    string
	Status    RunStatus
	Total     int
	Committed int
	Error     string
}

// MAPPERS

func NewRecommendReq(query string, topK int) *RecommendReq {
	return &RecommendReq{
		Query: query,
		TopK:  topK,
	}
}

func NewChatReq(message string) *ChatReq {
	return &ChatReq{Message: message}
}

func NewIngestReq(source string, skipFirst int) *IngestReq {
	return &IngestReq{
		Source:    source,
		SkipFirst: skipFirst,
	}
}

func NewChunkUpsertedEvent(runID string, chunk ChunkResult) *ChunkUpsertedEvent {
	return &ChunkUpsertedEvent{
		RunID:     runID,
		Chunk:     chunk.Index,
		IDs:       chunk.IDs,
		Committed: chunk.Committed,
	}
}
