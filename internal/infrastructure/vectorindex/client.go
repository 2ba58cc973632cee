package vectorindex

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

// ChunkSize — максимальное число записей в одном upsert-запросе к сервису.
const ChunkSize = 100

// UpsertError возвращается, когда один из пакетов не записался.
// Committed — число записей, успешно записанных до упавшего пакета.
type UpsertError struct {
	Chunk     int
	Committed int
	Err       error
}

func (u *UpsertError) Error() string {
	return fmt.Sprintf("upsert chunk %d failed after %d committed entries: %v", u.Chunk, u.Committed, u.Err)
}

func (u *UpsertError) Unwrap() []error {
	return []error{e.ErrUpsert, u.Err}
}

// Client управляет жизненным циклом индекса и доступом к нему.
type Client struct {
	service   usecase.IndexService
	dimension int
	logger    logger.Logger
}

func NewClient(service usecase.IndexService, dimension int, logger logger.Logger) *Client {
	return &Client{
		service:   service,
		dimension: dimension,
		logger:    logger,
	}
}

// EnsureIndex идемпотентно создаёт индекс, если его ещё нет. Безопасно вызывать при каждом старте.
func (c *Client) EnsureIndex(ctx context.Context, spec domain.IndexSpec) error {
	const op = "vectorindex.Client.EnsureIndex"

	exists, err := c.service.Exists(ctx, spec.Name)
	if err != nil {
		return e.Wrap(op, fmt.Errorf("%w: check %q: %w", e.ErrIndexConfig, spec.Name, err))
	}

	if exists {
		c.logger.Infof("index %q already exists", spec.Name)
		return nil
	}

	c.logger.Infof("creating index %q (dimension=%d, metric=%s)", spec.Name, spec.Dimension, spec.Metric)
	if err := c.service.Create(ctx, spec); err != nil {
		return e.Wrap(op, fmt.Errorf("%w: create %q: %w", e.ErrIndexConfig, spec.Name, err))
	}

	return nil
}

// UpsertBatch записывает записи пакетами по ChunkSize в исходном порядке, по одному вызову на пакет.
// При первой ошибке оставшиеся пакеты не отправляются; уже записанные остаются в индексе.
func (c *Client) UpsertBatch(ctx context.Context, entries []domain.IndexEntry, onChunk usecase.ChunkFunc) (*usecase.UpsertReport, error) {
	report := &usecase.UpsertReport{}

	for start, idx := 0, 0; start < len(entries); start, idx = start+ChunkSize, idx+1 {
		chunk := entries[start:min(start+ChunkSize, len(entries))]

		if err := c.validate(chunk); err != nil {
			return report, &UpsertError{Chunk: idx, Committed: report.Committed, Err: err}
		}

		if err := c.service.Upsert(ctx, chunk); err != nil {
			return report, &UpsertError{Chunk: idx, Committed: report.Committed, Err: err}
		}

		report.Chunks++
		report.Committed += len(chunk)

		if onChunk != nil {
			onChunk(ctx, usecase.ChunkResult{
				Index:     idx,
				IDs:       entryIDs(chunk),
				Committed: report.Committed,
			})
		}
	}

	return report, nil
}

// Query возвращает до topK ближайших записей в порядке убывания сходства.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	const op = "vectorindex.Client.Query"

	if c.dimension > 0 && len(vector) != c.dimension {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w: got %d, want %d", e.ErrQuery, e.ErrDimension, len(vector), c.dimension))
	}

	matches, err := c.service.Query(ctx, vector, topK)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrQuery, err))
	}

	if matches == nil {
		matches = []domain.Match{}
	}

	return matches, nil
}

func (c *Client) validate(chunk []domain.IndexEntry) error {
	if c.dimension <= 0 {
		return nil
	}

	for _, entry := range chunk {
		if len(entry.Vector) != c.dimension {
			return fmt.Errorf("%w: entry %q has %d values, want %d", e.ErrDimension, entry.ID, len(entry.Vector), c.dimension)
		}
	}

	return nil
}

func entryIDs(chunk []domain.IndexEntry) []string {
	ids := make([]string, len(chunk))
	for i, entry := range chunk {
		ids[i] = entry.ID
	}

	return ids
}
