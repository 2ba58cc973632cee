package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
)

const fakeDim = 32

// hashEncoder строит нормированный мешок слов, чтобы общие слова давали положительное сходство.
type hashEncoder struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (h *hashEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()

	if h.err != nil {
		return nil, h.err
	}

	v := make([]float32, fakeDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		f.Write([]byte(word))
		v[f.Sum32()%fakeDim]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}

	return v, nil
}

func (h *hashEncoder) Dimensions() int { return fakeDim }

// memIndex — индекс в памяти с перезаписью по id и косинусным сходством.
type memIndex struct {
	entries  map[string]domain.IndexEntry
	queryErr error
	failAt   int // номер пакета, на котором UpsertBatch падает; -1 без ошибки

	// cancel вызывается перед пакетом cancelAt, после чего UpsertBatch возвращает ctx.Err()
	cancel   context.CancelFunc
	cancelAt int
}

func newMemIndex() *memIndex {
	return &memIndex{entries: make(map[string]domain.IndexEntry), failAt: -1}
}

func (m *memIndex) EnsureIndex(context.Context, domain.IndexSpec) error { return nil }

func (m *memIndex) UpsertBatch(ctx context.Context, entries []domain.IndexEntry, onChunk ChunkFunc) (*UpsertReport, error) {
	report := &UpsertReport{}

	for start, idx := 0, 0; start < len(entries); start, idx = start+100, idx+1 {
		if idx == m.failAt {
			return report, errors.New("service unavailable")
		}
		if m.cancel != nil && idx == m.cancelAt {
			m.cancel()
			return report, ctx.Err()
		}

		chunk := entries[start:min(start+100, len(entries))]
		ids := make([]string, 0, len(chunk))
		for _, entry := range chunk {
			m.entries[entry.ID] = entry
			ids = append(ids, entry.ID)
		}

		report.Chunks++
		report.Committed += len(chunk)
		if onChunk != nil {
			onChunk(ctx, ChunkResult{Index: idx, IDs: ids, Committed: report.Committed})
		}
	}

	return report, nil
}

func (m *memIndex) Query(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	matches := make([]domain.Match, 0, len(m.entries))
	for _, entry := range m.entries {
		matches = append(matches, domain.Match{
			ID:       entry.ID,
			Score:    cosine(vector, entry.Vector),
			Metadata: entry.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	return matches[:min(topK, len(matches))], nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type staticLoader struct {
	rows []domain.CatalogRow
	err  error
}

func (s staticLoader) Load(context.Context, string) ([]domain.CatalogRow, error) {
	return s.rows, s.err
}

// scriptedGenerator отвечает по названию товара из промпта; товары из failFor получают ошибку.
type scriptedGenerator struct {
	mu      sync.Mutex
	failFor map[string]bool
	prompts []string
}

func (s *scriptedGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	title := strings.TrimPrefix(strings.Split(prompt, "\n")[2], "Product: ")
	if s.failFor[title] {
		return "", errors.New("quota exceeded")
	}
	return "  Generated for " + title + ".  ", nil
}

// recordingJournal, как и pgx, отказывает на отменённом контексте.
type recordingJournal struct {
	started  []*IngestionRun
	chunks   []ChunkResult
	status   RunStatus
	errText  string
	finished int
}

func (r *recordingJournal) StartRun(ctx context.Context, run *IngestionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.started = append(r.started, run)
	return nil
}

func (r *recordingJournal) RecordChunk(ctx context.Context, _ string, chunk ChunkResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *recordingJournal) FinishRun(ctx context.Context, _ string, status RunStatus, errText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.status, r.errText = status, errText
	r.finished++
	return nil
}

type recordingPublisher struct {
	chunks   []*ChunkUpsertedEvent
	ingested []*IngestedEvent
}

func (r *recordingPublisher) PublishChunkUpserted(_ context.Context, ev *ChunkUpsertedEvent) error {
	r.chunks = append(r.chunks, ev)
	return nil
}

func (r *recordingPublisher) PublishIngested(ctx context.Context, ev *IngestedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.ingested = append(r.ingested, ev)
	return nil
}

// chanStats пишет каждый учтённый запрос в канал.
type chanStats struct {
	seen chan string
	top  []QueryCount
	err  error
}

func (c *chanStats) Increment(_ context.Context, query string) error {
	c.seen <- query
	return nil
}

func (c *chanStats) Top(_ context.Context, limit int) ([]QueryCount, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.top[:min(limit, len(c.top))], nil
}
