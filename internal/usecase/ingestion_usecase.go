package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/google/uuid"
)

// journalTimeout ограничивает запись в журнал и публикацию событий после отмены ctx.
const journalTimeout = 5 * time.Second

// IngestionUseCase загружает каталог в векторный индекс.
type IngestionUseCase struct {
	loader      CatalogLoader
	encoder     Encoder
	vectorIndex VectorIndex
	journal     IngestionJournal
	publisher   EventPublisher
	logger      logger.Logger
	now         func() time.Time
}

// NewIngestionUC собирает конвейер загрузки. journal и publisher могут быть nil.
func NewIngestionUC(
	loader CatalogLoader,
	encoder Encoder,
	vectorIndex VectorIndex,
	journal IngestionJournal,
	publisher EventPublisher,
	logger logger.Logger,
) *IngestionUseCase {
	if journal == nil {
		journal = noopJournal{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &IngestionUseCase{
		loader:      loader,
		encoder:     encoder,
		vectorIndex: vectorIndex,
		journal:     journal,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Ingest кодирует каждую строку каталога и пакетно записывает её в индекс.
// При ошибке записи возвращается отчёт с числом уже записанных строк; автоматического продолжения нет.
func (i *IngestionUseCase) Ingest(ctx context.Context, req *IngestReq) (*IngestReport, error) {
	const op = "IngestionUseCase.Ingest"

	started := i.now()

	rows, err := i.loader.Load(ctx, req.Source)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	skip := min(max(req.SkipFirst, 0), len(rows))
	pending := rows[skip:]

	report := &IngestReport{
		RunID:   uuid.NewString(),
		Source:  req.Source,
		Total:   len(rows),
		Skipped: skip,
	}

	if skip > 0 {
		i.logger.Infof("skipping first %d of %d products", skip, len(rows))
	}

	if err := i.journal.StartRun(ctx, &IngestionRun{
		ID:        report.RunID,
		Source:    req.Source,
		Total:     report.Total,
		Skipped:   skip,
		StartedAt: started,
	}); err != nil {
		i.logger.Warnf("failed to start ingestion run in journal: %v", e.Wrap(op, err))
	}

	entries, err := i.buildEntries(ctx, pending)
	if err != nil {
		return i.finish(ctx, report, started, e.Wrap(op, err))
	}

	upserted, err := i.vectorIndex.UpsertBatch(ctx, entries, func(ctx context.Context, chunk ChunkResult) {
		i.logger.Infof("uploaded %d/%d products", skip+chunk.Committed, len(rows))

		// пакет уже в индексе, поэтому журнал пишется даже после отмены
		ctx, cancel := detached(ctx)
		defer cancel()

		if err := i.journal.RecordChunk(ctx, report.RunID, chunk); err != nil {
			i.logger.Warnf("failed to record chunk %d: %v", chunk.Index, err)
		}
		if err := i.publisher.PublishChunkUpserted(ctx, NewChunkUpsertedEvent(report.RunID, chunk)); err != nil {
			i.logger.Warnf("failed to publish chunk %d event: %v", chunk.Index, err)
		}
	})
	if upserted != nil {
		report.Chunks = upserted.Chunks
		report.Committed = upserted.Committed
	}
	if err != nil {
		i.logger.Errorf(err, "ingestion stopped, resume with -skip=%d", skip+report.Committed)
		return i.finish(ctx, report, started, e.Wrap(op, err))
	}

	return i.finish(ctx, report, started, nil)
}

func (i *IngestionUseCase) buildEntries(ctx context.Context, rows []domain.CatalogRow) ([]domain.IndexEntry, error) {
	entries := make([]domain.IndexEntry, 0, len(rows))

	for _, row := range rows {
		vector, err := i.encoder.Encode(ctx, domain.EmbeddingText(row))
		if err != nil {
			return nil, fmt.Errorf("%w: product %s: %w", e.ErrEncode, row.ID, err)
		}

		entries = append(entries, domain.BuildEntry(row, vector))
	}

	return entries, nil
}

// finish закрывает запуск в журнале и публикует итоговое событие.
// Отменённый ctx не мешает записи: запуск не должен остаться в статусе running.
func (i *IngestionUseCase) finish(ctx context.Context, report *IngestReport, started time.Time, runErr error) (*IngestReport, error) {
	report.Duration = i.now().Sub(started)

	ctx, cancel := detached(ctx)
	defer cancel()

	status, errText := RunCompleted, ""
	if runErr != nil {
		status, errText = RunFailed, runErr.Error()
	}

	if err := i.journal.FinishRun(ctx, report.RunID, status, errText); err != nil {
		i.logger.Warnf("failed to finish ingestion run %s: %v", report.RunID, err)
	}

	if err := i.publisher.PublishIngested(ctx, &IngestedEvent{
		RunID:     report.RunID,
		Source:    report.Source,
		Status:    status,
		Total:     report.Total,
		Committed: report.Skipped + report.Committed,
		Error:     errText,
	}); err != nil {
		i.logger.Warnf("failed to publish ingested event: %v", err)
	}

	if runErr == nil {
		i.logger.Infof("ingested %d products from %s in %s", report.Committed, report.Source, report.Duration)
	}

	return report, runErr
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
}

type noopJournal struct{}

func (noopJournal) StartRun(context.Context, *IngestionRun) error { return nil }
func (noopJournal) RecordChunk(context.Context, string, ChunkResult) error { return nil }
func (noopJournal) FinishRun(context.Context, string, RunStatus, string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishChunkUpserted(context.Context, *ChunkUpsertedEvent) error { return nil }
func (noopPublisher) PublishIngested(context.Context, *IngestedEvent) error { return nil }
