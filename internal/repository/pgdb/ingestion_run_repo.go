package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jimlawless/whereami"
)

// Pool — часть *pgxpool.Pool, нужная журналу.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// IngestionRunRepo ведёт журнал загрузок каталога в PostgreSQL.
type IngestionRunRepo struct {
	pool Pool
}

func NewIngestionRunRepo(pool Pool) *IngestionRunRepo {
	return &IngestionRunRepo{pool: pool}
}

// StartRun регистрирует новый запуск со статусом running.
func (r *IngestionRunRepo) StartRun(ctx context.Context, run *usecase.IngestionRun) error {
	query := `
		INSERT INTO ingestion_runs (id, source, total, skipped, committed, status, started_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6);
	`

	if _, err := r.pool.Exec(ctx, query,
		run.ID, run.Source, run.Total, run.Skipped, string(usecase.RunRunning), run.StartedAt,
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// RecordChunk сохраняет записанный пакет и счётчик запуска в одной транзакции.
func (r *IngestionRunRepo) RecordChunk(ctx context.Context, runID string, chunk usecase.ChunkResult) (err error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, r.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(whereami.WhereAmI(), e.ErrTransactionNotFound)
	}
	ctx = tr.WithTx(ctx, pgxTx)

	if err = r.insertChunk(ctx, runID, chunk); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = r.updateCommitted(ctx, runID, chunk.Committed); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FinishRun закрывает запуск итоговым статусом.
func (r *IngestionRunRepo) FinishRun(ctx context.Context, runID string, status usecase.RunStatus, errText string) error {
	query := `
		UPDATE ingestion_runs
		SET status = $2, error = NULLIF($3, ''), finished_at = NOW()
		WHERE id = $1;
	`

	if _, err := r.pool.Exec(ctx, query, runID, string(status), errText); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ResumePoint возвращает число строк, уже записанных последним запуском по этому источнику,
// если он упал или так и остался в статусе running (процесс убит).
// Если последний запуск завершился успешно или запусков не было, возвращается 0.
func (r *IngestionRunRepo) ResumePoint(ctx context.Context, source string) (int, error) {
	query := `
		SELECT status, skipped + committed
		FROM ingestion_runs
		WHERE source = $1
		ORDER BY started_at DESC
		LIMIT 1;
	`

	var (
		status string
		done   int
	)
	err := r.pool.QueryRow(ctx, query, source).Scan(&status, &done)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	switch usecase.RunStatus(status) {
	case usecase.RunFailed, usecase.RunRunning:
		return done, nil
	default:
		return 0, nil
	}
}

func (r *IngestionRunRepo) insertChunk(ctx context.Context, runID string, chunk usecase.ChunkResult) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO ingestion_chunks (run_id, chunk_index, product_ids, committed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, chunk_index) DO UPDATE
		SET product_ids = EXCLUDED.product_ids, committed = EXCLUDED.committed, recorded_at = NOW();
	`

	if _, err := tx.Exec(ctx, query, runID, chunk.Index, chunk.IDs, chunk.Committed); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *IngestionRunRepo) updateCommitted(ctx context.Context, runID string, committed int) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `UPDATE ingestion_runs SET committed = $2 WHERE id = $1;`

	if _, err := tx.Exec(ctx, query, runID, committed); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
