package pgdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*IngestionRunRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewIngestionRunRepo(mock), mock
}

func checkExpectations(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStartRun(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO ingestion_runs").
		WithArgs("run-1", "catalog.csv", 250, 100, "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.StartRun(context.Background(), &usecase.IngestionRun{
		ID:        "run-1",
		Source:    "catalog.csv",
		Total:     250,
		Skipped:   100,
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	checkExpectations(t, mock)
}

func TestFinishRun(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("SET status = ").
		WithArgs("run-1", "failed", "vector index upsert failed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.FinishRun(context.Background(), "run-1", usecase.RunFailed, "vector index upsert failed"); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	checkExpectations(t, mock)
}

func TestRecordChunk_Commit(t *testing.T) {
	repo, mock := newMockRepo(t)
	chunk := usecase.ChunkResult{Index: 1, IDs: []string{"p100", "p101"}, Committed: 102}

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO ingestion_chunks").
		WithArgs("run-1", 1, []string{"p100", "p101"}, 102).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE ingestion_runs SET committed").
		WithArgs("run-1", 102).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := repo.RecordChunk(context.Background(), "run-1", chunk); err != nil {
		t.Fatalf("record chunk: %v", err)
	}
	checkExpectations(t, mock)
}

func TestRecordChunk_RollbackOnFailedCounter(t *testing.T) {
	repo, mock := newMockRepo(t)
	chunk := usecase.ChunkResult{Index: 0, IDs: []string{"p0"}, Committed: 1}
	dbErr := errors.New("connection reset")

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO ingestion_chunks").
		WithArgs("run-1", 0, []string{"p0"}, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE ingestion_runs SET committed").
		WithArgs("run-1", 1).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	err := repo.RecordChunk(context.Background(), "run-1", chunk)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected %v, got %v", dbErr, err)
	}
	checkExpectations(t, mock)
}

func TestResumePoint(t *testing.T) {
	tests := []struct {
		name   string
		status string
		done   int
		want   int
	}{
		{name: "failed run", status: "failed", done: 250, want: 250},
		{name: "interrupted run", status: "running", done: 100, want: 100},
		{name: "completed run", status: "completed", done: 300, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery("FROM ingestion_runs").
				WithArgs("catalog.csv").
				WillReturnRows(pgxmock.NewRows([]string{"status", "done"}).AddRow(tt.status, tt.done))

			got, err := repo.ResumePoint(context.Background(), "catalog.csv")
			if err != nil {
				t.Fatalf("resume point: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
			checkExpectations(t, mock)
		})
	}
}

func TestResumePoint_NoRuns(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM ingestion_runs").
		WithArgs("catalog.csv").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.ResumePoint(context.Background(), "catalog.csv")
	if err != nil || got != 0 {
		t.Errorf("got %d, %v", got, err)
	}
	checkExpectations(t, mock)
}

func TestResumePoint_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	dbErr := errors.New("too many connections")

	mock.ExpectQuery("FROM ingestion_runs").
		WithArgs("catalog.csv").
		WillReturnError(dbErr)

	if _, err := repo.ResumePoint(context.Background(), "catalog.csv"); !errors.Is(err, dbErr) {
		t.Errorf("expected %v, got %v", dbErr, err)
	}
	checkExpectations(t, mock)
}
