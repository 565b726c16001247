package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx stands in for a pgx transaction so the delete+insert loop and its
// rollback behavior can be exercised without a database.
type fakeTx struct {
	execSQL      []string
	queryRowSQL  []string
	inserts      int
	failOnInsert int // 1-based; 0 never fails
	committed    bool
	rolledBack   bool
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execSQL = append(t.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.queryRowSQL = append(t.queryRowSQL, sql)
	t.inserts++
	if t.failOnInsert > 0 && t.inserts == t.failOnInsert {
		return fakeRow{err: errors.New("constraint violation")}
	}
	return fakeRow{id: int64(t.inserts)}
}

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.id
		}
	}
	return nil
}

func batchResults() []entity.TestResult {
	return []entity.TestResult{
		{TestName: "Creatinine", Results: "0.9", Unit: "mg/dL"},
		{TestName: "Urea", Results: "28", Unit: "mg/dL"},
		{TestName: "ALT", Results: "31", Unit: "U/L"},
	}
}

func TestSaveBatchCommitsAllRows(t *testing.T) {
	tx := &fakeTx{}
	repo := NewRecordRepository(nil, NewTxManager(tx), discardLogger())

	ids, err := repo.SaveBatch(context.Background(), uuid.New(), 11, time.Now(), "City Hospital", batchResults())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.True(t, tx.committed)

	// The idempotency delete runs before any insert, in the same tx.
	require.Len(t, tx.execSQL, 1)
	assert.True(t, strings.HasPrefix(tx.execSQL[0], "DELETE FROM "+TableRecords))
	require.Len(t, tx.queryRowSQL, 3)
	for _, sql := range tx.queryRowSQL {
		assert.True(t, strings.HasPrefix(sql, "INSERT INTO "+TableRecords))
	}
}

func TestSaveBatchFailedInsertRollsBackEverything(t *testing.T) {
	tx := &fakeTx{failOnInsert: 3}
	repo := NewRecordRepository(nil, NewTxManager(tx), discardLogger())

	ids, err := repo.SaveBatch(context.Background(), uuid.New(), 11, time.Now(), "City Hospital", batchResults())
	require.Error(t, err)

	assert.Nil(t, ids)
	assert.False(t, tx.committed, "a partial batch must never commit")
	assert.True(t, tx.rolledBack)
	assert.Equal(t, 3, tx.inserts, "stops at the failing insert")
}

func TestSaveBatchFailedFirstInsertRollsBack(t *testing.T) {
	tx := &fakeTx{failOnInsert: 1}
	repo := NewRecordRepository(nil, NewTxManager(tx), discardLogger())

	ids, err := repo.SaveBatch(context.Background(), uuid.New(), 11, time.Now(), "City Hospital", batchResults())
	require.Error(t, err)

	assert.Nil(t, ids)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}
