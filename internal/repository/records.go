package repository

import (
	"context"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

const TableRecords = "measurement_records"

// RecordFilter narrows List results. Zero values mean "no filter".
type RecordFilter struct {
	PatientName string
	TestName    string
	Limit       uint64
}

type RecordRepository interface {
	// SaveBatch inserts one row per test result inside a single transaction.
	// Rows previously committed for the same task are replaced, so a retried
	// task never duplicates its measurements.
	SaveBatch(ctx context.Context, taskID uuid.UUID, patientID int64, ts time.Time, labName string, results []entity.TestResult) ([]int64, error)
	Insert(ctx context.Context, rec *entity.MeasurementRecord) (*entity.MeasurementRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]*entity.MeasurementRecord, error)
}

type recordRepository struct {
	pool   *pgxpool.Pool
	tx     *TxManager
	qb     sq.StatementBuilderType
	logger *slog.Logger
}

func NewRecordRepository(pool *pgxpool.Pool, tx *TxManager, logger *slog.Logger) RecordRepository {
	return &recordRepository{
		pool:   pool,
		tx:     tx,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

func (r *recordRepository) SaveBatch(ctx context.Context, taskID uuid.UUID, patientID int64, ts time.Time, labName string, results []entity.TestResult) ([]int64, error) {
	ids := make([]int64, 0, len(results))

	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := extractDB(ctx, r.pool)

		// Idempotency marker: a retry that runs after an unacknowledged
		// commit replaces its own rows instead of adding a second set.
		delSQL, delArgs, err := r.qb.
			Delete(TableRecords).
			Where(sq.Eq{"task_id": taskID}).
			ToSql()
		if err != nil {
			return createQueryError(err)
		}
		if _, err := db.Exec(ctx, delSQL, delArgs...); err != nil {
			return executeQueryError(err)
		}

		for _, res := range results {
			sql, args, err := r.qb.
				Insert(TableRecords).
				Columns("timestamp", "patient_id", "test_name", "value", "unit", "lab_name", "task_id").
				Values(ts, patientID, res.TestName, res.Results, res.Unit, labName, taskID).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return createQueryError(err)
			}

			var id int64
			if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
				return scanRowError(err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("batch insert rolled back", "task_id", taskID, "patient_id", patientID, "error", err)
		return nil, err
	}

	r.logger.Info("saved measurement records atomically", "task_id", taskID, "count", len(ids))
	return ids, nil
}

func (r *recordRepository) Insert(ctx context.Context, rec *entity.MeasurementRecord) (*entity.MeasurementRecord, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableRecords).
		Columns("timestamp", "patient_id", "test_name", "value", "unit", "lab_name").
		Values(rec.Timestamp, rec.PatientID, rec.TestName, rec.Value, rec.Unit, rec.LabName).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	out := *rec
	if err := db.QueryRow(ctx, sql, args...).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, scanRowError(err)
	}

	return &out, nil
}

func (r *recordRepository) List(ctx context.Context, filter RecordFilter) ([]*entity.MeasurementRecord, error) {
	db := extractDB(ctx, r.pool)

	q := r.qb.
		Select(
			"mr.id",
			"mr.timestamp",
			"mr.patient_id",
			"p.name AS patient_name",
			"mr.test_name",
			"mr.value",
			"COALESCE(mr.unit, '') AS unit",
			"COALESCE(mr.lab_name, '') AS lab_name",
			"mr.created_at",
		).
		From(TableRecords + " mr").
		Join(TablePatients + " p ON p.id = mr.patient_id").
		OrderBy("mr.timestamp DESC", "mr.id DESC")

	if filter.PatientName != "" {
		q = q.Where(sq.Eq{"p.name": filter.PatientName})
	}
	if filter.TestName != "" {
		q = q.Where(sq.Eq{"mr.test_name": filter.TestName})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[entity.MeasurementRecord])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return records, nil
}
