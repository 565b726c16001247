package repository

import (
	"context"
	"errors"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

const TablePatients = "patients"

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type PatientRepository interface {
	Create(ctx context.Context, name string) (*entity.Patient, error)
	GetIDByName(ctx context.Context, name string) (int64, error)
	List(ctx context.Context) ([]*entity.Patient, error)
}

type patientRepository struct {
	pool   *pgxpool.Pool
	qb     sq.StatementBuilderType
	logger *slog.Logger
}

func NewPatientRepository(pool *pgxpool.Pool, logger *slog.Logger) PatientRepository {
	return &patientRepository{
		pool:   pool,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

func (r *patientRepository) Create(ctx context.Context, name string) (*entity.Patient, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TablePatients).
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	var p entity.Patient
	if err := db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.Conflict("PATIENT_EXISTS", "patient with this name already exists")
		}
		r.logger.Error("failed to create patient", "name", name, "error", err)
		return nil, executeQueryError(err)
	}

	return &p, nil
}

func (r *patientRepository) GetIDByName(ctx context.Context, name string) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id").
		From(TablePatients).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.NotFound("PATIENT_NOT_FOUND", "patient not found: "+name)
		}
		return 0, scanRowError(err)
	}

	return id, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*entity.Patient, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "name", "created_at").
		From(TablePatients).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	patients, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[entity.Patient])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return patients, nil
}
