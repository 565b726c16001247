package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

const TableTasks = "tasks"

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	// MarkRunning transitions a task to RUNNING and advances its attempt
	// counter, returning the new attempt number.
	MarkRunning(ctx context.Context, id uuid.UUID) (int, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, outcome *entity.TaskOutcome) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	// RequeuePending flips orphaned RUNNING tasks back to PENDING and
	// returns every non-terminal task, for startup recovery.
	RequeuePending(ctx context.Context) ([]*entity.Task, error)
}

type taskRepository struct {
	pool   *pgxpool.Pool
	qb     sq.StatementBuilderType
	logger *slog.Logger
}

func NewTaskRepository(pool *pgxpool.Pool, logger *slog.Logger) TaskRepository {
	return &taskRepository{
		pool:   pool,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

func (r *taskRepository) Create(ctx context.Context, task *entity.Task) error {
	db := extractDB(ctx, r.pool)

	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	sql, args, err := r.qb.
		Insert(TableTasks).
		Columns("id", "payload", "status", "attempt_count").
		Values(task.ID, payload, string(constants.TaskStatusPending), 0).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		r.logger.Error("failed to create task", "task_id", task.ID, "error", err)
		return executeQueryError(err)
	}

	return nil
}

func (r *taskRepository) MarkRunning(ctx context.Context, id uuid.UUID) (int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableTasks).
		Set("status", string(constants.TaskStatusRunning)).
		Set("attempt_count", sq.Expr("attempt_count + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING attempt_count").
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var attempt int
	if err := db.QueryRow(ctx, sql, args...).Scan(&attempt); err != nil {
		return 0, scanRowError(err)
	}

	return attempt, nil
}

func (r *taskRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, outcome *entity.TaskOutcome) error {
	out, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	return r.finish(ctx, id, constants.TaskStatusSucceeded, out, "")
}

func (r *taskRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.finish(ctx, id, constants.TaskStatusFailed, nil, lastError)
}

func (r *taskRepository) finish(ctx context.Context, id uuid.UUID, status constants.TaskStatus, outcome []byte, lastError string) error {
	db := extractDB(ctx, r.pool)

	q := r.qb.
		Update(TableTasks).
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})
	if outcome != nil {
		q = q.Set("outcome", outcome)
	}
	if lastError != "" {
		q = q.Set("last_error", lastError)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		r.logger.Error("failed to finish task", "task_id", id, "status", status, "error", err)
		return executeQueryError(err)
	}

	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "payload", "status", "attempt_count", "COALESCE(last_error, '')", "outcome", "created_at", "updated_at").
		From(TableTasks).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	task, err := scanTask(db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFound("TASK_NOT_FOUND", "task not found: "+id.String())
		}
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) RequeuePending(ctx context.Context) ([]*entity.Task, error) {
	db := extractDB(ctx, r.pool)

	reset, resetArgs, err := r.qb.
		Update(TableTasks).
		Set("status", string(constants.TaskStatusPending)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"status": string(constants.TaskStatusRunning)}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}
	if _, err := db.Exec(ctx, reset, resetArgs...); err != nil {
		return nil, executeQueryError(err)
	}

	sql, args, err := r.qb.
		Select("id", "payload", "status", "attempt_count", "COALESCE(last_error, '')", "outcome", "created_at", "updated_at").
		From(TableTasks).
		Where(sq.Eq{"status": string(constants.TaskStatusPending)}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, collectRowsError(err)
	}

	return tasks, nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		task      entity.Task
		status    string
		payload   []byte
		outcome   []byte
		lastError string
	)
	if err := row.Scan(&task.ID, &payload, &status, &task.AttemptCount, &lastError, &outcome, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, scanRowError(err)
	}

	task.Status = constants.TaskStatus(status)
	task.LastError = lastError
	if err := json.Unmarshal(payload, &task.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(outcome) > 0 {
		task.Outcome = &entity.TaskOutcome{}
		if err := json.Unmarshal(outcome, task.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
	}

	return &task, nil
}
