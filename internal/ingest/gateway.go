package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

// TaskEnqueuer hands an already-persisted task to the background workers.
type TaskEnqueuer interface {
	Enqueue(task *entity.Task) error
}

// Upload is one incoming document as seen at the HTTP boundary.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	PatientName string
	Content     io.Reader
}

// AcceptResult is returned synchronously. Filename is the generated stored
// name, not the client's. TaskID is nil when background scheduling could not
// be arranged; the file is stored either way.
type AcceptResult struct {
	Filename string
	TaskID   *uuid.UUID
}

// Gateway validates uploads, stores them under collision-free names, and
// schedules background processing.
type Gateway struct {
	uploadDir string
	maxSize   int64
	tasks     repository.TaskRepository
	queue     TaskEnqueuer
	logger    *slog.Logger
}

func NewGateway(uploadDir string, maxSize int64, tasks repository.TaskRepository, queue TaskEnqueuer, logger *slog.Logger) (*Gateway, error) {
	if maxSize <= 0 {
		maxSize = constants.MaxUploadSizeDefault
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}
	return &Gateway{
		uploadDir: uploadDir,
		maxSize:   maxSize,
		tasks:     tasks,
		queue:     queue,
		logger:    logger,
	}, nil
}

// Accept validates and stores one upload, then tries to schedule it. A
// scheduling failure is not fatal: the 202 contract promises only that the
// document was accepted, so the result carries a nil TaskID and the operator
// can requeue on the next restart.
func (g *Gateway) Accept(ctx context.Context, up Upload) (*AcceptResult, error) {
	if err := ValidateUpload(up.Filename, up.ContentType, up.Size, g.maxSize); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(up.Content, g.maxSize+1))
	if err != nil {
		return nil, common.Retryable("UPLOAD_READ", "read upload body", err)
	}
	if len(data) == 0 {
		return nil, common.Validation("FILE_EMPTY", "uploaded file is empty")
	}
	if int64(len(data)) > g.maxSize {
		return nil, common.Validation("FILE_TOO_LARGE", "upload body exceeds the size limit")
	}

	ext := constants.NormalizeExt(filepath.Ext(up.Filename))
	storedName := uuid.New().String() + ext
	storagePath := filepath.Join(g.uploadDir, storedName)

	if err := os.WriteFile(storagePath, data, 0o644); err != nil {
		return nil, common.Retryable("UPLOAD_STORE", "store upload", err)
	}

	g.logger.Info("upload.stored",
		"filename", up.Filename,
		"stored_as", storedName,
		"size", len(data),
	)

	task := &entity.Task{
		ID: uuid.New(),
		Payload: entity.TaskPayload{
			Filename:        storedName,
			StoragePath:     storagePath,
			FileSize:        int64(len(data)),
			ContentType:     up.ContentType,
			UploadTimestamp: time.Now().UTC(),
			PatientName:     up.PatientName,
		},
		Status: constants.TaskStatusPending,
	}

	if err := g.tasks.Create(ctx, task); err != nil {
		g.logger.Warn("upload.schedule.failed", "filename", storedName, "error", err)
		return &AcceptResult{Filename: storedName}, nil
	}
	if err := g.queue.Enqueue(task); err != nil {
		g.logger.Warn("upload.enqueue.failed", "task_id", task.ID, "error", err)
		return &AcceptResult{Filename: storedName}, nil
	}

	return &AcceptResult{Filename: storedName, TaskID: &task.ID}, nil
}
