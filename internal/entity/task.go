package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
)

// TaskPayload is everything a worker needs to process one uploaded document.
type TaskPayload struct {
	Filename        string    `json:"filename"`
	StoragePath     string    `json:"storage_path"`
	FileSize        int64     `json:"file_size"`
	ContentType     string    `json:"content_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	// PatientName, when set, overrides the name extracted from the report.
	PatientName string `json:"patient_name,omitempty"`
}

// Task is one unit of asynchronous work corresponding to one uploaded
// document. AttemptCount is advanced by the scheduler; the status reaches
// exactly one terminal value.
type Task struct {
	ID           uuid.UUID            `json:"task_id"`
	Payload      TaskPayload          `json:"payload"`
	Status       constants.TaskStatus `json:"status"`
	AttemptCount int                  `json:"attempt_count"`
	LastError    string               `json:"last_error,omitempty"`
	Outcome      *TaskOutcome         `json:"outcome,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TaskOutcome is the durable result of a successfully processed task,
// available for the caller to poll.
type TaskOutcome struct {
	Status          string    `json:"status"`
	Filename        string    `json:"filename"`
	FilePath        string    `json:"file_path"`
	FileSize        int64     `json:"file_size"`
	ContentType     string    `json:"content_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	ProcessedAt     time.Time `json:"processed_at"`
	LabReport       *LabReport `json:"lab_report,omitempty"`
	RecordsSaved    int       `json:"records_saved"`
}
