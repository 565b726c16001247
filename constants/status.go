package constants

// TaskStatus is the canonical status for rows in tasks.
type TaskStatus string

// Stable values (store these exact strings in DB).
const (
	TaskStatusPending   TaskStatus = "PENDING"   // accepted, waiting for a worker
	TaskStatusRunning   TaskStatus = "RUNNING"   // owned by a worker
	TaskStatusSucceeded TaskStatus = "SUCCEEDED" // terminal success, outcome stored
	TaskStatusFailed    TaskStatus = "FAILED"    // terminal failure, last_error stored
)

// Terminal reports whether a status can never change again.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}
