package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

// Persister resolves an extracted report to a registered patient and writes
// its measurements in one transaction.
type Persister struct {
	patients repository.PatientRepository
	records  repository.RecordRepository
	logger   *slog.Logger
}

func NewPersister(patients repository.PatientRepository, records repository.RecordRepository, logger *slog.Logger) *Persister {
	return &Persister{patients: patients, records: records, logger: logger}
}

// Persist looks up the patient by name and saves one row per test result.
// The patient must already exist; an unregistered name fails the task
// permanently rather than silently creating patients from OCR output.
func (p *Persister) Persist(ctx context.Context, taskID uuid.UUID, patientName string, ts time.Time, labName string, results []entity.TestResult) (int, error) {
	patientID, err := p.patients.GetIDByName(ctx, patientName)
	if err != nil {
		return 0, err
	}

	ids, err := p.records.SaveBatch(ctx, taskID, patientID, ts, labName, results)
	if err != nil {
		return 0, err
	}

	p.logger.Info("persist.batch.ok",
		"task_id", taskID,
		"patient", patientName,
		"records", len(ids),
	)
	return len(ids), nil
}
