package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/internal/archive"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/extraction"
)

// Processor runs the full pipeline for one task: extract, archive, normalize,
// persist. It is the unit the worker queue drives.
type Processor struct {
	extractor extraction.ReportExtractor
	archiver  archive.DocumentArchiver // nil when archival is not configured
	persister *Persister
	logger    *slog.Logger
}

func NewProcessor(extractor extraction.ReportExtractor, archiver archive.DocumentArchiver, persister *Persister, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: extractor,
		archiver:  archiver,
		persister: persister,
		logger:    logger,
	}
}

// Process executes one attempt. Errors are classified by kind: the queue
// retries transient ones and fails fast on the rest. Archival failures are
// logged and swallowed so a flaky archive never blocks record persistence.
func (p *Processor) Process(ctx context.Context, task *entity.Task) (*entity.TaskOutcome, error) {
	payload := task.Payload

	info, err := os.Stat(payload.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.NonRetryable("FILE_MISSING", "stored upload is gone: "+payload.StoragePath, err)
		}
		return nil, common.Retryable("FILE_STAT", "stat stored upload", err)
	}
	if info.Size() != payload.FileSize {
		p.logger.Warn("process.size_mismatch",
			"task_id", task.ID,
			"expected", payload.FileSize,
			"actual", info.Size(),
		)
	}

	report, err := p.extractor.Extract(ctx, payload.StoragePath)
	if err != nil {
		return nil, err
	}

	patientName := report.PatientInfo.Name
	if payload.PatientName != "" {
		patientName = payload.PatientName
	}

	p.archiveBestEffort(ctx, task, report, patientName)

	sampleTime, err := ParseSampleDate(report.PatientInfo.SampleDate)
	if err != nil {
		return nil, err
	}

	saved, err := p.persister.Persist(ctx, task.ID, patientName, sampleTime, report.HospitalInfo.Name, report.TestResults)
	if err != nil {
		return nil, err
	}

	return &entity.TaskOutcome{
		Status:          "success",
		Filename:        payload.Filename,
		FilePath:        payload.StoragePath,
		FileSize:        payload.FileSize,
		ContentType:     payload.ContentType,
		UploadTimestamp: payload.UploadTimestamp,
		ProcessedAt:     time.Now().UTC(),
		LabReport:       report,
		RecordsSaved:    saved,
	}, nil
}

func (p *Processor) archiveBestEffort(ctx context.Context, task *entity.Task, report *entity.LabReport, patientName string) {
	if p.archiver == nil {
		return
	}

	err := p.archiver.Upload(ctx, archive.UploadRequest{
		DocumentPath:   task.Payload.StoragePath,
		PatientName:    patientName,
		HospitalName:   report.HospitalInfo.Name,
		CollectionDate: report.PatientInfo.SampleDate,
		Report:         report,
	})
	if err != nil {
		p.logger.Warn("archive.upload.failed", "task_id", task.ID, "error", err)
	}
}
