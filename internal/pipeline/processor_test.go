package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
	"github.com/joseph-ayodele/lab-report-tracker/internal/archive"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExtractor struct {
	report *entity.LabReport
	err    error
}

func (f *fakeExtractor) Extract(context.Context, string) (*entity.LabReport, error) {
	return f.report, f.err
}

type fakeArchiver struct {
	mu       sync.Mutex
	requests []archive.UploadRequest
	err      error
}

func (f *fakeArchiver) Upload(_ context.Context, req archive.UploadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

type fakePatientRepo struct {
	ids map[string]int64
}

func (f *fakePatientRepo) Create(context.Context, string) (*entity.Patient, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePatientRepo) GetIDByName(_ context.Context, name string) (int64, error) {
	id, ok := f.ids[name]
	if !ok {
		return 0, common.NotFound("PATIENT_NOT_FOUND", "patient not found: "+name)
	}
	return id, nil
}

func (f *fakePatientRepo) List(context.Context) ([]*entity.Patient, error) { return nil, nil }

type fakeRecordRepo struct {
	mu        sync.Mutex
	saved     []entity.TestResult
	patientID int64
	labName   string
	ts        time.Time
	err       error
}

func (f *fakeRecordRepo) SaveBatch(_ context.Context, _ uuid.UUID, patientID int64, ts time.Time, labName string, results []entity.TestResult) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = results
	f.patientID = patientID
	f.labName = labName
	f.ts = ts
	ids := make([]int64, len(results))
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (f *fakeRecordRepo) Insert(context.Context, *entity.MeasurementRecord) (*entity.MeasurementRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecordRepo) List(context.Context, repository.RecordFilter) ([]*entity.MeasurementRecord, error) {
	return nil, nil
}

func sampleReport() *entity.LabReport {
	return &entity.LabReport{
		HospitalInfo: entity.HospitalInfo{Name: "City Hospital", ReportType: "Biochemistry"},
		PatientInfo:  entity.PatientInfo{Name: "Jane Roe", SampleDate: "08-11-2025 03:17 PM"},
		TestResults: []entity.TestResult{
			{TestName: "Creatinine", Results: "0.9", Unit: "mg/dL"},
			{TestName: "Urea", Results: "28", Unit: "mg/dL"},
		},
	}
}

func storedTask(t *testing.T) *entity.Task {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stored.jpg")
	content := []byte("jpeg bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return &entity.Task{
		ID:     uuid.New(),
		Status: constants.TaskStatusRunning,
		Payload: entity.TaskPayload{
			Filename:        "report.jpg",
			StoragePath:     path,
			FileSize:        int64(len(content)),
			ContentType:     "image/jpeg",
			UploadTimestamp: time.Now().UTC(),
		},
	}
}

func TestProcessorProcessSuccess(t *testing.T) {
	patients := &fakePatientRepo{ids: map[string]int64{"Jane Roe": 11}}
	records := &fakeRecordRepo{}
	archiver := &fakeArchiver{}
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		archiver,
		NewPersister(patients, records, discardLogger()),
		discardLogger(),
	)
	task := storedTask(t)

	outcome, err := proc.Process(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, "success", outcome.Status)
	assert.Equal(t, "report.jpg", outcome.Filename)
	assert.Equal(t, 2, outcome.RecordsSaved)
	require.NotNil(t, outcome.LabReport)

	assert.Equal(t, int64(11), records.patientID)
	assert.Equal(t, "City Hospital", records.labName)
	assert.True(t, records.ts.Equal(time.Date(2025, 11, 8, 15, 17, 0, 0, time.UTC)))

	require.Len(t, archiver.requests, 1)
	assert.Equal(t, task.Payload.StoragePath, archiver.requests[0].DocumentPath)
	assert.Equal(t, "Jane Roe", archiver.requests[0].PatientName)
}

func TestProcessorArchivalFailureDoesNotFailTask(t *testing.T) {
	patients := &fakePatientRepo{ids: map[string]int64{"Jane Roe": 11}}
	records := &fakeRecordRepo{}
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		&fakeArchiver{err: common.BestEffort("ARCHIVE_STATUS", "archive down", nil)},
		NewPersister(patients, records, discardLogger()),
		discardLogger(),
	)

	outcome, err := proc.Process(context.Background(), storedTask(t))
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.RecordsSaved)
}

func TestProcessorNilArchiverIsSkipped(t *testing.T) {
	patients := &fakePatientRepo{ids: map[string]int64{"Jane Roe": 11}}
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		nil,
		NewPersister(patients, &fakeRecordRepo{}, discardLogger()),
		discardLogger(),
	)

	_, err := proc.Process(context.Background(), storedTask(t))
	require.NoError(t, err)
}

func TestProcessorPayloadPatientNameOverridesExtraction(t *testing.T) {
	patients := &fakePatientRepo{ids: map[string]int64{"John Doe": 22}}
	records := &fakeRecordRepo{}
	archiver := &fakeArchiver{}
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		archiver,
		NewPersister(patients, records, discardLogger()),
		discardLogger(),
	)

	task := storedTask(t)
	task.Payload.PatientName = "John Doe"

	_, err := proc.Process(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, int64(22), records.patientID)
	require.Len(t, archiver.requests, 1)
	assert.Equal(t, "John Doe", archiver.requests[0].PatientName)
}

func TestProcessorMissingStoredFileIsNonRetryable(t *testing.T) {
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		nil,
		NewPersister(&fakePatientRepo{}, &fakeRecordRepo{}, discardLogger()),
		discardLogger(),
	)

	task := storedTask(t)
	task.Payload.StoragePath = filepath.Join(t.TempDir(), "gone.jpg")

	_, err := proc.Process(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, common.KindNonRetryable, common.KindOf(err))
	assert.Equal(t, "FILE_MISSING", common.CodeOf(err))
}

func TestProcessorUnknownPatientIsNotRetryable(t *testing.T) {
	proc := NewProcessor(
		&fakeExtractor{report: sampleReport()},
		nil,
		NewPersister(&fakePatientRepo{ids: map[string]int64{}}, &fakeRecordRepo{}, discardLogger()),
		discardLogger(),
	)

	_, err := proc.Process(context.Background(), storedTask(t))
	require.Error(t, err)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
	assert.Equal(t, "PATIENT_NOT_FOUND", common.CodeOf(err))
}

func TestProcessorUnparseableDateIsNonRetryable(t *testing.T) {
	report := sampleReport()
	report.PatientInfo.SampleDate = "sometime last week"

	proc := NewProcessor(
		&fakeExtractor{report: report},
		nil,
		NewPersister(&fakePatientRepo{ids: map[string]int64{"Jane Roe": 11}}, &fakeRecordRepo{}, discardLogger()),
		discardLogger(),
	)

	_, err := proc.Process(context.Background(), storedTask(t))
	require.Error(t, err)
	assert.Equal(t, "DATE_UNPARSEABLE", common.CodeOf(err))
}

func TestProcessorExtractionErrorPropagates(t *testing.T) {
	proc := NewProcessor(
		&fakeExtractor{err: common.Retryable("EXTRACTION_TRANSPORT", "connection reset", nil)},
		nil,
		NewPersister(&fakePatientRepo{}, &fakeRecordRepo{}, discardLogger()),
		discardLogger(),
	)

	_, err := proc.Process(context.Background(), storedTask(t))
	require.Error(t, err)
	assert.Equal(t, common.KindRetryable, common.KindOf(err))
}
