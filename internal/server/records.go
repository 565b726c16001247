package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/pipeline"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

type createRecordRequest struct {
	PatientName string `json:"patient_name"`
	TestName    string `json:"test_name"`
	Value       string `json:"value"`
	Unit        string `json:"unit,omitempty"`
	LabName     string `json:"lab_name,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

type recordHandler struct {
	records  repository.RecordRepository
	patients repository.PatientRepository
	logger   *slog.Logger
}

// create registers a manually entered measurement, for values the user reads
// off a device at home rather than a lab report.
func (h *recordHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, common.Validation("BODY_INVALID", "request body must be JSON"))
		return
	}
	if strings.TrimSpace(req.PatientName) == "" || strings.TrimSpace(req.TestName) == "" || strings.TrimSpace(req.Value) == "" {
		writeError(w, h.logger, common.Validation("FIELDS_MISSING", "patient_name, test_name and value are required"))
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := pipeline.ParseSampleDate(req.Timestamp)
		if err != nil {
			writeError(w, h.logger, common.Validation("TIMESTAMP_INVALID", "cannot parse timestamp: "+req.Timestamp))
			return
		}
		ts = parsed
	}

	labName := req.LabName
	if labName == "" {
		labName = constants.DefaultLabName
	}

	patientID, err := h.patients.GetIDByName(r.Context(), req.PatientName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.records.Insert(r.Context(), &entity.MeasurementRecord{
		Timestamp: ts,
		PatientID: patientID,
		TestName:  req.TestName,
		Value:     req.Value,
		Unit:      req.Unit,
		LabName:   labName,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec.PatientName = req.PatientName

	writeJSON(w, http.StatusCreated, rec)
}

func (h *recordHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRecordFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []*entity.MeasurementRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func parseRecordFilter(r *http.Request) (repository.RecordFilter, error) {
	filter := repository.RecordFilter{
		PatientName: r.URL.Query().Get("patient_name"),
		TestName:    r.URL.Query().Get("test_name"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, common.Validation("LIMIT_INVALID", "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
