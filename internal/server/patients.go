package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

type createPatientRequest struct {
	Name string `json:"name"`
}

type patientHandler struct {
	patients repository.PatientRepository
	logger   *slog.Logger
}

func (h *patientHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, common.Validation("BODY_INVALID", "request body must be JSON"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, h.logger, common.Validation("NAME_EMPTY", "patient name must not be empty"))
		return
	}

	patient, err := h.patients.Create(r.Context(), name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, patient)
}

func (h *patientHandler) list(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patients.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if patients == nil {
		patients = []*entity.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}
