package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a classified error to an HTTP status. Unclassified errors
// are internal faults and never leak their message to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ae *common.AppError
	if !errors.As(err, &ae) {
		logger.Error("http.internal_error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case common.KindValidation:
		status = http.StatusBadRequest
		if ae.Code == "FILE_TOO_LARGE" {
			status = http.StatusRequestEntityTooLarge
		}
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindConflict:
		status = http.StatusConflict
	default:
		logger.Error("http.internal_error", "code", ae.Code, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: ae.Code})
		return
	}

	writeJSON(w, status, errorResponse{Error: ae.Message, Code: ae.Code})
}
