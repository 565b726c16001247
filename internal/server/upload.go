package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/ingest"
)

// uploadGateway is the slice of the ingest gateway the handler needs.
type uploadGateway interface {
	Accept(ctx context.Context, up ingest.Upload) (*ingest.AcceptResult, error)
}

type uploadResponse struct {
	Status   string     `json:"status"`
	Filename string     `json:"filename"`
	Message  string     `json:"message"`
	TaskID   *uuid.UUID `json:"task_id"`
}

type uploadHandler struct {
	gateway uploadGateway
	maxSize int64
	logger  *slog.Logger
}

// handle accepts a multipart upload and answers 202 before any processing
// happens. The optional patient_name field overrides the extracted name.
func (h *uploadHandler) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, h.logger, common.Validation("MULTIPART_INVALID", "cannot parse multipart form: "+err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, common.Validation("FILE_FIELD_MISSING", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	result, err := h.gateway.Accept(r.Context(), ingest.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		PatientName: r.FormValue("patient_name"),
		Content:     file,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	message := "report accepted for processing"
	if result.TaskID == nil {
		message = "report stored but background processing could not be scheduled"
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{
		Status:   "accepted",
		Filename: result.Filename,
		Message:  message,
		TaskID:   result.TaskID,
	})
}
