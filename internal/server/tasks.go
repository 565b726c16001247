package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

type taskGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
}

type taskHandler struct {
	tasks  taskGetter
	logger *slog.Logger
}

func (h *taskHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, h.logger, common.Validation("TASK_ID_INVALID", "task id must be a UUID"))
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}
