package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

type exportHandler struct {
	records repository.RecordRepository
	logger  *slog.Logger
}

// handle streams the measurement history as a CSV download, honoring the
// same filters as the JSON listing.
func (h *exportHandler) handle(w http.ResponseWriter, r *http.Request) {
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

	data, err := csvutil.Marshal(records)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filename := "measurements-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("export.write.failed", "error", err)
	}
}
