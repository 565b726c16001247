package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

// Deps collects everything the HTTP layer needs.
type Deps struct {
	Gateway  uploadGateway
	Tasks    repository.TaskRepository
	Patients repository.PatientRepository
	Records  repository.RecordRepository
	Pool     *pgxpool.Pool
	MaxSize  int64
	Logger   *slog.Logger
}

// NewRouter wires all routes under /api/v1 plus the health probe.
func NewRouter(deps Deps) http.Handler {
	upload := &uploadHandler{gateway: deps.Gateway, maxSize: deps.MaxSize, logger: deps.Logger}
	tasks := &taskHandler{tasks: deps.Tasks, logger: deps.Logger}
	patients := &patientHandler{patients: deps.Patients, logger: deps.Logger}
	records := &recordHandler{records: deps.Records, patients: deps.Patients, logger: deps.Logger}
	export := &exportHandler{records: deps.Records, logger: deps.Logger}
	health := &healthHandler{pool: deps.Pool, logger: deps.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/records/upload", upload.handle)
		r.Get("/records/export", export.handle)
		r.Post("/records", records.create)
		r.Get("/records", records.list)
		r.Get("/tasks/{taskID}", tasks.get)
		r.Post("/patients", patients.create)
		r.Get("/patients", patients.list)
	})
	r.Get("/healthz", health.handle)

	return r
}
