package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/praxis-clinic/praxis/internal/auth"
	"github.com/praxis-clinic/praxis/internal/billing"
	"github.com/praxis-clinic/praxis/internal/guidance"
	"github.com/praxis-clinic/praxis/internal/inquiries"
	"github.com/praxis-clinic/praxis/internal/notes"
	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/sessions"
	"github.com/praxis-clinic/praxis/internal/shared"
	"github.com/praxis-clinic/praxis/internal/tasks"
	"github.com/praxis-clinic/praxis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	Scopes          ScopeResolver
	AuthHandler     *auth.Handler
	PatientHandler  *patients.Handler
	SessionHandler  *sessions.Handler
	TaskHandler     *tasks.Handler
	BillingHandler  *billing.Handler
	GuidanceHandler *guidance.Handler
	NoteHandler     *notes.Handler
	InquiryHandler  *inquiries.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Praxis defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Scopes:         params.Scopes,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		if params.PatientHandler != nil {
			r.Route("/patients", params.PatientHandler.MountRoutes)
		}
		if params.SessionHandler != nil {
			r.Route("/sessions", params.SessionHandler.MountRoutes)
		}
		if params.TaskHandler != nil {
			r.Route("/tasks", params.TaskHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/receipts", params.BillingHandler.MountRoutes)
		}
		if params.GuidanceHandler != nil {
			r.Route("/guidance", params.GuidanceHandler.MountRoutes)
		}
		if params.NoteHandler != nil {
			r.Route("/notes", params.NoteHandler.MountRoutes)
		}
		if params.InquiryHandler != nil {
			r.Route("/inquiries", params.InquiryHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(RequireAdmin)
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
