package handlers

import (
	"net/http"

	"github.com/diasporalink/backend/internal/middleware"
	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/ratelimit"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Registrations     RegistrationSubmitter
	RegistrationAdmin RegistrationStore
	Sessions          SessionManager

	Blog     ContentService[models.BlogPost]
	Events   ContentService[models.Event]
	Partners ContentService[models.Partner]

	// Media is nil when no bucket is configured.
	Media MediaStorage

	// GeneralLimiter guards every public endpoint except registration,
	// which is limited inside the registration service.
	GeneralLimiter ratelimit.Limiter
	Rejections     middleware.RejectionRecorder

	Health  map[string]HealthCheck
	Metrics http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.Health}
	registrations := RegistrationHandler{Service: deps.Registrations}
	admin := AdminHandler{Sessions: deps.Sessions, Registrations: deps.RegistrationAdmin}
	media := MediaHandler{Storage: deps.Media}

	limited := func(h http.HandlerFunc) http.Handler { return h }
	if deps.GeneralLimiter != nil {
		guard := middleware.RateLimit(deps.GeneralLimiter, middleware.RateLimitOptions{Policy: "general", Recorder: deps.Rejections})
		limited = func(h http.HandlerFunc) http.Handler { return guard(h) }
	}
	adminOnly := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(deps.Sessions)(h) }

	mux.HandleFunc("GET /healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.HandleFunc("POST /api/v1/registrations", registrations.Submit)

	mux.Handle("POST /api/v1/admin/login", limited(admin.Login))
	mux.Handle("POST /api/v1/admin/refresh", limited(admin.Refresh))
	mux.Handle("POST /api/v1/admin/logout", limited(admin.Logout))

	mux.Handle("GET /api/v1/admin/registrations", adminOnly(admin.ListRegistrations))
	mux.Handle("GET /api/v1/admin/registrations/{id}", adminOnly(admin.GetRegistration))
	mux.Handle("PATCH /api/v1/admin/registrations/{id}", adminOnly(admin.UpdateRegistrationStatus))
	mux.Handle("DELETE /api/v1/admin/registrations/{id}", adminOnly(admin.DeleteRegistration))
	mux.Handle("POST /api/v1/admin/media", adminOnly(media.Upload))

	registerContent(mux, "blog", deps.Blog, limited, adminOnly)
	registerContent(mux, "events", deps.Events, limited, adminOnly)
	registerContent(mux, "partners", deps.Partners, limited, adminOnly)
}

func registerContent[T any](mux *http.ServeMux, kind string, svc ContentService[T], public, admin func(http.HandlerFunc) http.Handler) {
	if svc == nil {
		return
	}
	h := ContentHandler[T]{Kind: kind, Service: svc}

	mux.Handle("GET /api/v1/"+kind, public(h.List))
	mux.Handle("GET /api/v1/"+kind+"/{id}", public(h.Get))
	mux.Handle("POST /api/v1/admin/"+kind, admin(h.Create))
	mux.Handle("PUT /api/v1/admin/"+kind+"/{id}", admin(h.Update))
	mux.Handle("DELETE /api/v1/admin/"+kind+"/{id}", admin(h.Delete))
}
