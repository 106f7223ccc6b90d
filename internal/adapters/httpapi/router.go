package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Logger *zap.Logger

	// Registry receives the API metrics and is served on /metrics. Nil disables both.
	Registry *prometheus.Registry

	// AdminToken guards the write routes. Empty leaves them open.
	AdminToken string
}

// NewRouter constructs the roster API router.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	api.log = log

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newAccessLog(log))
	if opts.Registry != nil {
		api.metrics = NewMetrics(opts.Registry)
		r.Use(api.metrics.Middleware)
	}
	// Recoverer sits inside the access log and metrics so a panic is still counted as a 500.
	r.Use(middleware.Recoverer)

	// Infra endpoints, outside the roster surface.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{Registry: opts.Registry}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Route(membersRoute, func(r chi.Router) {
		r.Get("/", api.ListMembers)
		r.Get("/{memberId}", api.GetMember)

		r.Group(func(r chi.Router) {
			r.Use(NewAdminTokenMiddleware(opts.AdminToken))
			r.Post("/", api.CreateMember)
			r.Put("/{memberId}", api.UpdateMember)
			r.Delete("/{memberId}", api.DeleteMember)
		})
	})
	return r
}
