// Package router wires the HTTP surface: REST handlers, the dashboard, the
// live WebSocket event stream and Prometheus's scrape endpoint behind a
// chi router.
package router

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatchsvc/internal/http/handlers"
	obsmw "dispatchsvc/internal/http/middleware"
	"dispatchsvc/internal/http/middleware/ratelimit"
	"dispatchsvc/internal/http/pprofserver"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/ws"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(h *handlers.Handlers, wsHandler *ws.Handler, rl *ratelimit.Middleware, logger logx.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obsmw.Observability(logger))
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/ping", h.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/dashboard", h.Dashboard)
	r.Get("/ws/events", wsHandler.ServeHTTP)
	r.Mount("/debug/pprof", pprofserver.Handler(pprofserver.Config{
		User: os.Getenv("PPROF_USER"),
		Pass: os.Getenv("PPROF_PASS"),
	}))

	r.Route("/couriers", func(cr chi.Router) {
		cr.With(rl.Handler()).Post("/", h.CreateCourier)
		cr.Get("/", h.ListCouriers)
		cr.Get("/{id}", h.GetCourier)
		cr.Patch("/{id}/status", h.PatchCourierStatus)
		cr.Patch("/{id}/location", h.PatchCourierLocation)
	})

	r.Route("/orders", func(or chi.Router) {
		or.With(rl.Handler()).Post("/", h.CreateOrder)
		or.Get("/", h.ListOrders)
		or.Get("/{id}", h.GetOrder)
	})

	r.Get("/assignments", h.ListAssignments)

	r.NotFound(http.HandlerFunc(h.NotFound))

	return r
}
