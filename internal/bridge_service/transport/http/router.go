package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter mounts the session routes behind auth and rate limiting.
// /healthz and /metrics stay open. RemoteAddr is left as the transport peer
// so forwarding headers cannot pick a caller's rate-limit bucket.
func NewRouter(h *SessionHandler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(cfg.JWTSecret, logger))
		r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		r.Route("/appointments/{appointmentId}", func(r chi.Router) {
			r.Use(requireParam("appointmentId"))
			r.Get("/config", h.GetConfigInfo)
			r.Post("/meeting", h.CreateMeeting)
			r.Post("/submit", h.Submit)
		})

		r.Post("/sessions/logs", h.SaveLog)
		r.Post("/sessions/hook", h.Hook)

		r.Route("/sessions/{sessionKey}", func(r chi.Router) {
			r.Use(requireParam("sessionKey"))
			r.Post("/close", h.CloseVideo)
			r.Get("/contracts", h.GetContractList)
			r.Get("/contract-url", h.GetContractURL)
			r.Post("/contract/confirm", h.ConfirmContract)
		})

		r.Post("/ratings", h.RateCall)
		r.Get("/network/address", h.ResolveAddress)
	})

	return r
}
