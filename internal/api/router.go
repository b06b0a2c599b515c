package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/notify"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

type RouterConfig struct {
	Service  *appointment.Service
	Feed     *notify.Feed
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger.WithComponent("http")))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	svc := cfg.Service

	r.Get("/calendar/grid", gridHandler(svc))

	// Whole-schedule endpoints
	r.Get("/schedule", getScheduleHandler(svc))
	r.Post("/schedule/replace", replaceScheduleHandler(svc))
	r.Post("/schedule/assistant", assistantHandler(svc))

	// Professional endpoints
	r.Get("/professionals", listProfessionalsHandler(svc))
	r.Post("/professionals", createProfessionalHandler(svc))
	r.Route("/professionals/{id}", func(r chi.Router) {
		r.Get("/", getProfessionalHandler(svc))
		r.Patch("/", updateProfessionalHandler(svc))
		r.Delete("/", deleteProfessionalHandler(svc))
		r.Get("/slots", slotsHandler(svc))
		r.Get("/appointments", professionalAppointmentsHandler(svc))
	})

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(svc))
	r.Get("/appointments/{id}", getAppointmentHandler(svc))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(svc))
	r.Patch("/appointments/{id}/status", updateStatusHandler(svc))
	r.Patch("/appointments/{id}/notes", updateNotesHandler(svc))

	r.Get("/patients/appointments", patientAppointmentsHandler(svc))

	r.Get("/reports/financial", financialReportHandler(svc))
	r.Get("/reports/summary", summaryHandler(svc))

	r.Get("/notifications", notificationsHandler(cfg.Feed))
	r.Get("/notifications/stream", notificationStreamHandler(cfg.Feed, logger.WithComponent("stream")))

	return r
}
