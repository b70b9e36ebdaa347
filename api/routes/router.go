package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventra-app/eventra-backend/api/controllers"
	"github.com/eventra-app/eventra-backend/api/middleware"
	"github.com/eventra-app/eventra-backend/internal/certificates"
	"github.com/eventra-app/eventra-backend/pkg/config"
	"github.com/eventra-app/eventra-backend/pkg/db"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/redis"
)

type queuePinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	queueP queuePinger,
	certificateService certificates.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, queueP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/events/{eventID}/certificates", func(r chi.Router) {
		r.Post("/", controllers.TriggerCertificates(certificateService, logg))
		r.Get("/", controllers.CertificateStatus(certificateService, logg))
	})

	return r
}
