// Package httpapi exposes the admin-facing HTTP surface the UI drives
// (SPEC_FULL §6): push subscription management, a test notification,
// user notification preferences, and the on-demand synchronizer
// trigger. The booking worker itself has no HTTP surface; this is
// purely the control plane the core must honour.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/notify/push"
	"wodbooker-go/internal/store/postgres"
	wbsync "wodbooker-go/internal/sync"
)

// Dependencies bundles everything the router's handlers need.
type Dependencies struct {
	Config        config.ServerConfig
	Users         *postgres.UserRepository
	PushSubs      *postgres.PushRepository
	Push          *push.Sender
	Synchronizer  *wbsync.Synchronizer
	Logger        *zap.Logger
	EnableSwagger bool
}

// NewRouter builds the chi router for the admin API, instrumented end
// to end with an OTLP span per request.
func NewRouter(deps Dependencies) http.Handler {
	return otelhttp.NewHandler(newMux(deps), "wodbooker-admin-api")
}

func newMux(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Config.ReadTimeout))
	r.Use(middleware.Heartbeat("/health"))

	if deps.Config.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.Config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())

	h := &handler{deps: deps}

	r.Route("/api/push", func(r chi.Router) {
		r.Post("/subscribe", h.subscribe)
		r.Post("/unsubscribe", h.unsubscribe)
		r.Post("/test", h.test)
	})
	r.Route("/api/wodbuster", func(r chi.Router) {
		r.Post("/sync", h.syncNow)
	})
	r.Route("/api/users/{userID}/preferences", func(r chi.Router) {
		r.Put("/", h.updatePreferences)
	})

	if deps.EnableSwagger {
		r.Get("/swagger.json", serveSwaggerSpec)
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json")))
	}

	return r
}
