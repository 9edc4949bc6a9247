package api

import (
	"context"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/pyramid/internal/api/handlers"
	mw "github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/buildconfig"
	"github.com/Harshitk-cp/pyramid/internal/config"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports backend health. A nil Pinger is always healthy.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Practices    *service.PracticeService
	Cascade      *service.CascadeService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(stores domain.Stores, db Pinger, cfg domain.ClassifierConfig, logger *zap.Logger) *App {
	// Services
	classifier := service.NewClassifier(cfg)
	practiceSvc := service.NewPracticeService(stores.Practices, stores.Observations, stores.Transitions, stores.Snapshots, classifier, logger)
	cascadeSvc := service.NewCascadeService(stores.Schools, stores.Practices, stores.Cascades, practiceSvc, logger)
	cascadeSvc.SetWorkers(config.CascadeWorkers())
	if d := config.CascadeInterval(); d > 0 {
		cascadeSvc.SetInterval(d)
	}

	// Handlers
	schoolHandler := handlers.NewSchoolHandler(stores.Schools)
	practiceHandler := handlers.NewPracticeHandler(practiceSvc)
	observationHandler := handlers.NewObservationHandler(practiceSvc)
	classifyHandler := handlers.NewClassifyHandler(practiceSvc)
	cascadeHandler := handlers.NewCascadeHandler(cascadeSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Practices: practiceSvc,
		Cascade:   cascadeSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID(logger))                                         // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())

	// School creation (no auth, bootstrap endpoint)
	r.Post("/v1/schools", schoolHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(stores.Schools))

		r.Post("/classify", classifyHandler.Classify)
		r.Get("/pyramid", practiceHandler.Pyramid)

		r.Route("/practices", func(r chi.Router) {
			r.Post("/", practiceHandler.Create)
			r.Get("/", practiceHandler.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", practiceHandler.Get)
				r.Post("/observations", observationHandler.Record)
				r.Get("/observations", observationHandler.List)
				r.Get("/classification", practiceHandler.Classification)
				r.Get("/summary", practiceHandler.Summary)
				r.Get("/transitions", practiceHandler.Transitions)
				r.Get("/similar", practiceHandler.Similar)
			})
		})

		r.Route("/cascades", func(r chi.Router) {
			r.Post("/", cascadeHandler.Trigger)
			r.Get("/", cascadeHandler.List)
		})
	})

	return app
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"build":  buildconfig.VersionInfo(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		writeJSON(w, http.StatusOK, map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"build": buildconfig.VersionInfo(),
		})
	}
}
