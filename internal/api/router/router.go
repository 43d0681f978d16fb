package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/healthhub-platform/internal/admin"
	"github.com/wolfman30/healthhub-platform/internal/bookings"
	"github.com/wolfman30/healthhub-platform/internal/catalog"
	httpmiddleware "github.com/wolfman30/healthhub-platform/internal/http/middleware"
	"github.com/wolfman30/healthhub-platform/internal/locator"
	"github.com/wolfman30/healthhub-platform/internal/symptoms"
	"github.com/wolfman30/healthhub-platform/internal/trends"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unregistered.
type Config struct {
	Logger             *logging.Logger
	Symptoms           *symptoms.Handler
	MapSessions        *locator.Handler
	Catalog            *catalog.Handler
	Bookings           *bookings.Handler
	Admin              *admin.Handler
	Trends             *trends.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Patient-facing API. Compression is skipped so websocket upgrades on
	// the map event stream keep a hijackable writer.
	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(httpmiddleware.ForwardBearer)

		if cfg.Symptoms != nil {
			api.Get("/providers", cfg.Symptoms.ListProviders)
			api.Post("/symptoms/classify", cfg.Symptoms.Classify)
			api.Get("/symptoms/keywords", cfg.Symptoms.Keywords)
		}
		if cfg.MapSessions != nil {
			api.Mount("/map/sessions", cfg.MapSessions.Routes())
		}
		if cfg.Catalog != nil {
			api.With(middleware.Compress(5)).Mount("/catalog", cfg.Catalog.Routes())
		}
		if cfg.Bookings != nil {
			api.Post("/appointments", cfg.Bookings.CreateAppointment)
		}
	})

	// Admin routes require a caller token, which the data API validates.
	if cfg.Admin != nil || cfg.Trends != nil {
		r.Route("/admin", func(adm chi.Router) {
			adm.Use(httpmiddleware.RequireBearer)
			if cfg.Trends != nil {
				adm.Get("/trends/appointments", cfg.Trends.GetAppointmentTrends)
			}
			if cfg.Admin != nil {
				adm.Mount("/", cfg.Admin.Routes())
			}
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
