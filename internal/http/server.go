package httpapi

import (
	"net/http"
	"path/filepath"

	"sitehost/internal/config"
	"sitehost/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Log        *zap.SugaredLogger
	Registry   *services.Registry
	Store      *services.Store
	Deployer   *services.Deployer
	Reconciler *services.Reconciler
	MetricsHub *services.MetricsHub
	Limiter    *RateLimiter
}

func NewServer(db *sqlx.DB, cfg config.Config, store *services.Store, hub *services.MetricsHub, log *zap.SugaredLogger) *Server {
	registry := services.NewRegistry(db)
	fetcher := services.NewFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes)
	return &Server{
		DB:         db,
		Config:     cfg,
		Log:        log,
		Registry:   registry,
		Store:      store,
		Deployer:   services.NewDeployer(registry, store, fetcher),
		Reconciler: services.NewReconciler(registry, store, cfg.OrphanGrace),
		MetricsHub: hub,
		Limiter:    NewRateLimiter(cfg.IngestRatePerSecond, cfg.IngestBurst),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.RequestLogger)
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(ingest chi.Router) {
			ingest.Use(s.Limiter.Limit)
			ingest.Post("/upload", s.Upload)
			ingest.Post("/deploy-url", s.DeployURL)
			ingest.Post("/deploy-code", s.DeployCode)
		})

		api.Get("/sites", s.ListSites)
		api.Route("/site/{siteId}", func(site chi.Router) {
			site.Get("/info", s.SiteInfo)
			site.Delete("/", s.DeleteSite)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/stats", s.AdminStats)
			admin.Get("/sites", s.AdminSites)
			admin.Post("/reconcile", s.Reconcile)
			admin.Get("/metrics/history", s.MetricsHistory)
		})
	})

	r.Get("/site/{siteId}", s.ServeSite)
	r.Get("/site/{siteId}/", s.ServeSite)
	r.Get("/site/{siteId}/{filename}", s.ServeSiteFile)

	r.Get("/ws/metrics", s.MetricsSocket)
	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.Landing)
	r.Handle("/*", http.FileServer(http.Dir(s.Config.PublicDir)))
	return r
}

func (s *Server) Landing(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.Config.PublicDir, "index.html"))
}
