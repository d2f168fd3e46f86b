package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fredneedsausername/gatekeeper/internal/config"
	"github.com/fredneedsausername/gatekeeper/internal/database"
	"github.com/fredneedsausername/gatekeeper/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

type ServerOptions struct {
	Config    *config.Config
	DB        *database.DB
	Pipeline  Ingestor
	Stats     IngestStats
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	r := chi.NewRouter()

	var corsOrigins []string
	if opts.Config.CORSOrigins != "" {
		for _, o := range strings.Split(opts.Config.CORSOrigins, ",") {
			if s := strings.TrimSpace(o); s != "" {
				corsOrigins = append(corsOrigins, s)
			}
		}
	}

	r.Use(RequestID)
	r.Use(CORSWithOrigins(corsOrigins))
	r.Use(RateLimiter(opts.Config.RateLimitRPS, opts.Config.RateLimitBurst))
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))

	// Unauthenticated endpoints
	health := NewHealthHandler(opts.DB, opts.Stats, opts.Version, opts.StartTime)
	r.Get("/api/health", health.ServeHTTP)

	if opts.Config.MetricsEnabled {
		collector := metrics.NewCollector(opts.DB.Pool)
		prometheus.MustRegister(collector)
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}

	// Gateway ingestion — trusted private network, no auth, small envelopes.
	gateway := NewGatewayHandler(opts.Pipeline, opts.Config.AppEnv == "json")
	r.Group(func(r chi.Router) {
		r.Use(MaxBodySize(1 << 20))
		if opts.Config.MetricsEnabled {
			r.Use(metrics.InstrumentHandler)
		}
		gateway.Routes(r)
	})

	auth := NewAuthHandler(opts.DB, opts.Config.SecretKey)
	r.Post("/api/auth/login", auth.Login)

	// Authenticated operator API
	r.Group(func(r chi.Router) {
		r.Use(MaxBodySize(1 << 20))
		if opts.Config.MetricsEnabled {
			r.Use(metrics.InstrumentHandler)
		}
		r.Use(JWTAuth(opts.Config.SecretKey))

		r.Route("/api", func(r chi.Router) {
			auth.Routes(r)
			NewCrewMembersHandler(opts.DB).Routes(r)
			NewShipsHandler(opts.DB).Routes(r)
			NewTagsHandler(opts.DB).Routes(r)
			NewEntriesHandler(opts.DB).Routes(r)
			NewLogsHandler(opts.DB).Routes(r)
			NewCatalogHandler(opts.DB).Routes(r)
			NewExportHandler(opts.DB).Routes(r)
		})
	})

	srv := &http.Server{
		Addr:         opts.Config.HTTPAddr,
		Handler:      r,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  opts.Config.IdleTimeout,
	}

	return &Server{
		http: srv,
		log:  opts.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
