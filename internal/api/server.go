package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meetme/conferencebridge/internal/api/middleware"
	"github.com/meetme/conferencebridge/internal/config"
	"github.com/meetme/conferencebridge/internal/database"
	"github.com/meetme/conferencebridge/internal/meetme"
	"github.com/meetme/conferencebridge/internal/metrics"
)

// Server holds the Admin HTTP Surface's dependencies and the chi router.
// Authorization for conference control lives at the conference admin PIN
// layer, not here — this surface trusts its network perimeter (rate
// limiting and CORS are the only guards) the same way the star menu
// trusts a caller who already supplied the admin PIN.
type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	rooms    database.RoomRepository
	registry *meetme.Registry
	logger   *slog.Logger
}

// NewServer creates the Admin HTTP Surface with all routes mounted.
func NewServer(cfg *config.Config, rooms database.RoomRepository, registry *meetme.Registry, collector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		rooms:    rooms,
		registry: registry,
		logger:   logger.With("subsystem", "admin-http"),
	}
	s.routes(collector)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes configures all middleware and mounts every route group.
func (s *Server) routes(collector *metrics.Collector) {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(middleware.ParseCORSOrigins(s.cfg.CORSOrigins)))
	r.Use(middleware.StructuredLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(false))

	limiter := middleware.NewIPRateLimiter(middleware.DefaultRateLimitConfig())
	r.Use(middleware.RateLimit(limiter))

	if collector != nil {
		r.Handle("/metrics", metricsHandler(collector))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/", s.handleCreateRoom)
			r.Route("/{confno}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Put("/", s.handleUpdateRoom)
				r.Delete("/", s.handleDeleteRoom)
			})
		})

		r.Route("/conferences", func(r chi.Router) {
			r.Get("/", s.handleListConferences)
			r.Route("/{confno}", func(r chi.Router) {
				r.Get("/", s.handleGetConference)
				r.Get("/participants", s.handleListParticipants)
				r.Post("/lock", s.handleToggleLock)
				r.Route("/participants/{userNo}", func(r chi.Router) {
					r.Post("/mute", s.handleMuteParticipant)
					r.Post("/unmute", s.handleUnmuteParticipant)
					r.Post("/kick", s.handleKickParticipant)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.logger.Info("admin http routes mounted")
}

// handleHealth reports basic liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
