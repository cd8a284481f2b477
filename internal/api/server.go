package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"github.com/sallamaty/rounds-console/internal/config"
	"github.com/sallamaty/rounds-console/internal/health"
	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/reports"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/internal/storage"
	"github.com/sallamaty/rounds-console/pkg/client"
)

// Deps are the collaborators the console server is built from
type Deps struct {
	// Client is the unauthenticated backend client; each request derives a
	// copy signed with its session's token.
	Client   *client.Client
	Sessions session.Stores
	Legacy   storage.Repository
	Catalog  *reports.Catalog
	Health   *health.Registry
}

// Server represents the console HTTP server
type Server struct {
	config   config.ServerConfig
	session  config.SessionConfig
	router   *chi.Mux
	client   *client.Client
	sessions session.Stores
	legacy   storage.Repository
	catalog  *reports.Catalog
	health   *health.Registry
	fetches  *singleflight.Group
	now      func() time.Time
}

// NewServer creates a new console server
func NewServer(cfg config.ServerConfig, sessionCfg config.SessionConfig, deps Deps) *Server {
	s := &Server{
		config:   cfg,
		session:  sessionCfg,
		client:   deps.Client,
		sessions: deps.Sessions,
		legacy:   deps.Legacy,
		catalog:  deps.Catalog,
		health:   deps.Health,
		fetches:  &singleflight.Group{},
		now:      time.Now,
	}
	if s.catalog == nil {
		s.catalog = reports.NewCatalog()
	}
	if s.health == nil {
		s.health = health.NewRegistry(0)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(s.withSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/google", s.handleGoogleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(s.requireAuth).Get("/me", s.handleMe)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/rounds", func(r chi.Router) {
				r.Get("/", s.handleListRounds)
				r.Get("/my", s.handleListMyRounds)
				r.Post("/", s.handleCreateRound)
				r.Put("/{id}", s.handleUpdateRound)
				r.Delete("/{id}", s.handleDeleteRound)
				r.Post("/{id}/finalize", s.handleFinalizeRound)
			})

			r.Route("/capas", func(r chi.Router) {
				r.Get("/", s.handleListCapas)
				r.Post("/", s.handleCreateCapa)
				r.Patch("/{id}", s.handleUpdateCapa)
				r.Delete("/{id}", s.handleDeleteCapa)
			})

			crudRoutes(r, "/departments", (*queries.Queries).FetchDepartments, (*queries.Queries).DepartmentMutations)
			crudRoutes(r, "/users", (*queries.Queries).FetchUsers, (*queries.Queries).UserMutations)
			crudRoutes(r, "/evaluation-categories", (*queries.Queries).FetchCategories, (*queries.Queries).CategoryMutations)
			crudRoutes(r, "/evaluation-items", (*queries.Queries).FetchItems, (*queries.Queries).ItemMutations)
			crudRoutes(r, "/round-types", (*queries.Queries).FetchRoundTypes, (*queries.Queries).RoundTypeMutations)
			r.Get("/assessors", listHandler((*queries.Queries).FetchAssessors))

			r.Get("/dashboard", s.handleDashboard)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", s.handleListReports)
				r.Get("/{name}", s.handleRunReport)
			})

			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handleUpdatePreferences)
		})
	})

	// Streams are long-lived, so they sit outside the request timeout
	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Use(s.requireAuth)
		r.Get("/ws/resources/{name}", s.handleResourceStream)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
