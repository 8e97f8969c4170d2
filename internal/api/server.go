// Package api provides the HTTP API server and handlers for the Simmer application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/simmerapp/simmer-server/internal/config"
	"github.com/simmerapp/simmer-server/internal/media/images"
	"github.com/simmerapp/simmer-server/internal/search"
	"github.com/simmerapp/simmer-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	search   *search.RecipeIndex
	images   *images.Storage
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	// Rate limiter for credential endpoints, keyed by client IP.
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// The search index and image storage may be nil; the routes that need
// them respond with errors instead.
func NewServer(
	cfg *config.Config,
	st store.Store,
	services *Services,
	searchIndex *search.RecipeIndex,
	imageStorage *images.Storage,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Resolve users from Bearer tokens before huma sees the request.
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig(cfg.Server.Name+" API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		search:   searchIndex,
		images:   imageStorage,
		router:   router,
		api:      humaAPI,
		logger:   logger,
		authRateLimiter: NewRateLimiter(
			cfg.RateLimit.AuthAttempts,
			cfg.RateLimit.AuthInterval,
			cfg.RateLimit.AuthBurst,
		),
	}

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
