// Package api provides the HTTP API server and handlers for the ReadUp application.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/ratelimit"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/service"
	"github.com/listenupapp/readup-server/internal/validation"
)

// Store is the storage the handlers read directly.
type Store interface {
	Ping(ctx context.Context) error
	GetLibrary(ctx context.Context, id string) (*domain.Library, error)
}

// Services groups the business services used by the API server.
type Services struct {
	Books    *service.BookQueryService
	Progress *service.ReadProgressService
	Search   *service.SearchService
	Scanner  *scanner.Scanner
}

// Options tunes the HTTP layer.
type Options struct {
	Version     string
	CORSOrigins []string
	RateLimiter *ratelimit.KeyedRateLimiter // nil disables rate limiting
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	services  *Services
	router    chi.Router
	api       huma.API
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", UserIDHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	router.Use(userMiddleware)

	humaConfig := huma.DefaultConfig("ReadUp API", opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"user": {
			Type: "apiKey",
			In:   "header",
			Name: UserIDHeader,
		},
	}

	RegisterErrorHandler()

	s := &Server{
		store:     st,
		services:  services,
		router:    router,
		api:       humachi.New(router, humaConfig),
		limiter:   opts.RateLimiter,
		validator: validation.New(),
		logger:    logger,
	}

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerReadProgressRoutes()
	s.registerSearchRoutes()
	s.registerLibraryRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}
