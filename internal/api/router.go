// Package api exposes the issue listing and mutation operations over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/tracker/internal/auth"
	"github.com/mesh-intelligence/tracker/internal/issues"
	"github.com/mesh-intelligence/tracker/internal/metrics"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Issues types.IssueStore
	Users  types.UserStore
	Auth   *auth.Authenticator
	Health Pinger

	// RateLimit bounds mutating requests per second; zero disables it.
	RateLimit rate.Limit
	Burst     int
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(deps Deps, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Metrics)
	r.Use(Recovery(logger))
	r.Use(deps.Auth.Middleware)

	healthH := NewHealthHandler(deps.Health, logger)
	issueH := NewIssueHandler(
		issues.NewResolver(deps.Issues),
		issues.NewHandler(deps.Issues, deps.Auth, logger),
		deps.Issues,
		logger,
	)
	userH := NewUserHandler(deps.Users, logger)

	r.Get("/health", healthH.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/users", userH.List)

	r.Route("/issues", func(r chi.Router) {
		r.Get("/", issueH.List)
		r.Get("/{id}", issueH.Get)

		// Authentication is enforced by the mutation pipeline itself so
		// that it is checked before validation and existence. Only signed-in
		// requests spend rate limit tokens; the rest reach the 401 gate.
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(deps.RateLimit, deps.Burst, signedIn(deps.Auth)))
			r.Post("/", issueH.Create)
			r.Patch("/{id}", issueH.Update)
			r.Delete("/{id}", issueH.Delete)
		})
	})

	return r
}

func signedIn(a *auth.Authenticator) func(*http.Request) bool {
	return func(r *http.Request) bool {
		s, err := a.CurrentSession(r.Context())
		return err == nil && s != nil
	}
}
