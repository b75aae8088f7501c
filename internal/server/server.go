// Package server exposes the qualification pipeline over HTTP: JSON APIs
// behind JWT auth and a server-sent-events stream for pipeline progress.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/enriquecapellan/ai-qualifier-be/internal/auth"
	"github.com/enriquecapellan/ai-qualifier-be/internal/company"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/progress"
	"github.com/enriquecapellan/ai-qualifier-be/internal/prospect"
)

// Server wires the services into an HTTP handler.
type Server struct {
	auth           *auth.Service
	companies      *company.Service
	icps           *icp.Service
	prospects      *prospect.Service
	hub            *progress.Hub
	allowedOrigins []string
}

// New creates a Server. allowedOrigins configures CORS; empty means any
// origin.
func New(authSvc *auth.Service, companies *company.Service, icps *icp.Service, prospects *prospect.Service, hub *progress.Hub, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{
		auth:           authSvc,
		companies:      companies,
		icps:           icps,
		prospects:      prospects,
		hub:            hub,
		allowedOrigins: allowedOrigins,
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.With(s.auth.Middleware).Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Get("/events", s.handleEvents)

			r.Route("/companies", func(r chi.Router) {
				r.Post("/", s.handleCreateCompany)
				r.Get("/me", s.handleMyCompanies)
				r.Route("/{companyID}", func(r chi.Router) {
					r.Get("/", s.handleGetCompany)
					r.Post("/icp", s.handleGenerateICP)
					r.Get("/icp", s.handleGetICP)
					r.Post("/prospects/qualify", s.handleQualifyProspects)
					r.Get("/prospects", s.handleListProspects)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
