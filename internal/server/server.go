package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/waihong/stocksim-be/internal/auth"
	"github.com/waihong/stocksim-be/internal/config"
	"github.com/waihong/stocksim-be/internal/http/handlers"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/middleware"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, svc *ledger.Service, log *logrus.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())

	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Router(svc, tokens, cfg.CORSOrigins, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Router assembles the route surface. Split out from New so tests can mount
// it on an httptest server.
func Router(svc *ledger.Service, tokens *auth.TokenManager, corsOrigins []string, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.NoStore)

	health := handlers.NewHealthHandler(time.Now())
	authHandler := handlers.NewAuthHandler(svc, tokens, log)
	tradeHandler := handlers.NewTradeHandler(svc, log)
	portfolioHandler := handlers.NewPortfolioHandler(svc, log)

	health.Register(r)
	authHandler.Register(r)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireIdentity(tokens))
		portfolioHandler.Register(pr)
		tradeHandler.Register(pr)
		authHandler.RegisterProtected(pr)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
