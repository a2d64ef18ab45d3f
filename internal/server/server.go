package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/engine"
	"github.com/dmaranges/cryptopilot/internal/ledger"
	"github.com/dmaranges/cryptopilot/internal/ports"
)

// Book is the slice of the ledger the API exposes.
type Book interface {
	Portfolio(ctx context.Context) (domain.Portfolio, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Performance(ctx context.Context) (domain.PerformanceContext, error)
	OpenPosition(ctx context.Context, req ledger.OpenRequest) (domain.Position, error)
	ClosePosition(ctx context.Context, positionID string, closePrice decimal.Decimal) (domain.ClosedTrade, error)
	Reset(ctx context.Context, initialBalance decimal.Decimal) (domain.Portfolio, error)
}

// Cycler runs trading cycles on demand.
type Cycler interface {
	RunOnce(ctx context.Context) (*engine.CycleResult, error)
	UpdateOnce(ctx context.Context) ([]domain.ClosedTrade, error)
}

// Deps are the collaborators behind the API.
type Deps struct {
	Book     Book
	Cycler   Cycler
	Monitor  engine.MarketMonitor
	Analyzer ports.Analyzer
	Advisor  ports.Advisor
	Prices   ports.PriceProvider
}

// Server is the HTTP dashboard API.
type Server struct {
	router *chi.Mux
	server *http.Server
	deps   Deps
}

// New creates a Server listening on the given port.
func New(port int, deps Deps) *Server {
	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // cycle endpoints wait on the LLM
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(2 * time.Minute))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/prices", s.handlePrices)
		r.Get("/monitor", s.handleMonitor)
		r.Get("/analyze", s.handleAnalyze)
		r.Get("/recommend", s.handleRecommend)
		r.Post("/execute", s.handleExecute)

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.handlePortfolio)
			r.Get("/stats", s.handleStats)
			r.Post("/open", s.handleOpen)
			r.Post("/close", s.handleClose)
			r.Post("/update", s.handleUpdate)
			r.Post("/reset", s.handleReset)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until shutdown.
func (s *Server) Start() error {
	slog.Info("http server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
