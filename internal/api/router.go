package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/config"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	settingsService *service.SettingsService,
	portfolioService *service.PortfolioService,
	quoteService *service.QuoteService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService, settingsService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Put("/quote-key", systemHandler.SetQuoteAPIKey)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			r.Get("/", portfolioHandler.Holdings)
			r.Get("/target", portfolioHandler.Targets)
			r.Put("/target", portfolioHandler.SetTargets)
			r.Post("/calculate", portfolioHandler.Calculate)
			r.Post("/rebalance", portfolioHandler.Rebalance)
			r.Post("/reset", portfolioHandler.Reset)
			r.Get("/trades", portfolioHandler.Trades)
		})

		r.Route("/quotes", func(r chi.Router) {
			quoteHandler := handlers.NewQuoteHandler(quoteService)
			r.Delete("/cache", quoteHandler.InvalidateCache)
			r.Delete("/cache/{symbol}", quoteHandler.InvalidateSymbol)
		})
	})

	return r
}
