package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/alphavantage"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/config"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/database"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Run migrations, including the seed portfolio on first start
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	holdingRepo := repository.NewHoldingRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	systemService := service.NewSystemService(db)
	// Create services
	settingsService, err := service.NewSettingsService(settingRepo, cfg.Quotes.APIKey, cfg.Quotes.FernetKey)
	if err != nil {
		log.Fatalf("Failed to create settings service: %v", err)
	}
	quoteClient := alphavantage.NewFinanceClient(func() (string, error) {
		return settingsService.QuoteAPIKey(context.Background())
	})
	quoteService := service.NewQuoteService(quoteRepo, quoteClient)
	valuationService := service.NewValuationService(quoteService)
	rebalanceService := service.NewRebalanceService()
	portfolioService := service.NewPortfolioService(
		db,
		holdingRepo,
		tradeRepo,
		valuationService,
		rebalanceService,
	)

	// Scheduled cache invalidation keeps closes from going stale; each tick
	// drops every cached quote so the next calculation fetches fresh data.
	if cfg.Quotes.RefreshEnabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Quotes.RefreshSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := quoteService.Invalidate(ctx); err != nil {
				log.Printf("Scheduled quote cache invalidation failed: %v", err)
				return
			}
			log.Println("Quote cache invalidated on schedule")
		})
		if err != nil {
			log.Fatalf("Invalid quote refresh schedule %q: %v", cfg.Quotes.RefreshSchedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create router
	router := api.NewRouter(systemService, settingsService, portfolioService, quoteService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
