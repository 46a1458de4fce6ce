package testutil

import (
	"database/sql"
	"testing"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/alphavantage"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
)

func NewTestQuoteService(t *testing.T, db *sql.DB, client alphavantage.Client) *service.QuoteService {
	t.Helper()

	quoteRepo := repository.NewQuoteRepository(db)

	return service.NewQuoteService(quoteRepo, client)
}

func NewTestValuationService(t *testing.T, db *sql.DB, client alphavantage.Client) *service.ValuationService {
	t.Helper()

	return service.NewValuationService(NewTestQuoteService(t, db, client))
}

func NewTestPortfolioService(t *testing.T, db *sql.DB, client alphavantage.Client) *service.PortfolioService {
	t.Helper()

	holdingRepo := repository.NewHoldingRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	return service.NewPortfolioService(
		db,
		holdingRepo,
		tradeRepo,
		NewTestValuationService(t, db, client),
		service.NewRebalanceService(),
	)
}

// TestFernetKey is a fixed fernet key for settings tests, base64 of 32 zero
// bytes. Never used outside tests.
const TestFernetKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func NewTestSettingsService(t *testing.T, db *sql.DB, envAPIKey string) *service.SettingsService {
	t.Helper()

	settingRepo := repository.NewSettingRepository(db)

	settingsService, err := service.NewSettingsService(settingRepo, envAPIKey, TestFernetKey)
	if err != nil {
		t.Fatalf("Failed to create settings service: %v", err)
	}
	return settingsService
}
