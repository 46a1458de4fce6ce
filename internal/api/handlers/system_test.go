package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/handlers"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/testutil"
)

// TestSystemHandler_Health tests the health endpoint.
func TestSystemHandler_Health(t *testing.T) {
	t.Run("reports healthy with a live database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewSystemHandler(
			service.NewSystemService(db),
			testutil.NewTestSettingsService(t, db, ""),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		rec := httptest.NewRecorder()
		handler.Health(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var response handlers.HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Status != "healthy" || response.Database != "connected" {
			t.Errorf("Expected healthy/connected, got %+v", response)
		}
	})

	t.Run("reports unhealthy when the database is gone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		db.Close()

		handler := handlers.NewSystemHandler(
			service.NewSystemService(db),
			testutil.NewTestSettingsService(t, db, ""),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		rec := httptest.NewRecorder()
		handler.Health(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expected 503, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

// TestSystemHandler_Version tests the version endpoint.
func TestSystemHandler_Version(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewSystemHandler(
		service.NewSystemService(db),
		testutil.NewTestSettingsService(t, db, ""),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/system/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response handlers.VersionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.AppVersion == "" {
		t.Error("Expected a non-empty app version")
	}
}

// TestSystemHandler_SetQuoteAPIKey tests storing a new quote provider key.
func TestSystemHandler_SetQuoteAPIKey(t *testing.T) {
	t.Run("stores the key for future fetches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		settingsService := testutil.NewTestSettingsService(t, db, "")
		handler := handlers.NewSystemHandler(service.NewSystemService(db), settingsService)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/system/quote-key",
			request.QuoteAPIKey{APIKey: "fresh-key"})
		rec := httptest.NewRecorder()
		handler.SetQuoteAPIKey(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		key, err := settingsService.QuoteAPIKey(context.Background())
		if err != nil {
			t.Fatalf("QuoteAPIKey() returned unexpected error: %v", err)
		}
		if key != "fresh-key" {
			t.Errorf("Expected stored key back, got %q", key)
		}
	})

	t.Run("rejects an empty key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewSystemHandler(
			service.NewSystemService(db),
			testutil.NewTestSettingsService(t, db, ""),
		)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/system/quote-key",
			request.QuoteAPIKey{APIKey: ""})
		rec := httptest.NewRecorder()
		handler.SetQuoteAPIKey(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
