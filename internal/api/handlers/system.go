package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService   *service.SystemService
	settingsService *service.SettingsService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService, settingsService *service.SettingsService) *SystemHandler {
	return &SystemHandler{
		systemService:   systemService,
		settingsService: settingsService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	// Check database health
	if err := h.systemService.CheckHealth(); err != nil {
		response := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	// System is healthy
	response := HealthResponse{
		Status:   "healthy",
		Database: "connected",
	}
	respondJSON(w, http.StatusOK, response)
}

// VersionResponse represents the version check response
type VersionResponse struct {
	AppVersion string `json:"app_version"`
}

// Version handles GET requests to retrieve the application version.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionResponse
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, VersionResponse{
		AppVersion: h.systemService.CheckVersion(),
	})
}

// SetQuoteAPIKey stores a new quote provider API key, encrypted at rest. The
// key takes effect on the next quote fetch without a restart.
func (h *SystemHandler) SetQuoteAPIKey(w http.ResponseWriter, r *http.Request) {
	var body request.QuoteAPIKey
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if body.APIKey == "" {
		response.RespondError(w, http.StatusBadRequest, "API key must not be empty", nil)
		return
	}

	if err := h.settingsService.SetQuoteAPIKey(r.Context(), body.APIKey); err != nil {
		response.RespondError(w, statusForError(err), "Failed to store API key", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "api key updated"})
}
