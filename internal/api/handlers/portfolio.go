package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/validation"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// HoldingResponse represents one holding line in the portfolio get response
type HoldingResponse struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// Holdings gets the current holdings, including liquidated lines kept at quantity 0
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {

	holdings, err := h.portfolioService.GetHoldings(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to retrieve holdings",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	response := make([]HoldingResponse, len(holdings))
	for i, holding := range holdings {
		response[i] = HoldingResponse{
			Symbol:   holding.Symbol,
			Quantity: holding.Quantity,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Targets gets the desired weight per symbol
func (h *PortfolioHandler) Targets(w http.ResponseWriter, r *http.Request) {

	targets, err := h.portfolioService.GetTargetAllocations(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to retrieve target allocations",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, targets)
}

// SetTargets replaces the full target allocation with the request body's set
func (h *PortfolioHandler) SetTargets(w http.ResponseWriter, r *http.Request) {
	var body []request.TargetAllocation
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errorResponse := map[string]string{
			"error":  "Invalid request body",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	targets := make([]model.TargetAllocation, len(body))
	for i, t := range body {
		if err := validation.ValidateSymbol(t.Symbol); err != nil {
			errorResponse := map[string]string{
				"error":  "Invalid target allocation",
				"detail": err.Error(),
			}
			respondJSON(w, http.StatusBadRequest, errorResponse)
			return
		}
		if err := validation.ValidatePercentage(t.PercentageOfPortfolio); err != nil {
			errorResponse := map[string]string{
				"error":  "Invalid target allocation",
				"detail": err.Error(),
			}
			respondJSON(w, http.StatusBadRequest, errorResponse)
			return
		}
		targets[i] = model.TargetAllocation{
			Symbol:                t.Symbol,
			PercentageOfPortfolio: t.PercentageOfPortfolio,
		}
	}

	updated, err := h.portfolioService.SetTargetAllocations(r.Context(), targets)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to update target allocations",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Calculate values the current holdings against latest closes. Read-only:
// the response carries the valued positions and the overall market value.
func (h *PortfolioHandler) Calculate(w http.ResponseWriter, r *http.Request) {

	result, err := h.portfolioService.Calculate(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to calculate portfolio",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Rebalance runs the full rebalance cycle and persists the resulting holdings
// and trades
func (h *PortfolioHandler) Rebalance(w http.ResponseWriter, r *http.Request) {

	result, err := h.portfolioService.Rebalance(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to rebalance portfolio",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Reset restores the seeded original portfolio and returns it
func (h *PortfolioHandler) Reset(w http.ResponseWriter, r *http.Request) {

	holdings, err := h.portfolioService.ResetHoldings(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to reset holdings",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	response := make([]HoldingResponse, len(holdings))
	for i, holding := range holdings {
		response[i] = HoldingResponse{
			Symbol:   holding.Symbol,
			Quantity: holding.Quantity,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// TradeResponse represents one executed trade in the trade history response
type TradeResponse struct {
	ID            string  `json:"id"`
	RunID         string  `json:"runId"`
	Symbol        string  `json:"symbol"`
	DeltaQuantity int64   `json:"deltaQuantity"`
	CloseValue    float64 `json:"closeValue"`
	ExecutedAt    string  `json:"executedAt"`
}

// Trades gets the trade history, most recent run first
func (h *PortfolioHandler) Trades(w http.ResponseWriter, r *http.Request) {

	trades, err := h.portfolioService.GetTrades(r.Context())
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to retrieve trade history",
			"detail": err.Error(),
		}
		respondJSON(w, statusForError(err), errorResponse)
		return
	}

	response := make([]TradeResponse, len(trades))
	for i, t := range trades {
		response[i] = TradeResponse{
			ID:            t.ID,
			RunID:         t.RunID,
			Symbol:        t.Symbol,
			DeltaQuantity: t.DeltaQuantity,
			CloseValue:    t.CloseValue,
			ExecutedAt:    t.ExecutedAt.Format(time.RFC3339),
		}
	}

	respondJSON(w, http.StatusOK, response)
}
