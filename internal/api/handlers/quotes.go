package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/service"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/validation"
)

// QuoteHandler handles quote cache HTTP requests
type QuoteHandler struct {
	quoteService *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// InvalidateCache drops every cached quote, in-memory and persisted, so the
// next calculate or rebalance fetches fresh closes
func (h *QuoteHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.quoteService.Invalidate(r.Context()); err != nil {
		response.RespondError(w, statusForError(err), "Failed to invalidate quote cache", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}

// InvalidateSymbol drops the cached quote for one symbol
func (h *QuoteHandler) InvalidateSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid symbol", err.Error())
		return
	}

	if err := h.quoteService.Invalidate(r.Context(), symbol); err != nil {
		response.RespondError(w, statusForError(err), "Failed to invalidate quote cache", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cache cleared", "symbol": symbol})
}
