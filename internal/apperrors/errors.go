package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrSymbolNotFound indicates that a symbol lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrHoldingNotFound indicates that no holding exists for the given symbol.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrQuoteNotCached indicates that no persisted quote payload exists for the symbol.
	ErrQuoteNotCached = errors.New("quote not cached")

	// ErrAPIKeyNotConfigured indicates the quote provider API key has not been set up.
	ErrAPIKeyNotConfigured = errors.New("quote provider API key not configured")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrQuoteUnavailable indicates that a quote for a symbol could not be resolved
	// from the cache, the persisted store, or the live quote source. A single
	// unavailable quote aborts the valuation pass that requested it.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrCalculationInProgress indicates that a calculate or rebalance pass is
	// already running; position lists are owned exclusively by one pass at a time.
	ErrCalculationInProgress = errors.New("calculation already in progress")

	// ErrInvalidSymbol indicates a symbol is empty or not a valid ticker format.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrNegativeQuantity indicates a holding quantity has an invalid negative value.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")

	// ErrNegativeCash indicates a cash amount has an invalid negative value.
	ErrNegativeCash = errors.New("cash amount cannot be negative")

	// ErrInvalidPercentage indicates a target allocation percentage is out of range.
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. These errors indicate that an operation failed, but not due
// to missing entities or validation issues.
var (
	ErrFailedToRetrieveHoldings = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveTargets  = errors.New("failed to retrieve target allocations")
	ErrFailedToRetrieveTrades   = errors.New("failed to retrieve trade history")
	ErrFailedToPersistHoldings  = errors.New("failed to persist holdings")
	ErrFailedToPersistTargets   = errors.New("failed to persist target allocations")
	ErrFailedToPersistTrades    = errors.New("failed to persist trades")
	ErrFailedToInvalidateCache  = errors.New("failed to invalidate quote cache")
	ErrFailedToStoreAPIKey      = errors.New("failed to store API key")
)
