package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/alphavantage"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
)

// QuoteService resolves symbols to their latest closing price.
//
// Resolution prefers the in-memory session cache, then the persisted raw
// payload in the quote_cache table, then a live fetch from the quote source.
// Once a symbol resolves it is never re-fetched within the session unless
// explicitly invalidated.
//
// Concurrent resolutions for the same symbol share a single flight: the first
// caller performs the store read / live fetch, the rest await its result.
type QuoteService struct {
	quoteRepo *repository.QuoteRepository
	client    alphavantage.Client

	group singleflight.Group

	mu     sync.Mutex
	quotes map[string]model.Quote
}

// NewQuoteService creates a new QuoteService with the provided repository and
// quote-source client.
func NewQuoteService(quoteRepo *repository.QuoteRepository, client alphavantage.Client) *QuoteService {
	return &QuoteService{
		quoteRepo: quoteRepo,
		client:    client,
		quotes:    make(map[string]model.Quote),
	}
}

// ResolveQuote returns the latest closing price for a symbol.
//
// Any failure to produce a parseable payload from both the persisted store
// and the live source wraps apperrors.ErrQuoteUnavailable; a single
// unavailable quote aborts the valuation pass that requested it.
func (s *QuoteService) ResolveQuote(ctx context.Context, symbol string) (model.Quote, error) {
	s.mu.Lock()
	if quote, ok := s.quotes[symbol]; ok {
		s.mu.Unlock()
		return quote, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(symbol, func() (any, error) {
		return s.resolveUncached(ctx, symbol)
	})
	if err != nil {
		return model.Quote{}, err
	}

	return v.(model.Quote), nil
}

// resolveUncached runs inside the single flight for a symbol: persisted store
// first, live fetch second, memoizing whichever succeeds.
func (s *QuoteService) resolveUncached(ctx context.Context, symbol string) (model.Quote, error) {
	// A concurrent flight may have resolved the symbol between the fast-path
	// check and Do coalescing this call.
	s.mu.Lock()
	if quote, ok := s.quotes[symbol]; ok {
		s.mu.Unlock()
		return quote, nil
	}
	s.mu.Unlock()

	cached, err := s.quoteRepo.Get(ctx, symbol)
	if err == nil {
		closeValue, date, parseErr := alphavantage.ParseLatestClose(cached.Payload)
		if parseErr == nil {
			return s.memoize(symbol, closeValue, date), nil
		}
		// An unparseable persisted payload (e.g. a stored rate-limit message)
		// falls through to a live fetch that overwrites it.
		log.Printf("persisted quote payload for %s unparseable, refetching: %v", symbol, parseErr)
	} else if !errors.Is(err, apperrors.ErrQuoteNotCached) {
		log.Printf("persisted quote read for %s failed, falling back to live fetch: %v", symbol, err)
	}

	payload, err := s.client.QueryDailySeries(ctx, symbol)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: live fetch for %s failed: %v", apperrors.ErrQuoteUnavailable, symbol, err)
	}

	closeValue, date, err := alphavantage.ParseLatestClose(payload)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: response for %s: %v", apperrors.ErrQuoteUnavailable, symbol, err)
	}

	// Persist failures are non-fatal: the in-memory value stays valid for the
	// rest of the session.
	if err := s.quoteRepo.Set(ctx, symbol, payload); err != nil {
		log.Printf("failed to persist quote payload for %s: %v", symbol, err)
	}

	return s.memoize(symbol, closeValue, date), nil
}

func (s *QuoteService) memoize(symbol string, closeValue float64, date time.Time) model.Quote {
	quote := model.Quote{
		Symbol:     symbol,
		CloseValue: closeValue,
		Date:       date,
	}

	s.mu.Lock()
	s.quotes[symbol] = quote
	s.mu.Unlock()

	return quote
}

// Invalidate removes the given symbols from both the in-memory cache and the
// persisted store, forcing the next resolution to hit the live source. With no
// symbols it invalidates every known entry; delete-all is delete-by-key over
// the union of persisted and in-memory symbols.
func (s *QuoteService) Invalidate(ctx context.Context, symbols ...string) error {
	if len(symbols) == 0 {
		persisted, err := s.quoteRepo.ListSymbols(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrFailedToInvalidateCache, err)
		}

		known := make(map[string]bool, len(persisted))
		for _, symbol := range persisted {
			known[symbol] = true
		}
		s.mu.Lock()
		for symbol := range s.quotes {
			known[symbol] = true
		}
		s.mu.Unlock()

		symbols = make([]string, 0, len(known))
		for symbol := range known {
			symbols = append(symbols, symbol)
		}
	}

	for _, symbol := range symbols {
		if err := s.quoteRepo.Delete(ctx, symbol); err != nil {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrFailedToInvalidateCache, symbol, err)
		}
		s.mu.Lock()
		delete(s.quotes, symbol)
		s.mu.Unlock()
	}

	return nil
}

// ResolvedQuotes returns a copy of the in-memory cache: every quote resolved
// (and not invalidated) during this session.
func (s *QuoteService) ResolvedQuotes() map[string]model.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make(map[string]model.Quote, len(s.quotes))
	for symbol, quote := range s.quotes {
		quotes[symbol] = quote
	}
	return quotes
}
