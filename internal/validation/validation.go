// Package validation provides small input validators shared by the API layer.
package validation

import (
	"fmt"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
)

// ValidateSymbol checks that a ticker symbol is non-empty, at most 10
// characters, and made of uppercase letters, digits, or dots.
func ValidateSymbol(symbol string) error {
	if symbol == "" || len(symbol) > 10 {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidSymbol, symbol)
	}
	for _, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.':
		default:
			return fmt.Errorf("%w: %q", apperrors.ErrInvalidSymbol, symbol)
		}
	}
	return nil
}

// ValidatePercentage checks that a target allocation percentage is within
// (0, 100]. Allocations across symbols are deliberately not required to sum
// to 100.
func ValidatePercentage(percentage float64) error {
	if percentage <= 0 || percentage > 100 {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPercentage, percentage)
	}
	return nil
}

// ValidateQuantity checks that a share quantity is not negative.
func ValidateQuantity(quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrNegativeQuantity, quantity)
	}
	return nil
}
