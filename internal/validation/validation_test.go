package validation_test

import (
	"testing"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/validation"
)

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "GOOG", "BRK.B", "A", "ABC123"}
	for _, symbol := range valid {
		if err := validation.ValidateSymbol(symbol); err != nil {
			t.Errorf("Expected %q to be valid, got %v", symbol, err)
		}
	}

	invalid := []string{"", "aapl", "TOOLONGSYMBOL", "BAD SYMBOL", "AB-C", "A;DROP"}
	for _, symbol := range invalid {
		if err := validation.ValidateSymbol(symbol); err == nil {
			t.Errorf("Expected %q to be rejected", symbol)
		}
	}
}

func TestValidatePercentage(t *testing.T) {
	valid := []float64{0.1, 22, 100}
	for _, pct := range valid {
		if err := validation.ValidatePercentage(pct); err != nil {
			t.Errorf("Expected %v to be valid, got %v", pct, err)
		}
	}

	invalid := []float64{0, -1, 100.01}
	for _, pct := range invalid {
		if err := validation.ValidatePercentage(pct); err == nil {
			t.Errorf("Expected %v to be rejected", pct)
		}
	}
}

func TestValidateQuantity(t *testing.T) {
	if err := validation.ValidateQuantity(0); err != nil {
		t.Errorf("Expected 0 to be valid, got %v", err)
	}
	if err := validation.ValidateQuantity(100); err != nil {
		t.Errorf("Expected 100 to be valid, got %v", err)
	}
	if err := validation.ValidateQuantity(-1); err == nil {
		t.Error("Expected -1 to be rejected")
	}
}
