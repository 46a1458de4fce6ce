package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/alphavantage"
)

// MockAlphaVantageClient is a mock implementation of alphavantage.Client for
// testing. It returns predefined payloads instead of making actual API calls.
type MockAlphaVantageClient struct {
	// Payloads maps symbols to the raw payload returned for them
	Payloads map[string][]byte
	// MockError is the error to return from query methods
	MockError error
	// QueryCount tracks how many times QueryDailySeries was called
	QueryCount int
}

// NewMockAlphaVantageClient creates a new mock Alpha Vantage client with no
// payloads configured. Querying an unconfigured symbol returns an error, the
// same way the live API rejects an unknown ticker.
func NewMockAlphaVantageClient() *MockAlphaVantageClient {
	return &MockAlphaVantageClient{
		Payloads: map[string][]byte{},
	}
}

// QueryDailySeries mocks the daily series query with the configured payloads.
func (m *MockAlphaVantageClient) QueryDailySeries(_ context.Context, symbol string) ([]byte, error) {
	m.QueryCount++
	if m.MockError != nil {
		return nil, m.MockError
	}
	payload, ok := m.Payloads[symbol]
	if !ok {
		return nil, fmt.Errorf("no mock payload configured for %s", symbol)
	}
	return payload, nil
}

// WithError configures the mock to return the specified error.
func (m *MockAlphaVantageClient) WithError(err error) *MockAlphaVantageClient {
	m.MockError = err
	return m
}

// WithPayload configures the raw payload returned for a symbol.
func (m *MockAlphaVantageClient) WithPayload(symbol string, payload []byte) *MockAlphaVantageClient {
	m.Payloads[symbol] = payload
	return m
}

// WithClose configures a well-formed daily series payload for a symbol whose
// latest close is the given value, dated yesterday.
func (m *MockAlphaVantageClient) WithClose(symbol string, closeValue float64) *MockAlphaVantageClient {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)
	m.Payloads[symbol] = CreateDailySeriesPayload(symbol, closeValue, yesterday)
	return m
}

// CreateDailySeriesPayload creates a valid TIME_SERIES_DAILY payload with a
// single trading day whose close is the given value.
func CreateDailySeriesPayload(symbol string, closeValue float64, date time.Time) []byte {
	day := date.Format("2006-01-02")
	response := alphavantage.Response{
		MetaData: alphavantage.MetaData{
			Information:   "Daily Prices (open, high, low, close) and Volumes",
			Symbol:        symbol,
			LastRefreshed: day,
			OutputSize:    "Compact",
			TimeZone:      "US/Eastern",
		},
		TimeSeries: map[string]alphavantage.DailyRecord{
			day: {
				Open:   fmt.Sprintf("%.4f", closeValue-1),
				High:   fmt.Sprintf("%.4f", closeValue+1),
				Low:    fmt.Sprintf("%.4f", closeValue-2),
				Close:  fmt.Sprintf("%.4f", closeValue),
				Volume: "1000000",
			},
		},
	}

	payload, err := json.Marshal(response)
	if err != nil {
		panic(err) // static structure, cannot fail
	}
	return payload
}

// CreateRateLimitPayload creates the payload Alpha Vantage substitutes for
// the series when the request rate limit was hit. It parses as JSON but
// carries no time series.
func CreateRateLimitPayload() []byte {
	return []byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
}

// CreateErrorPayload creates the payload Alpha Vantage returns for an unknown
// symbol.
func CreateErrorPayload() []byte {
	return []byte(`{"Error Message": "Invalid API call. Please retry or visit the documentation."}`)
}
