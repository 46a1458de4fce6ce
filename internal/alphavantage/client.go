package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client defines the interface for fetching quote data from Alpha Vantage.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	QueryDailySeries(ctx context.Context, symbol string) ([]byte, error)
}

// FinanceClient provides methods for fetching financial data from the Alpha
// Vantage API. It wraps an HTTP client and returns raw response payloads so
// callers can persist them unmodified and re-parse on later reads.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     func() (string, error)
}

// NewFinanceClient creates a new Alpha Vantage client with default HTTP
// settings. The apiKey function is called per request, so a key stored (and
// rotated) at runtime is picked up without rebuilding the client.
func NewFinanceClient(apiKey func() (string, error)) *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.alphavantage.co",
		apiKey:     apiKey,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests to point the client
// at an httptest server.
func (c *FinanceClient) WithBaseURL(baseURL string) *FinanceClient {
	c.baseURL = baseURL
	return c
}

// QueryDailySeries fetches the daily price series for a symbol and returns
// the raw JSON payload. The payload is not validated here beyond the HTTP
// status; parse failures surface when the caller extracts the latest close.
func (c *FinanceClient) QueryDailySeries(ctx context.Context, symbol string) ([]byte, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf(
		"%s/query?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(key),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage returned status %d for symbol %s", resp.StatusCode, symbol)
	}

	return data, nil
}

// ParseLatestClose extracts the closing price for the most recent trading
// date present in a raw TIME_SERIES_DAILY payload.
//
// The most recent date is taken from "Meta Data"."3. Last Refreshed"; when the
// market is open Alpha Vantage appends a time component, so only the date part
// is used to index the time series.
//
// A payload carrying "Error Message", "Note", or "Information" instead of a
// time series (unknown symbol, rate limit hit) is a parse failure, as is a
// missing date entry or an unparseable close value.
func ParseLatestClose(payload []byte) (closeValue float64, date time.Time, err error) {
	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return 0, time.Time{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}

	if msg := response.apiMessage(); msg != "" {
		return 0, time.Time{}, fmt.Errorf("api returned message instead of data: %s", msg)
	}

	if response.MetaData.LastRefreshed == "" {
		return 0, time.Time{}, fmt.Errorf("payload missing last refreshed date")
	}

	// "2026-08-28 16:00:01" during market hours, "2026-08-28" otherwise.
	lastRefreshed := strings.SplitN(response.MetaData.LastRefreshed, " ", 2)[0]

	record, ok := response.TimeSeries[lastRefreshed]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("no time series entry for date %s", lastRefreshed)
	}

	closeValue, err = strconv.ParseFloat(record.Close, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("could not parse close value %q: %w", record.Close, err)
	}

	date, err = time.ParseInLocation("2006-01-02", lastRefreshed, time.UTC)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("could not parse date %q: %w", lastRefreshed, err)
	}

	return closeValue, date, nil
}

// apiMessage returns the first non-empty informational message Alpha Vantage
// substitutes for price data, or "" when the payload looks like real data.
func (r *Response) apiMessage() string {
	switch {
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Note != "":
		return r.Note
	case r.Information != "":
		return r.Information
	}
	return ""
}
