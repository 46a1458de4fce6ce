package request

// QuoteAPIKey is the body for PUT /api/system/quote-key.
type QuoteAPIKey struct {
	APIKey string `json:"apiKey"`
}
