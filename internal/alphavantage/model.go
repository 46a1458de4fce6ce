package alphavantage

// Response represents the raw JSON response structure from the Alpha Vantage
// TIME_SERIES_DAILY API. The payload is keyed by oddly-numbered field names
// and by date strings, so the time series maps to Go maps rather than slices:
//
//   - "Meta Data"."3. Last Refreshed": timestamp of the most recent record,
//     date-only or "YYYY-MM-DD HH:MM:SS" depending on market hours
//   - "Time Series (Daily)": map of "YYYY-MM-DD" to one day's price record
//   - "Error Message" / "Note" / "Information": substituted for the series
//     when the symbol is unknown or the API rate limit was hit
type Response struct {
	MetaData     MetaData               `json:"Meta Data"`
	TimeSeries   map[string]DailyRecord `json:"Time Series (Daily)"`
	ErrorMessage string                 `json:"Error Message"`
	Note         string                 `json:"Note"`
	Information  string                 `json:"Information"`
}

// MetaData holds the header block of a TIME_SERIES_DAILY response.
type MetaData struct {
	Information   string `json:"1. Information"`
	Symbol        string `json:"2. Symbol"`
	LastRefreshed string `json:"3. Last Refreshed"`
	OutputSize    string `json:"4. Output Size"`
	TimeZone      string `json:"5. Time Zone"`
}

// DailyRecord represents a single trading day's price data. Alpha Vantage
// serializes all prices as strings.
type DailyRecord struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}
