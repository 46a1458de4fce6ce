package repository

import (
	"fmt"
	"time"
)

// timeLayout is the format timestamps are stored in; lexicographic order on
// stored values matches chronological order.
const timeLayout = time.RFC3339Nano

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp in RFC3339 or "2006-01-02" format.
func parseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(timeLayout, str)
	if err != nil {
		returnTime, err = time.Parse("2006-01-02", str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}
