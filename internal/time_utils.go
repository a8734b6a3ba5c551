package internal

import "time"

// DisplayTimeFormat is the standard time format used across the application
const DisplayTimeFormat = "2006-01-02 15:04:05"

// FormatLocal formats t in the local zone with the display format.
func FormatLocal(t time.Time) string {
	return t.Local().Format(DisplayTimeFormat)
}

// FormatTimestamp parses an RFC 3339 timestamp from the API and formats it for display.
// Unparseable input is returned unchanged.
func FormatTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return FormatLocal(t)
}
