package format

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FormatLatency formats a request latency.
// Values >= 1s are shown as seconds with 2 decimal places, smaller ones as
// ms with 2 decimal places. Negative values return "---".
func FormatLatency(d time.Duration) string {
	if d < 0 {
		return "---"
	}
	ms := float64(d) / float64(time.Millisecond)
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.2f ms", ms)
}

// FormatUptime formats how long a node has been up, e.g. "42s", "3m07s",
// "2h05m". The zero time returns "---".
func FormatUptime(since, now time.Time) string {
	if since.IsZero() {
		return "---"
	}
	d := now.Sub(since)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
	default:
		return fmt.Sprintf("%dh%02dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
}

// FormatStatus renders an HTTP status code with its text, e.g.
// "502 Bad Gateway". Zero means no answer and returns "---".
func FormatStatus(code int) string {
	if code == 0 {
		return "---"
	}
	if text := http.StatusText(code); text != "" {
		return strconv.Itoa(code) + " " + text
	}
	return strconv.Itoa(code)
}

// FormatCount formats a count that may be unknown (negative) as "---".
func FormatCount(n int) string {
	if n < 0 {
		return "---"
	}
	return FormatNumber(int64(n))
}

// FormatNumber formats an integer with locale-style comma separators.
// Example: 12345678 → "12,345,678".
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
