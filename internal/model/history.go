package model

import "time"

const defaultHistoryCap = 60

// ProbePoint is one probe cycle reduced to the values the console charts.
type ProbePoint struct {
	Timestamp    time.Time
	AvgLatencyMs float64
	MaxLatencyMs float64
	Reachable    int
}

// Series selects a ProbePoint field.
type Series int

const (
	SeriesAvgLatency Series = iota
	SeriesMaxLatency
	SeriesReachable
)

// ProbeHistory is a fixed-size ring buffer of ProbePoints.
// When the buffer is full, new pushes overwrite the oldest entry.
type ProbeHistory struct {
	buf  []ProbePoint
	head int // next write position
	size int
}

// NewProbeHistory creates a ProbeHistory with the given capacity.
// If capacity <= 0, 60 is used.
func NewProbeHistory(capacity int) *ProbeHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &ProbeHistory{buf: make([]ProbePoint, capacity)}
}

// PointFromSummary converts a summary taken at ts.
func PointFromSummary(ts time.Time, s ProbeSummary) ProbePoint {
	return ProbePoint{
		Timestamp:    ts,
		AvgLatencyMs: float64(s.AvgLatency) / float64(time.Millisecond),
		MaxLatencyMs: float64(s.MaxLatency) / float64(time.Millisecond),
		Reachable:    s.Reachable,
	}
}

func (h *ProbeHistory) Push(p ProbePoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

func (h *ProbeHistory) Len() int {
	return h.size
}

func (h *ProbeHistory) Clear() {
	h.head = 0
	h.size = 0
}

// Values returns the selected series oldest first.
func (h *ProbeHistory) Values(s Series) []float64 {
	out := make([]float64, h.size)
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		p := h.buf[(start+i)%len(h.buf)]
		switch s {
		case SeriesAvgLatency:
			out[i] = p.AvgLatencyMs
		case SeriesMaxLatency:
			out[i] = p.MaxLatencyMs
		case SeriesReachable:
			out[i] = float64(p.Reachable)
		}
	}
	return out
}
