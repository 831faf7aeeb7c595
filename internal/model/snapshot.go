package model

import "time"

// Snapshot holds the results of one probe cycle across every live node.
type Snapshot struct {
	ClusterID   int64
	Partitioned bool
	Rows        []NodeRow
	FetchedAt   time.Time
}

// NodeRow holds display-ready probe data for a single node.
type NodeRow struct {
	ID             string
	URL            string
	PublishAddress string
	BootedAt       time.Time

	// Status is the HTTP status of GET /, or 0 when the node did not answer.
	Status  int
	Latency time.Duration
	// SniffSize is how many nodes this node reports in its sniff response,
	// or -1 when the sniff request failed.
	SniffSize int
	Err       string
}

// Reachable reports whether the node answered the root request.
func (r NodeRow) Reachable() bool {
	return r.Status != 0 && r.Err == ""
}

// ProbeSummary aggregates one snapshot.
type ProbeSummary struct {
	Nodes      int
	Reachable  int
	AvgLatency time.Duration
	MaxLatency time.Duration
	MinSniff   int
	MaxSniff   int
}
