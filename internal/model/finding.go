package model

// FindingSeverity indicates how unusual a probe finding is.
type FindingSeverity int

const (
	SeverityNormal FindingSeverity = iota
	SeverityWarning
	SeverityCritical
)

// FindingCategory groups related findings.
type FindingCategory int

const (
	CategoryReachability FindingCategory = iota
	CategoryDiscovery
	CategoryLatency
)

// Finding is one observation derived from a probe snapshot.
type Finding struct {
	Severity FindingSeverity
	Category FindingCategory
	NodeID   string
	Title    string
	Detail   string
}
