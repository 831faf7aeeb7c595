package tui

import (
	"time"

	"github.com/ganxiyun/es-testcluster/internal/model"
)

// SnapshotMsg delivers successful probe results to the console.
type SnapshotMsg struct {
	Snapshot *model.Snapshot
	Summary  model.ProbeSummary
	Findings []model.Finding
}

// FetchErrorMsg signals a probe failure.
type FetchErrorMsg struct{ Err error }

// TickMsg triggers the next scheduled probe.
type TickMsg time.Time

// KillResultMsg reports the outcome of a kill request.
type KillResultMsg struct {
	ID  string
	Err error
}

// SpawnResultMsg reports the outcome of a spawn request.
type SpawnResultMsg struct {
	ID  string
	Err error
}
