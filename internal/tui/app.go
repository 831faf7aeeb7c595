package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganxiyun/es-testcluster/internal/engine"
	"github.com/ganxiyun/es-testcluster/internal/model"
	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

// Cluster is the part of *testcluster.Cluster the console drives.
type Cluster interface {
	ID() int64
	Options() testcluster.Options
	Nodes() []testcluster.Node
	Kill(id string) error
	SpawnWait(ctx context.Context, id string) error
}

type connState int

const (
	stateConnected connState = iota
	stateDisconnected
)

// spawnTimeout bounds how long the console waits for a spawned node.
const spawnTimeout = 10 * time.Second

// App is the root Bubble Tea model for the cluster console.
type App struct {
	cluster      Cluster
	prober       engine.Prober
	pollInterval time.Duration

	// Probe state
	fetching bool // true while a fetchCmd goroutine is in-flight
	current  *model.Snapshot
	summary  model.ProbeSummary
	findings []model.Finding
	history  *model.ProbeHistory

	connState        connState
	consecutiveFails int
	lastError        error
	lastUpdated      time.Time

	table     nodeTable
	spawnSeq  int
	statusMsg string

	width, height int
	showHelp      bool
}

// NewApp creates a console for c that probes nodes through p every interval.
func NewApp(c Cluster, p engine.Prober, interval time.Duration) *App {
	app := &App{
		cluster:      c,
		prober:       p,
		pollInterval: interval,
		history:      model.NewProbeHistory(0),
		connState:    stateDisconnected,
		fetching:     true, // Init() always issues an immediate fetchCmd
		table:        newNodeTable(),
	}
	if c != nil {
		app.spawnSeq = len(c.Nodes())
	}
	return app
}

// Init implements tea.Model. Starts the first probe immediately on launch.
func (app *App) Init() tea.Cmd {
	return fetchCmd(app.cluster, app.prober, app.pollInterval)
}

// Update implements tea.Model.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case SnapshotMsg:
		app.fetching = false
		app.current = msg.Snapshot
		app.summary = msg.Summary
		app.findings = msg.Findings
		app.table.SetRows(msg.Snapshot.Rows)
		app.history.Push(model.PointFromSummary(msg.Snapshot.FetchedAt, msg.Summary))
		app.consecutiveFails = 0
		app.lastError = nil
		app.connState = stateConnected
		app.lastUpdated = msg.Snapshot.FetchedAt
		return app, tickCmd(app.pollInterval)

	case FetchErrorMsg:
		app.fetching = false
		app.consecutiveFails++
		app.lastError = msg.Err
		app.connState = stateDisconnected
		return app, tickCmd(backoffDuration(app.consecutiveFails))

	case TickMsg:
		return app, app.probeNow()

	case KillResultMsg:
		if msg.Err != nil {
			app.statusMsg = fmt.Sprintf("kill %s failed: %s", msg.ID, classifyError(msg.Err))
		} else {
			app.statusMsg = "killed " + msg.ID
		}
		return app, app.probeNow()

	case SpawnResultMsg:
		if msg.Err != nil {
			app.statusMsg = fmt.Sprintf("spawn %s failed: %s", msg.ID, classifyError(msg.Err))
		} else {
			app.statusMsg = "spawned " + msg.ID
		}
		return app, app.probeNow()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return app, app.probeNow()
		case key.Matches(msg, keys.Kill):
			row, ok := app.table.Selected()
			if !ok || app.cluster == nil {
				return app, nil
			}
			app.statusMsg = "killing " + row.ID + "..."
			return app, killCmd(app.cluster, row.ID)
		case key.Matches(msg, keys.Spawn):
			if app.cluster == nil {
				return app, nil
			}
			id := app.nextSpawnID()
			app.statusMsg = "spawning " + id + "..."
			return app, spawnCmd(app.cluster, id)
		case key.Matches(msg, keys.Up):
			app.table.MoveUp()
		case key.Matches(msg, keys.Down):
			app.table.MoveDown()
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		}
	}

	return app, nil
}

// View implements tea.Model. Renders the full console.
func (app *App) View() string {
	var parts []string

	if h := renderHeader(app); h != "" {
		parts = append(parts, h)
	}
	if l := renderLatencyCard(app); l != "" {
		parts = append(parts, l)
	}
	parts = append(parts, app.table.render(app.width, time.Now()))
	if f := renderFindings(app); f != "" {
		parts = append(parts, f)
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// probeNow starts a probe unless one is already in flight.
func (app *App) probeNow() tea.Cmd {
	if app.fetching {
		return nil
	}
	app.fetching = true
	return fetchCmd(app.cluster, app.prober, app.pollInterval)
}

// nextSpawnID returns the next "node<n>" id that is not currently live.
func (app *App) nextSpawnID() string {
	live := make(map[string]bool)
	for _, n := range app.cluster.Nodes() {
		live[n.ID] = true
	}
	for {
		id := fmt.Sprintf("node%d", app.spawnSeq)
		app.spawnSeq++
		if !live[id] {
			return id
		}
	}
}

// tickCmd schedules the next probe after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchCmd probes every live node and returns a SnapshotMsg or FetchErrorMsg.
func fetchCmd(c Cluster, p engine.Prober, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		if c == nil || p == nil {
			return FetchErrorMsg{Err: fmt.Errorf("no cluster attached")}
		}
		timeout := interval - 500*time.Millisecond
		if timeout < 500*time.Millisecond {
			timeout = 500 * time.Millisecond
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snap, err := engine.ProbeAll(ctx, p, c.Nodes())
		if err != nil {
			return FetchErrorMsg{Err: err}
		}
		snap.ClusterID = c.ID()
		snap.Partitioned = c.Options().ClusterPartiallySeparated

		return SnapshotMsg{
			Snapshot: snap,
			Summary:  engine.Summarize(snap),
			Findings: engine.CalcFindings(snap),
		}
	}
}

func killCmd(c Cluster, id string) tea.Cmd {
	return func() tea.Msg {
		return KillResultMsg{ID: id, Err: c.Kill(id)}
	}
}

func spawnCmd(c Cluster, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), spawnTimeout)
		defer cancel()
		return SpawnResultMsg{ID: id, Err: c.SpawnWait(ctx, id)}
	}
}

// backoffDuration returns min(2^fails * time.Second, 60*time.Second).
// At fails=1: 2s, fails=2: 4s, fails=3: 8s, ..., fails>=6: 60s.
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}
