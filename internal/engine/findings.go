package engine

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ganxiyun/es-testcluster/internal/model"
)

// slowProbe is the root request latency above which a node is flagged.
const slowProbe = 250 * time.Millisecond

// CalcFindings lists what stands out in a snapshot: unreachable nodes,
// non-200 answers, slow nodes, and nodes whose sniff view is smaller than
// the set of reachable nodes (a partitioned view).
// Returns an empty (non-nil) slice when snap is nil.
func CalcFindings(snap *model.Snapshot) []model.Finding {
	result := []model.Finding{}
	if snap == nil {
		return result
	}
	sum := Summarize(snap)

	for _, r := range snap.Rows {
		switch {
		case !r.Reachable():
			result = append(result, model.Finding{
				Severity: model.SeverityCritical,
				Category: model.CategoryReachability,
				NodeID:   r.ID,
				Title:    "Node unreachable",
				Detail:   fmt.Sprintf("%s did not answer: %s", r.URL, r.Err),
			})
			continue
		case r.Status != http.StatusOK:
			result = append(result, model.Finding{
				Severity: model.SeverityWarning,
				Category: model.CategoryReachability,
				NodeID:   r.ID,
				Title:    fmt.Sprintf("Root returned %d", r.Status),
				Detail:   fmt.Sprintf("GET %s/ answered %d %s", r.URL, r.Status, http.StatusText(r.Status)),
			})
		}

		if r.SniffSize >= 0 && r.SniffSize < sum.Reachable {
			result = append(result, model.Finding{
				Severity: model.SeverityWarning,
				Category: model.CategoryDiscovery,
				NodeID:   r.ID,
				Title:    "Partial discovery view",
				Detail:   fmt.Sprintf("%s sniffs %d of %d reachable nodes", r.ID, r.SniffSize, sum.Reachable),
			})
		}

		if r.Latency > slowProbe {
			result = append(result, model.Finding{
				Severity: model.SeverityWarning,
				Category: model.CategoryLatency,
				NodeID:   r.ID,
				Title:    "Slow node",
				Detail:   fmt.Sprintf("%s took %s to answer GET /", r.ID, r.Latency.Round(time.Millisecond)),
			})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Severity > result[j].Severity
	})
	return result
}
