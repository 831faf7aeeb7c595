package engine

import (
	"time"

	"github.com/ganxiyun/es-testcluster/internal/model"
)

// Summarize aggregates the rows of one snapshot. Latency is averaged over
// reachable nodes only, so a dead node does not drag the average to its
// dial timeout.
func Summarize(snap *model.Snapshot) model.ProbeSummary {
	if snap == nil {
		return model.ProbeSummary{}
	}

	sum := model.ProbeSummary{Nodes: len(snap.Rows), MinSniff: -1, MaxSniff: -1}
	var total time.Duration
	for _, r := range snap.Rows {
		if r.SniffSize >= 0 {
			if sum.MinSniff < 0 || r.SniffSize < sum.MinSniff {
				sum.MinSniff = r.SniffSize
			}
			if r.SniffSize > sum.MaxSniff {
				sum.MaxSniff = r.SniffSize
			}
		}
		if !r.Reachable() {
			continue
		}
		sum.Reachable++
		total += r.Latency
		if r.Latency > sum.MaxLatency {
			sum.MaxLatency = r.Latency
		}
	}
	if sum.Reachable > 0 {
		sum.AvgLatency = total / time.Duration(sum.Reachable)
	}
	return sum
}
