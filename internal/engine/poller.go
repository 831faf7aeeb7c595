package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ganxiyun/es-testcluster/internal/api"
	"github.com/ganxiyun/es-testcluster/internal/client"
	"github.com/ganxiyun/es-testcluster/internal/model"
	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

// maxConcurrentProbes bounds how many nodes are probed at once.
const maxConcurrentProbes = 8

// Prober sends one request to one node. *client.Client implements it.
type Prober interface {
	PerformOn(ctx context.Context, baseURL string, req *api.Request) (*api.Response, error)
}

var (
	rootRequest  = mustRequest(api.Info(nil))
	sniffRequest = mustRequest(api.NodesInfo(nil))
)

// mustRequest panics if a fixed request cannot be built.
func mustRequest(req *api.Request, err error) *api.Request {
	if err != nil {
		panic(fmt.Sprintf("engine: build probe request: %v", err))
	}
	return req
}

// ProbeAll probes every node concurrently: GET / for status and latency,
// then the sniff endpoint for the size of the node's view of the cluster.
// A node that cannot be reached becomes a row with Err set. ProbeAll only
// fails when ctx is done.
func ProbeAll(ctx context.Context, p Prober, nodes []testcluster.Node) (*model.Snapshot, error) {
	rows := make([]model.NodeRow, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)
	for i, n := range nodes {
		g.Go(func() error {
			rows[i] = probeNode(gctx, p, n)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ProbeAll: %w", err)
	}

	return &model.Snapshot{
		Rows:      rows,
		FetchedAt: time.Now(),
	}, nil
}

func probeNode(ctx context.Context, p Prober, n testcluster.Node) model.NodeRow {
	row := model.NodeRow{
		ID:             n.ID,
		URL:            n.URL,
		PublishAddress: n.PublishAddress,
		BootedAt:       n.BootedAt,
		SniffSize:      -1,
	}

	start := time.Now()
	res, err := p.PerformOn(ctx, n.URL, rootRequest)
	row.Latency = time.Since(start)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	row.Status = res.StatusCode

	res, err = p.PerformOn(ctx, n.URL, sniffRequest)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	if nodes, err := client.ParseSniff(res.Body); err == nil {
		row.SniffSize = len(nodes)
	}
	return row
}
