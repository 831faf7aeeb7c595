package engine

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganxiyun/es-testcluster/internal/api"
	"github.com/ganxiyun/es-testcluster/internal/client"
	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

func testNodes(ids ...string) []testcluster.Node {
	out := make([]testcluster.Node, len(ids))
	for i, id := range ids {
		out[i] = testcluster.Node{ID: id, URL: "http://" + id, PublishAddress: id + ":9200"}
	}
	return out
}

func TestProbeAll_AllSuccess(t *testing.T) {
	mp := &MockProber{
		PerformOnFn: func(_ context.Context, baseURL string, req *api.Request) (*api.Response, error) {
			if req.Path == api.SniffPath {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte(
					`{"nodes":{"a":{"http":{"publish_address":"a:9200"}},"b":{"http":{"publish_address":"b:9200"}}}}`)}, nil
			}
			return &api.Response{StatusCode: http.StatusOK}, nil
		},
	}

	snap, err := ProbeAll(context.Background(), mp, testNodes("a", "b"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Rows, 2)
	assert.False(t, snap.FetchedAt.IsZero())

	for i, id := range []string{"a", "b"} {
		row := snap.Rows[i]
		assert.Equal(t, id, row.ID)
		assert.Equal(t, "http://"+id, row.URL)
		assert.Equal(t, http.StatusOK, row.Status)
		assert.Equal(t, 2, row.SniffSize)
		assert.Empty(t, row.Err)
	}
}

func TestProbeAll_NodeFailureIsARow(t *testing.T) {
	mp := &MockProber{
		PerformOnFn: func(_ context.Context, baseURL string, req *api.Request) (*api.Response, error) {
			if baseURL == "http://b" {
				return nil, errMockFailure
			}
			return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"nodes":{}}`)}, nil
		},
	}

	snap, err := ProbeAll(context.Background(), mp, testNodes("a", "b"))
	require.NoError(t, err)
	assert.True(t, snap.Rows[0].Reachable())
	assert.Equal(t, 0, snap.Rows[0].SniffSize)

	assert.False(t, snap.Rows[1].Reachable())
	assert.Equal(t, 0, snap.Rows[1].Status)
	assert.Equal(t, -1, snap.Rows[1].SniffSize)
	assert.Contains(t, snap.Rows[1].Err, "mock failure")
}

func TestProbeAll_BadSniffBody(t *testing.T) {
	mp := &MockProber{
		PerformOnFn: func(_ context.Context, _ string, req *api.Request) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusOK, Body: []byte(`nope`)}, nil
		},
	}
	snap, err := ProbeAll(context.Background(), mp, testNodes("a"))
	require.NoError(t, err)
	assert.True(t, snap.Rows[0].Reachable())
	assert.Equal(t, -1, snap.Rows[0].SniffSize)
}

func TestProbeAll_Empty(t *testing.T) {
	snap, err := ProbeAll(context.Background(), &MockProber{}, nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Rows)
}

func TestProbeAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mp := &MockProber{
		PerformOnFn: func(ctx context.Context, _ string, _ *api.Request) (*api.Response, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return &api.Response{StatusCode: http.StatusOK}, nil
		},
	}

	snap, err := ProbeAll(ctx, mp, testNodes("a", "b", "c"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestProbeAll_LiveCluster(t *testing.T) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cluster, err := testcluster.NewFactory().Start(ctx, &testcluster.Options{
		NumberOfNodes:             3,
		ClusterPartiallySeparated: true,
		Logger:                    quiet,
	})
	require.NoError(t, err)
	defer cluster.Shutdown()

	c, err := client.New(client.Config{Nodes: cluster.URLs(), Logger: quiet})
	require.NoError(t, err)

	nodes := cluster.Nodes()
	require.NoError(t, cluster.Kill("node2"))

	snap, err := ProbeAll(ctx, c, nodes)
	require.NoError(t, err)
	require.Len(t, snap.Rows, 3)

	assert.Equal(t, http.StatusOK, snap.Rows[0].Status)
	assert.Equal(t, 1, snap.Rows[0].SniffSize, "node2 is gone and node0 is partitioned away")
	assert.Equal(t, http.StatusOK, snap.Rows[1].Status)
	assert.False(t, snap.Rows[2].Reachable())
	assert.True(t, strings.Contains(snap.Rows[2].Err, "refused"), snap.Rows[2].Err)
}

func TestMustRequest(t *testing.T) {
	req := mustRequest(&api.Request{Method: http.MethodGet, Path: "/"}, nil)
	assert.Equal(t, "/", req.Path)
	assert.Equal(t, api.SniffPath, sniffRequest.Path)
	assert.Equal(t, http.MethodGet, rootRequest.Method)

	assert.Panics(t, func() { mustRequest(nil, errMockFailure) })
}
