package client

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

func TestSniff_ReplacesPool(t *testing.T) {
	cluster := startCluster(t, testcluster.Options{NumberOfNodes: 3})
	c := newTestClient(t, cluster.URLs()[2])

	nodes, err := c.Sniff(context.Background())
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(nodes))
	}
	for i, n := range nodes {
		if want := fmt.Sprintf("node%d", i); n.ID != want {
			t.Errorf("nodes[%d].ID = %q, want %q", i, n.ID, want)
		}
		if !reflect.DeepEqual(n.Roles, []string{"master", "data", "ingest"}) {
			t.Errorf("nodes[%d].Roles = %v", i, n.Roles)
		}
	}
	if got, want := c.URLs(), cluster.URLs(); !reflect.DeepEqual(got, want) {
		t.Errorf("pool = %v, want %v", got, want)
	}
}

func TestSniff_PartitionedClusterHidesFirstNode(t *testing.T) {
	cluster := startCluster(t, testcluster.Options{NumberOfNodes: 4, ClusterPartiallySeparated: true})
	urls := cluster.URLs()
	c := newTestClient(t, urls[0])

	if _, err := c.Sniff(context.Background()); err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got, want := c.URLs(), urls[1:]; !reflect.DeepEqual(got, want) {
		t.Errorf("pool = %v, want %v", got, want)
	}
}

func TestSniff_EmptyKeepsPool(t *testing.T) {
	cluster := startCluster(t, testcluster.Options{NumberOfNodes: 1, ClusterPartiallySeparated: true})
	c := newTestClient(t, cluster.URLs()...)

	nodes, err := c.Sniff(context.Background())
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("len(nodes) = %d, want 0", len(nodes))
	}
	if got := c.URLs(); !reflect.DeepEqual(got, cluster.URLs()) {
		t.Errorf("pool changed to %v", got)
	}
}

func TestParseSniff(t *testing.T) {
	body := []byte(`{"nodes":{
		"b":{"http":{"publish_address":"localhost/127.0.0.1:9201"},"roles":["data"]},
		"a":{"http":{"publish_address":"127.0.0.1:9200"},"roles":["master","data","ingest"]},
		"c":{"roles":["ingest"]}
	}}`)

	nodes, err := ParseSniff(body)
	if err != nil {
		t.Fatalf("ParseSniff: %v", err)
	}
	want := []SniffedNode{
		{ID: "b", PublishAddress: "localhost/127.0.0.1:9201", URL: "http://localhost:9201", Roles: []string{"data"}},
		{ID: "a", PublishAddress: "127.0.0.1:9200", URL: "http://127.0.0.1:9200", Roles: []string{"master", "data", "ingest"}},
	}
	if !reflect.DeepEqual(nodes, want) {
		t.Errorf("nodes = %+v, want %+v", nodes, want)
	}

	for _, bad := range []string{`not json`, `{"nodes":[]}`, `{}`} {
		if _, err := ParseSniff([]byte(bad)); err == nil {
			t.Errorf("ParseSniff(%s) should fail", bad)
		}
	}
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"127.0.0.1:9200", "127.0.0.1:9200"},
		{"localhost/127.0.0.1:9200", "localhost:9200"},
		{"es.local/[::1]:9200", "es.local:9200"},
		{"host/10.0.0.1", "host"},
	}
	for _, tt := range tests {
		if got := hostPort(tt.in); got != tt.want {
			t.Errorf("hostPort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
