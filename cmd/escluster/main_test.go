package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

// chdirEmpty keeps a stray escluster.yaml out of the test.
func chdirEmpty(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSet   []string
		wantError bool
	}{
		{name: "no flags"},
		{name: "nodes", args: []string{"-nodes", "3"}, wantSet: []string{"nodes"}},
		{name: "several", args: []string{"-headless", "-partitioned", "-interval", "5s"}, wantSet: []string{"headless", "partitioned", "interval"}},
		{name: "bad int", args: []string{"-nodes", "many"}, wantError: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantError: true},
		{name: "positional", args: []string{"extra"}, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args, io.Discard)
			if tt.wantError {
				if err == nil {
					t.Fatalf("parseFlags(%v) expected error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags(%v): %v", tt.args, err)
			}
			if len(f.set) != len(tt.wantSet) {
				t.Errorf("set = %v, want %v", f.set, tt.wantSet)
			}
			for _, name := range tt.wantSet {
				if !f.set[name] {
					t.Errorf("flag %q not recorded as set", name)
				}
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr.String(), "usage: escluster") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestResolveConfigPrecedence(t *testing.T) {
	chdirEmpty(t)
	t.Setenv("ESCLUSTER_NODES", "6")
	t.Setenv("ESCLUSTER_LOG_LEVEL", "warn")
	t.Setenv("ESCLUSTER_PARTITIONED", "true")

	tests := []struct {
		name        string
		args        []string
		wantNodes   int
		wantLevel   string
		partitioned bool
	}{
		{"env only", nil, 6, "warn", true},
		{"flag beats env", []string{"-nodes", "2", "-log-level", "debug"}, 2, "debug", true},
		{"explicit false flag beats env", []string{"-partitioned=false"}, 6, "warn", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args, io.Discard)
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			cfg, err := resolveConfig(f)
			if err != nil {
				t.Fatalf("resolveConfig: %v", err)
			}
			if cfg.Cluster.Nodes != tt.wantNodes {
				t.Errorf("Nodes = %d, want %d", cfg.Cluster.Nodes, tt.wantNodes)
			}
			if cfg.Log.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Log.Level, tt.wantLevel)
			}
			if cfg.Cluster.Partitioned != tt.partitioned {
				t.Errorf("Partitioned = %v, want %v", cfg.Cluster.Partitioned, tt.partitioned)
			}
		})
	}
}

func TestResolveConfigRejectsNegativeNodes(t *testing.T) {
	chdirEmpty(t)
	f, err := parseFlags([]string{"-nodes", "-1"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if _, err := resolveConfig(f); err == nil {
		t.Error("expected an error for -nodes -1")
	}
}

func TestPrintNodes(t *testing.T) {
	var buf bytes.Buffer
	printNodes(&buf, []testcluster.Node{
		{ID: "node0", URL: "http://127.0.0.1:40001"},
		{ID: "node1", URL: "http://127.0.0.1:40002"},
	})
	want := "node0 http://127.0.0.1:40001\nnode1 http://127.0.0.1:40002\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

// syncBuffer is a bytes.Buffer safe to read while run writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunHeadless(t *testing.T) {
	chdirEmpty(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-headless", "-nodes", "2", "-log-level", "error"}, &stdout, io.Discard)
	}()

	var lines []string
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		lines = strings.Split(strings.TrimSpace(stdout.String()), "\n")
		if len(lines) == 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(lines) != 2 {
		t.Fatalf("printed %q, want two node lines", stdout.String())
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 2 * time.Second}
	var urls []string
	for i, line := range lines {
		id, url, ok := strings.Cut(line, " ")
		if !ok || id != []string{"node0", "node1"}[i] {
			t.Fatalf("line %d = %q", i, line)
		}
		urls = append(urls, url)
		res, err := client.Get(url + "/")
		if err != nil {
			t.Fatalf("GET %s: %v", url, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", url, res.StatusCode)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	for _, url := range urls {
		if _, err := client.Get(url + "/"); err == nil {
			t.Errorf("%s still answers after shutdown", url)
		}
	}
}
