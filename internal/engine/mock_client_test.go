package engine

import (
	"context"
	"errors"
	"net/http"

	"github.com/ganxiyun/es-testcluster/internal/api"
)

// MockProber implements Prober for testing.
type MockProber struct {
	PerformOnFn func(ctx context.Context, baseURL string, req *api.Request) (*api.Response, error)
}

func (m *MockProber) PerformOn(ctx context.Context, baseURL string, req *api.Request) (*api.Response, error) {
	if m.PerformOnFn != nil {
		return m.PerformOnFn(ctx, baseURL, req)
	}
	if req.Path == api.SniffPath {
		return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"nodes":{}}`), URL: baseURL}, nil
	}
	return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"hello":"world"}`), URL: baseURL}, nil
}

var errMockFailure = errors.New("mock failure")
