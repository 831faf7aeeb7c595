package client

import (
	"fmt"
	"time"

	"github.com/ganxiyun/es-testcluster/internal/api"
)

// Connection is one node in the client's pool.
type Connection struct {
	URL       string
	Dead      bool
	DeadSince time.Time
	Failures  int
}

// SniffedNode is one entry of a sniff response.
type SniffedNode struct {
	ID             string
	PublishAddress string
	URL            string
	Roles          []string
}

// ResponseError is returned for a status code >= 400 that the caller did not
// ask to ignore.
type ResponseError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func newResponseError(res *api.Response) *ResponseError {
	return &ResponseError{StatusCode: res.StatusCode, Body: res.Body, URL: res.URL}
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, truncate(e.Body, 200))
}
