package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ganxiyun/es-testcluster/internal/api"
)

// defaultMaxRetries applies when Config.MaxRetries is zero.
const defaultMaxRetries = 3

// ErrNoNodes is returned when the client has no connections to try.
var ErrNoNodes = errors.New("no nodes configured")

// Config holds configuration for Client.
type Config struct {
	// Nodes are base URLs such as http://127.0.0.1:9200.
	Nodes              []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
	// MaxRetries bounds how many extra nodes a request may fail over to.
	// Zero means the default of 3; a negative value disables failover.
	MaxRetries int
	Logger     logrus.FieldLogger
}

// Client is a pooled HTTP transport. Requests go round-robin over the
// connections that are alive, and fail over to the next one when a node
// cannot be reached or answers 502, 503 or 504.
type Client struct {
	http   *http.Client
	config Config
	log    logrus.FieldLogger

	mu    sync.Mutex
	conns []*Connection
	next  int
}

// New constructs a Client from the given config.
// Returns an error if no nodes are configured.
func New(cfg Config) (*Client, error) {
	if len(cfg.Nodes) == 0 {
		return nil, fmt.Errorf("New: %w", ErrNoNodes)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = defaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	c := &Client{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		config: cfg,
		log:    cfg.Logger.WithField("component", "client"),
	}
	c.setConnections(cfg.Nodes)
	return c, nil
}

// Perform sends req to the next alive node. Connection errors and
// 502/503/504 answers mark the node dead and move on to the next one, up to
// MaxRetries times. Statuses >= 400 that are not in opts.Ignore come back as
// a *ResponseError alongside the response.
func (c *Client) Perform(ctx context.Context, req *api.Request, opts api.Options) (*api.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		conn := c.pick()
		if conn == nil {
			return nil, fmt.Errorf("perform: %w", ErrNoNodes)
		}

		res, err := c.roundTrip(ctx, conn.URL, req, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("perform: %w", err)
			}
			c.markDead(conn)
			lastErr = err
			continue
		}

		if retryable(res.StatusCode) {
			c.markDead(conn)
			if attempt < c.config.MaxRetries {
				continue
			}
		} else {
			c.markAlive(conn)
		}
		return res, checkStatus(res, opts)
	}
	return nil, fmt.Errorf("perform: all attempts failed: %w", lastErr)
}

// PerformOn sends req to one node and bypasses the pool. The status code is
// not checked.
func (c *Client) PerformOn(ctx context.Context, baseURL string, req *api.Request) (*api.Response, error) {
	res, err := c.roundTrip(ctx, baseURL, req, api.Options{})
	if err != nil {
		return nil, fmt.Errorf("PerformOn %s: %w", baseURL, err)
	}
	return res, nil
}

// roundTrip performs a single request against baseURL.
// It sets Accept: application/json and Basic Auth if credentials are configured.
func (c *Client) roundTrip(ctx context.Context, baseURL string, req *api.Request, opts api.Options) (*api.Response, error) {
	target := strings.TrimRight(baseURL, "/") + req.Path
	if len(req.Querystring) > 0 {
		target += "?" + req.Querystring.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, vv := range opts.Headers {
		for _, v := range vv {
			httpReq.Header.Add(k, v)
		}
	}
	if c.config.Username != "" || c.config.Password != "" {
		httpReq.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	const maxResponseBytes = 32 * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024))
	}

	return &api.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Warnings:   req.Warnings,
		URL:        baseURL,
	}, nil
}

func encodeBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case nil:
		return nil, "", nil
	case string:
		if b == "" {
			return nil, "", nil
		}
		return strings.NewReader(b), "application/json", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func retryable(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func checkStatus(res *api.Response, opts api.Options) error {
	if res.StatusCode < 400 {
		return nil
	}
	for _, code := range opts.Ignore {
		if code == res.StatusCode {
			return nil
		}
	}
	return newResponseError(res)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
