package testcluster

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// loopback is the only interface simulated nodes bind to.
const loopback = "127.0.0.1"

// Server is a single simulated node: an HTTP listener on an OS-assigned port.
type Server struct {
	srv      *http.Server
	port     int
	stopOnce sync.Once
	stopErr  error
	serveErr error
	served   chan struct{}
}

// startServer binds 127.0.0.1:0 and serves h in the background. The port is
// known and accepting connections when startServer returns.
func startServer(h http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(loopback, "0"))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return nil, fmt.Errorf("listen: unexpected address type %T", ln.Addr())
	}

	s := &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port:   addr.Port,
		served: make(chan struct{}),
	}
	go func() {
		defer close(s.served)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr = err
		}
	}()
	return s, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int { return s.port }

// Addr returns host:port of the listener.
func (s *Server) Addr() string {
	return net.JoinHostPort(loopback, strconv.Itoa(s.port))
}

// URL returns the base URL clients use to reach the node.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// serve loop to exit. Later requests to the port are refused. Safe to call
// more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		closeErr := s.srv.Close()
		<-s.served
		s.stopErr = errors.Join(closeErr, s.serveErr)
	})
	return s.stopErr
}
