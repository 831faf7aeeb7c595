package testcluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNodeNotFound is returned when an id does not name a live node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNodeExists is returned when spawning an id that is already live.
	ErrNodeExists = errors.New("node already exists")
	// ErrClusterShutdown is returned for work arriving after Shutdown.
	ErrClusterShutdown = errors.New("cluster is shut down")
)

// ReadyFunc receives the booted cluster, or the error that stopped it.
type ReadyFunc func(c *Cluster, err error)

// Node describes one live simulated node.
type Node struct {
	ID             string
	URL            string
	Port           int
	PublishAddress string
	BootedAt       time.Time

	seq    uint64
	server *Server
}

// Factory hands out cluster ids. Ids increase monotonically for the life of
// the factory and are only used in diagnostics.
type Factory struct {
	next atomic.Int64
	// startNode binds one node; tests replace it to fail a bind.
	startNode func(http.Handler) (*Server, error)
}

// NewFactory returns a factory whose first cluster gets id 0.
func NewFactory() *Factory {
	return &Factory{startNode: startServer}
}

var defaultFactory = NewFactory()

// Build boots a cluster using the process-wide factory. See Factory.Build.
func Build(opts *Options, onReady ReadyFunc) error {
	return defaultFactory.Build(opts, onReady)
}

// Start boots a cluster using the process-wide factory. See Factory.Start.
func Start(ctx context.Context, opts *Options) (*Cluster, error) {
	return defaultFactory.Start(ctx, opts)
}

// Build validates opts, queues one boot task per node (node0, node1, ...)
// and returns. onReady runs on its own goroutine once every node is up. If
// any node fails to boot, the nodes that did come up are shut down and
// onReady gets the error instead. A nil opts means DefaultOptions.
func (f *Factory) Build(opts *Options, onReady ReadyFunc) error {
	if onReady == nil {
		return &ConfigurationError{Field: "onReady", Reason: "callback is required"}
	}
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if err := o.validate(); err != nil {
		return err
	}

	c := newCluster(f.next.Add(1)-1, o, f.startNode)
	c.log.Debugf("Booting cluster '%d'", c.id)

	for i := 0; i < o.NumberOfNodes; i++ {
		if err := c.queue.Add(c.bootTask(fmt.Sprintf("node%d", i), nil)); err != nil {
			return err
		}
	}

	c.queue.Drain(func(err error) {
		if err != nil {
			c.log.WithError(err).Debugf("Cluster '%d' failed to boot", c.id)
			_ = c.Shutdown()
			go onReady(nil, err)
			return
		}
		c.log.Debugf("Cluster '%d' booted with %d nodes", c.id, o.NumberOfNodes)
		go onReady(c, nil)
	})
	return nil
}

// Start is the blocking form of Build. It returns once every node is up or
// ctx is done; there is no timeout beyond ctx's own.
func (f *Factory) Start(ctx context.Context, opts *Options) (*Cluster, error) {
	type result struct {
		c   *Cluster
		err error
	}
	ch := make(chan result, 1)
	if err := f.Build(opts, func(c *Cluster, err error) {
		ch <- result{c: c, err: err}
	}); err != nil {
		return nil, err
	}

	select {
	case r := <-ch:
		return r.c, r.err
	case <-ctx.Done():
		// The boot keeps going; tear it down when it lands.
		go func() {
			if r := <-ch; r.c != nil {
				_ = r.c.Shutdown()
			}
		}()
		return nil, fmt.Errorf("start cluster: %w", ctx.Err())
	}
}

// Cluster is a live set of simulated nodes plus their discovery directory.
// All mutation goes through Spawn, Kill and Shutdown.
type Cluster struct {
	id      int64
	opts    Options
	log     logrus.FieldLogger
	queue   *Queue
	dir     *Directory
	handler http.Handler
	start   func(http.Handler) (*Server, error)

	mu     sync.RWMutex
	nodes  map[string]*Node
	seq    uint64
	closed bool
}

func newCluster(id int64, o Options, start func(http.Handler) (*Server, error)) *Cluster {
	if start == nil {
		start = startServer
	}
	base := o.Logger
	if base == nil {
		base = logrus.StandardLogger()
	}
	log := base.WithField("cluster", id)

	c := &Cluster{
		id:    id,
		opts:  o,
		log:   log,
		queue: NewQueue(log),
		dir:   NewDirectory(),
		nodes: make(map[string]*Node),
		start: start,
	}
	c.handler = o.Handler
	if c.handler == nil {
		c.handler = NewHandler(c.dir, o.ClusterPartiallySeparated)
	}
	return c
}

// ID returns the diagnostic cluster id.
func (c *Cluster) ID() int64 { return c.id }

// Options returns the options the cluster was built with.
func (c *Cluster) Options() Options { return c.opts }

// Spawn queues a boot for a node named id. onSpawned runs on its own
// goroutine after that node is registered, and after any boot queued
// before it. It receives ErrNodeExists if id is already live.
func (c *Cluster) Spawn(id string, onSpawned func(err error)) error {
	if id == "" {
		return &ConfigurationError{Field: "id", Reason: "must not be empty"}
	}
	c.log.WithField("node", id).Debugf("Spawning cluster node '%s'", id)

	var bootErr error
	if err := c.queue.Add(c.bootTask(id, &bootErr)); err != nil {
		return fmt.Errorf("spawn %q: %w", id, ErrClusterShutdown)
	}
	err := c.queue.Add(func(done func(error)) {
		if onSpawned != nil {
			go onSpawned(bootErr)
		}
		done(nil)
	})
	if err != nil {
		return fmt.Errorf("spawn %q: %w", id, ErrClusterShutdown)
	}
	return nil
}

// SpawnWait is the blocking form of Spawn.
func (c *Cluster) SpawnWait(ctx context.Context, id string) error {
	ch := make(chan error, 1)
	if err := c.Spawn(id, func(err error) { ch <- err }); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return fmt.Errorf("spawn %q: %w", id, ctx.Err())
	}
}

// Kill stops the node's listener and removes it from the registry and the
// discovery directory before returning.
func (c *Cluster) Kill(id string) error {
	c.mu.Lock()
	n, ok := c.nodes[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("kill %q: %w", id, ErrNodeNotFound)
	}
	delete(c.nodes, id)
	c.dir.Remove(id)
	c.mu.Unlock()

	c.log.WithField("node", id).Debugf("Shutting down cluster node '%s' (cluster id: '%d')", id, c.id)
	if err := n.server.Stop(); err != nil {
		return fmt.Errorf("kill %q: %w", id, err)
	}
	return nil
}

// Shutdown kills every live node and stops accepting spawns. Calling it
// again is a no-op.
func (c *Cluster) Shutdown() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.queue.Close()
		c.log.Debugf("Shutting down cluster '%d'", c.id)
	}
	ids := c.orderedIDsLocked()
	c.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := c.Kill(id); err != nil && !errors.Is(err, ErrNodeNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nodes returns a copy of the live nodes in boot order.
func (c *Cluster) Nodes() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Node, 0, len(c.nodes))
	for _, id := range c.orderedIDsLocked() {
		n := *c.nodes[id]
		n.server = nil
		out = append(out, n)
	}
	return out
}

// Node returns a copy of the live node named id.
func (c *Cluster) Node(id string) (Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.server = nil
	return cp, true
}

// URLs returns the base URL of every live node in boot order.
func (c *Cluster) URLs() []string {
	nodes := c.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.URL
	}
	return out
}

// Len returns the number of live nodes.
func (c *Cluster) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Discovery returns a copy of the full discovery directory.
func (c *Cluster) Discovery() SniffResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir.Snapshot()
}

// SniffResponse returns what the canned handler answers on a sniff request,
// which differs from Discovery when partition simulation is on.
func (c *Cluster) SniffResponse() SniffResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.opts.ClusterPartiallySeparated {
		return c.dir.Partitioned()
	}
	return c.dir.Snapshot()
}

func (c *Cluster) bootTask(id string, result *error) Task {
	return func(done func(error)) {
		go func() {
			err := c.boot(id)
			if result != nil {
				*result = err
			}
			done(err)
		}()
	}
}

func (c *Cluster) boot(id string) error {
	c.mu.RLock()
	_, exists := c.nodes[id]
	closed := c.closed
	c.mu.RUnlock()
	switch {
	case closed:
		return fmt.Errorf("boot %q: %w", id, ErrClusterShutdown)
	case exists:
		return fmt.Errorf("boot %q: %w", id, ErrNodeExists)
	}

	srv, err := c.start(c.handler)
	if err != nil {
		return fmt.Errorf("boot %q: %w", id, err)
	}
	return c.register(id, srv)
}

// register records a booted node in the registry and the directory under
// one lock so readers never see one without the other.
func (c *Cluster) register(id string, srv *Server) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = srv.Stop()
		return fmt.Errorf("boot %q: %w", id, ErrClusterShutdown)
	}
	if _, exists := c.nodes[id]; exists {
		_ = srv.Stop()
		return fmt.Errorf("boot %q: %w", id, ErrNodeExists)
	}

	c.seq++
	addr := publishAddress(srv.Port(), c.opts.HostPublishAddress)
	c.nodes[id] = &Node{
		ID:             id,
		URL:            srv.URL(),
		Port:           srv.Port(),
		PublishAddress: addr,
		BootedAt:       time.Now(),
		seq:            c.seq,
		server:         srv,
	}
	c.dir.Put(id, Record{
		HTTP:  HTTPInfo{PublishAddress: addr},
		Roles: DefaultRoles,
	})

	c.log.WithFields(logrus.Fields{"node": id, "port": srv.Port()}).
		Debugf("Booted cluster node '%s' on port %d (cluster id: '%d')", id, srv.Port(), c.id)
	return nil
}

func (c *Cluster) orderedIDsLocked() []string {
	ids := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return c.nodes[ids[i]].seq < c.nodes[ids[j]].seq
	})
	return ids
}

func publishAddress(port int, hostQualified bool) string {
	addr := net.JoinHostPort(loopback, strconv.Itoa(port))
	if hostQualified {
		return "localhost/" + addr
	}
	return addr
}
