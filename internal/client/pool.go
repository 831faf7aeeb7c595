package client

import (
	"strings"
	"time"
)

func (c *Client) setConnections(urls []string) {
	conns := make([]*Connection, 0, len(urls))
	for _, u := range urls {
		conns = append(conns, &Connection{URL: strings.TrimRight(u, "/")})
	}
	c.mu.Lock()
	c.conns = conns
	c.next = 0
	c.mu.Unlock()
}

// pick returns the next alive connection in round-robin order. When every
// connection is dead they are all resurrected.
func (c *Client) pick() *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.conns) == 0 {
		return nil
	}
	for i := 0; i < len(c.conns); i++ {
		conn := c.conns[(c.next+i)%len(c.conns)]
		if !conn.Dead {
			c.next = (c.next + i + 1) % len(c.conns)
			return conn
		}
	}

	c.log.Debug("All connections are dead, resurrecting")
	for _, conn := range c.conns {
		conn.Dead = false
	}
	conn := c.conns[c.next%len(c.conns)]
	c.next = (c.next + 1) % len(c.conns)
	return conn
}

func (c *Client) markDead(conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !conn.Dead {
		conn.DeadSince = time.Now()
	}
	conn.Dead = true
	conn.Failures++
	c.log.WithField("url", conn.URL).Debugf("Marked connection dead (failures: %d)", conn.Failures)
}

func (c *Client) markAlive(conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn.Dead = false
	conn.Failures = 0
	conn.DeadSince = time.Time{}
}

// Connections returns a copy of the pool.
func (c *Client) Connections() []Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Connection, len(c.conns))
	for i, conn := range c.conns {
		out[i] = *conn
	}
	return out
}

// URLs returns the base URL of every pooled connection.
func (c *Client) URLs() []string {
	conns := c.Connections()
	out := make([]string, len(conns))
	for i, conn := range conns {
		out[i] = conn.URL
	}
	return out
}
