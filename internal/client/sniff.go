package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ganxiyun/es-testcluster/internal/api"
)

// Sniff asks an alive node for the cluster's HTTP nodes and replaces the pool
// with what it reports. Nodes are kept in the order the response lists them.
func (c *Client) Sniff(ctx context.Context) ([]SniffedNode, error) {
	req, err := api.NodesInfo(nil)
	if err != nil {
		return nil, fmt.Errorf("Sniff: %w", err)
	}
	res, err := c.Perform(ctx, req, api.Options{})
	if err != nil {
		return nil, fmt.Errorf("Sniff: %w", err)
	}

	nodes, err := ParseSniff(res.Body)
	if err != nil {
		return nil, fmt.Errorf("Sniff decode: %w", err)
	}
	if len(nodes) == 0 {
		c.log.Debug("Sniff returned no nodes, keeping the current pool")
		return nodes, nil
	}

	urls := make([]string, len(nodes))
	for i, n := range nodes {
		urls[i] = n.URL
	}
	c.setConnections(urls)
	c.log.WithField("nodes", len(nodes)).Debugf("Sniffed %d nodes from %s", len(nodes), res.URL)
	return nodes, nil
}

// ParseSniff reads a /_nodes/_all/http body. Nodes without an HTTP publish
// address are skipped.
func ParseSniff(body []byte) ([]SniffedNode, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON: %s", truncate(body, 200))
	}
	nodes := gjson.GetBytes(body, "nodes")
	if !nodes.IsObject() {
		return nil, fmt.Errorf("missing nodes object")
	}

	var out []SniffedNode
	nodes.ForEach(func(id, node gjson.Result) bool {
		addr := node.Get("http.publish_address").String()
		if addr == "" {
			return true
		}
		var roles []string
		for _, r := range node.Get("roles").Array() {
			roles = append(roles, r.String())
		}
		out = append(out, SniffedNode{
			ID:             id.String(),
			PublishAddress: addr,
			URL:            "http://" + hostPort(addr),
			Roles:          roles,
		})
		return true
	})
	return out, nil
}

// hostPort turns "host/ip:port" into "host:port". Plain "ip:port" is
// returned unchanged.
func hostPort(addr string) string {
	slash := strings.IndexByte(addr, '/')
	if slash < 0 {
		return addr
	}
	host := addr[:slash]
	rest := addr[slash+1:]
	colon := strings.LastIndexByte(rest, ':')
	if colon < 0 {
		return host
	}
	return host + rest[colon:]
}
