package testcluster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultRoles is the role set every simulated node advertises.
var DefaultRoles = []string{"master", "data", "ingest"}

// HTTPInfo is the http section of a node's discovery record.
type HTTPInfo struct {
	PublishAddress string `json:"publish_address"`
}

// Record is what a sniff request reports for a single node.
type Record struct {
	HTTP  HTTPInfo `json:"http"`
	Roles []string `json:"roles"`
}

func (r Record) clone() Record {
	roles := make([]string, len(r.Roles))
	copy(roles, r.Roles)
	return Record{HTTP: r.HTTP, Roles: roles}
}

// SniffResult mirrors the body of GET /_nodes/_all/http.
type SniffResult struct {
	Nodes NodeSet `json:"nodes"`
}

// NodeSet is an insertion-ordered id -> Record mapping. It marshals as a JSON
// object whose keys keep registration order.
type NodeSet struct {
	ids     []string
	records map[string]Record
}

// Len returns the number of entries.
func (s NodeSet) Len() int { return len(s.ids) }

// IDs returns the node ids in registration order.
func (s NodeSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Get returns the record for id.
func (s NodeSet) Get(id string) (Record, bool) {
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Has reports whether id is present.
func (s NodeSet) Has(id string) bool {
	_, ok := s.records[id]
	return ok
}

// MarshalJSON writes entries in registration order.
func (s NodeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.records[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order.
func (s *NodeSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nodes: expected object, got %v", tok)
	}
	s.ids = nil
	s.records = make(map[string]Record)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("nodes: expected key, got %v", tok)
		}
		var r Record
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("nodes.%s: %w", id, err)
		}
		if _, dup := s.records[id]; !dup {
			s.ids = append(s.ids, id)
		}
		s.records[id] = r
	}
	_, err = dec.Token()
	return err
}

// Directory is the discovery directory of one cluster. Only the owning
// Cluster mutates it; request handlers read it concurrently.
type Directory struct {
	mu      sync.RWMutex
	ids     []string
	records map[string]Record
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{records: make(map[string]Record)}
}

// Put registers or replaces the record for id. A new id is appended to the
// registration order; a replaced id keeps its position.
func (d *Directory) Put(id string, r Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.records[id]; !ok {
		d.ids = append(d.ids, id)
	}
	d.records[id] = r.clone()
}

// Remove deletes id and reports whether it was present.
func (d *Directory) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.records[id]; !ok {
		return false
	}
	delete(d.records, id)
	for i, existing := range d.ids {
		if existing == id {
			d.ids = append(d.ids[:i:i], d.ids[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered nodes.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.ids)
}

// IDs returns registered ids in registration order.
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Snapshot returns a deep copy of the full directory.
func (d *Directory) Snapshot() SniffResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return SniffResult{Nodes: d.copyLocked(0)}
}

// Partitioned returns a deep copy with the oldest registered entry omitted,
// which is what a client on the wrong side of a split would see.
func (d *Directory) Partitioned() SniffResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.ids) == 0 {
		return SniffResult{Nodes: d.copyLocked(0)}
	}
	return SniffResult{Nodes: d.copyLocked(1)}
}

func (d *Directory) copyLocked(skip int) NodeSet {
	set := NodeSet{
		ids:     make([]string, 0, len(d.ids)),
		records: make(map[string]Record, len(d.ids)),
	}
	for _, id := range d.ids[skip:] {
		set.ids = append(set.ids, id)
		set.records[id] = d.records[id].clone()
	}
	return set
}
