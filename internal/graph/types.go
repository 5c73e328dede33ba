// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"errors"
	"time"

	"github.com/tejzpr/mimir-graph/internal/embeddings"
)

// NodeKind discriminates document and memory nodes
type NodeKind string

const (
	KindDocument NodeKind = "document"
	KindMemory   NodeKind = "memory"
)

// EdgeType identifies why two nodes are connected
type EdgeType string

const (
	EdgeDocMemory EdgeType = "doc-memory" // containment
	EdgeDocDoc    EdgeType = "doc-doc"    // semantic similarity
	EdgeVersion   EdgeType = "version"    // predecessor -> successor
)

// MemoryStatus drives memory node coloring
type MemoryStatus string

const (
	StatusDefault   MemoryStatus = "default"
	StatusNew       MemoryStatus = "new"
	StatusExpiring  MemoryStatus = "expiring"
	StatusForgotten MemoryStatus = "forgotten"
)

// ErrNodeNotFound is returned when an operation names an unknown node id
var ErrNodeNotFound = errors.New("node not found")

// Node is a document or memory in the graph. Positions are owned by the
// layout engine and are not stored here.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     NodeKind `json:"kind" yaml:"kind"`
	Label    string   `json:"label" yaml:"label"`
	Size     float64  `json:"size" yaml:"size"`
	Color    string   `json:"color" yaml:"color"`
	Hovered  bool     `json:"hovered,omitempty" yaml:"hovered,omitempty"`
	Dragging bool     `json:"dragging,omitempty" yaml:"dragging,omitempty"`

	// Memory nodes only. ParentDocumentID is a back-reference, not ownership.
	ParentDocumentID string       `json:"parentDocumentId,omitempty" yaml:"parentDocumentId,omitempty"`
	Status           MemoryStatus `json:"status,omitempty" yaml:"status,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Edge connects two node ids
type Edge struct {
	Source        string        `json:"source" yaml:"source"`
	Target        string        `json:"target" yaml:"target"`
	Similarity    float64       `json:"similarity" yaml:"similarity"`
	Type          EdgeType      `json:"type" yaml:"type"`
	Opacity       float64       `json:"opacity" yaml:"opacity"`
	Thickness     float64       `json:"thickness" yaml:"thickness"`
	Glow          float64       `json:"glow" yaml:"glow"`
	PulseDuration time.Duration `json:"-" yaml:"-"`
	Color         string        `json:"color" yaml:"color"`
}

// NewEdge creates an edge with similarity clamped to [0, 1] and its visual
// properties derived from that similarity
func NewEdge(source, target string, similarity float64, edgeType EdgeType) Edge {
	sim := embeddings.Clamp01(similarity)
	props := embeddings.ConnectionVisualProps(sim)
	return Edge{
		Source:        source,
		Target:        target,
		Similarity:    sim,
		Type:          edgeType,
		Opacity:       props.Opacity,
		Thickness:     props.Thickness,
		Glow:          props.Glow,
		PulseDuration: props.PulseDuration,
		Color:         embeddings.ConnectionColor(sim),
	}
}

// PairKey identifies an undirected node pair
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Graph holds nodes and the edges between them
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
}

// NewGraph indexes nodes by id. Duplicate node ids keep the first
// occurrence, and edges with an unknown endpoint or a repeated pair
// are dropped.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
		index: make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		g.addNode(n)
	}
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		g.addEdge(e, seen)
	}
	return g
}

func (g *Graph) addNode(n Node) bool {
	if n.ID == "" {
		return false
	}
	if _, exists := g.index[n.ID]; exists {
		return false
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return true
}

func (g *Graph) addEdge(e Edge, seen map[string]bool) bool {
	if e.Source == e.Target || !g.Has(e.Source) || !g.Has(e.Target) {
		return false
	}
	key := PairKey(e.Source, e.Target)
	if seen[key] {
		return false
	}
	seen[key] = true
	g.Edges = append(g.Edges, e)
	return true
}

// Has reports whether a node with id exists
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with id
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// SetHovered marks id as hovered and clears every other hover flag.
// An empty id clears all hovers.
func (g *Graph) SetHovered(id string) error {
	if id != "" && !g.Has(id) {
		return ErrNodeNotFound
	}
	for i := range g.Nodes {
		g.Nodes[i].Hovered = g.Nodes[i].ID == id
	}
	return nil
}

// SetDragging sets the drag flag of a node
func (g *Graph) SetDragging(id string, dragging bool) error {
	i, ok := g.index[id]
	if !ok {
		return ErrNodeNotFound
	}
	g.Nodes[i].Dragging = dragging
	return nil
}

// CountKind returns the number of nodes of the given kind
func (g *Graph) CountKind(kind NodeKind) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}
