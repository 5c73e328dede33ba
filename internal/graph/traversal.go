// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import "fmt"

// MaxTraversalHops caps traversal depth
const MaxTraversalHops = 5

// VisitedNode is a node reached by a traversal
type VisitedNode struct {
	Node  Node `json:"node" yaml:"node"`
	Depth int  `json:"depth" yaml:"depth"`
}

// Neighborhood is the part of a graph reachable from a start node
type Neighborhood struct {
	Nodes []VisitedNode `json:"nodes" yaml:"nodes"`
	Edges []Edge        `json:"edges" yaml:"edges"`
}

// adjacency maps a node id to the indices of its incident edges
func (g *Graph) adjacency() map[string][]int {
	adj := make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], i)
		adj[e.Target] = append(adj[e.Target], i)
	}
	return adj
}

// Traverse walks the graph from startID up to maxHops edges away
func (g *Graph) Traverse(startID string, maxHops int, breadthFirst bool) (*Neighborhood, error) {
	if !g.Has(startID) {
		return nil, fmt.Errorf("failed to traverse from %q: %w", startID, ErrNodeNotFound)
	}
	if maxHops > MaxTraversalHops {
		maxHops = MaxTraversalHops // Safety limit
	}
	if maxHops < 0 {
		maxHops = 0
	}

	result := &Neighborhood{
		Nodes: []VisitedNode{},
		Edges: []Edge{},
	}
	adj := g.adjacency()
	visited := make(map[string]bool)
	edgeSeen := make(map[int]bool)

	if breadthFirst {
		g.traverseBFS(startID, maxHops, adj, result, visited, edgeSeen)
	} else {
		g.traverseDFS(startID, maxHops, 0, adj, result, visited, edgeSeen)
	}
	return result, nil
}

func (g *Graph) traverseBFS(startID string, maxHops int, adj map[string][]int, result *Neighborhood, visited map[string]bool, edgeSeen map[int]bool) {
	type queueItem struct {
		id    string
		depth int
	}

	queue := []queueItem{{startID, 0}}
	visited[startID] = true
	g.visit(startID, 0, result)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxHops {
			continue
		}

		for _, ei := range adj[current.id] {
			e := g.Edges[ei]
			if !edgeSeen[ei] {
				edgeSeen[ei] = true
				result.Edges = append(result.Edges, e)
			}

			neighborID := e.Target
			if neighborID == current.id {
				neighborID = e.Source
			}
			if !visited[neighborID] {
				visited[neighborID] = true
				g.visit(neighborID, current.depth+1, result)
				queue = append(queue, queueItem{neighborID, current.depth + 1})
			}
		}
	}
}

func (g *Graph) traverseDFS(id string, maxHops, depth int, adj map[string][]int, result *Neighborhood, visited map[string]bool, edgeSeen map[int]bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	g.visit(id, depth, result)

	if depth >= maxHops {
		return
	}

	for _, ei := range adj[id] {
		e := g.Edges[ei]
		if !edgeSeen[ei] {
			edgeSeen[ei] = true
			result.Edges = append(result.Edges, e)
		}

		neighborID := e.Target
		if neighborID == id {
			neighborID = e.Source
		}
		g.traverseDFS(neighborID, maxHops, depth+1, adj, result, visited, edgeSeen)
	}
}

func (g *Graph) visit(id string, depth int, result *Neighborhood) {
	node, _ := g.Node(id)
	result.Nodes = append(result.Nodes, VisitedNode{Node: node, Depth: depth})
}
