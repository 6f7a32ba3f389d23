package algo

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

// Graph is an undirected, weighted, simple graph keyed by int64 node IDs.
// Algorithms address nodes by their insertion index internally.
type Graph struct {
	// 节点，按插入顺序
	nodes []Node
	// node id -> 下标
	index map[int64]int
	// 边，Edge.U <= Edge.V
	edges []Edge
	// edge key -> 下标
	edgeIndex map[EdgeKey]int
	// 邻接表，node下标 -> 出边
	adj [][]halfEdge

	mu *xsync.RBMutex
}

func NewGraph() *Graph {
	return &Graph{
		nodes:     make([]Node, 0),
		index:     make(map[int64]int),
		edges:     make([]Edge, 0),
		edgeIndex: make(map[EdgeKey]int),
		adj:       make([][]halfEdge, 0),
		mu:        xsync.NewRBMutex(),
	}
}

// AddNode inserts a node. located marks p as a real coordinate.
func (g *Graph) AddNode(id int64, p orb.Point, located bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, P: p, Located: located})
	g.adj = append(g.adj, make([]halfEdge, 0))
	return nil
}

// AddEdge inserts an undirected edge between two existing nodes.
func (g *Graph) AddEdge(u, v int64, length, capacity float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if u == v {
		return fmt.Errorf("%w: %d", ErrSelfLoop, u)
	}
	if !(length > 0) {
		return fmt.Errorf("%w: %v %v", ErrNonPositiveWeight, NewEdgeKey(u, v), length)
	}
	if capacity < 0 {
		return fmt.Errorf("%w: %v %v", ErrNegativeCapacity, NewEdgeKey(u, v), capacity)
	}
	iu, ok := g.index[u]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, u)
	}
	iv, ok := g.index[v]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, v)
	}
	key := NewEdgeKey(u, v)
	if _, ok := g.edgeIndex[key]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateEdge, key)
	}
	e := len(g.edges)
	g.edgeIndex[key] = e
	g.edges = append(g.edges, Edge{U: key.U, V: key.V, Length: length, Capacity: capacity})
	g.adj[iu] = append(g.adj[iu], halfEdge{to: iv, edge: e})
	g.adj[iv] = append(g.adj[iv], halfEdge{to: iu, edge: e})
	return nil
}

// SetCapacity overrides the capacity of an existing edge.
func (g *Graph) SetCapacity(key EdgeKey, capacity float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if capacity < 0 {
		return fmt.Errorf("%w: %v %v", ErrNegativeCapacity, key, capacity)
	}
	e, ok := g.edgeIndex[NewEdgeKey(key.U, key.V)]
	if !ok {
		return fmt.Errorf("%w: %v", ErrEdgeNotFound, key)
	}
	g.edges[e].Capacity = capacity
	return nil
}

func (g *Graph) NumNodes() int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return len(g.edges)
}

// Nodes returns a copy of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return append([]Node(nil), g.nodes...)
}

// NodeIDs returns all node IDs in ascending order.
func (g *Graph) NodeIDs() []int64 {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	ids := lo.Map(g.nodes, func(n Node, _ int) int64 { return n.ID })
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Edges returns a copy of all edges sorted by key.
func (g *Graph) Edges() []Edge {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	edges := append([]Edge(nil), g.edges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Key().Less(edges[j].Key()) })
	return edges
}

func (g *Graph) Node(id int64) (Node, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

func (g *Graph) Edge(u, v int64) (Edge, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	e, ok := g.edgeIndex[NewEdgeKey(u, v)]
	if !ok {
		return Edge{}, false
	}
	return g.edges[e], true
}

func (g *Graph) HasNode(id int64) bool {
	_, ok := g.Node(id)
	return ok
}

func (g *Graph) HasEdge(u, v int64) bool {
	_, ok := g.Edge(u, v)
	return ok
}

// Degree returns the number of incident edges, -1 for an unknown node.
func (g *Graph) Degree(id int64) int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.index[id]
	if !ok {
		return -1
	}
	return len(g.adj[i])
}

// Neighbors returns the adjacent node IDs in ascending order.
func (g *Graph) Neighbors(id int64) ([]int64, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	ns := lo.Map(g.adj[i], func(he halfEdge, _ int) int64 { return g.nodes[he.to].ID })
	sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	return ns, nil
}

// Bound returns the bounding box of all located nodes.
func (g *Graph) Bound() orb.Bound {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	mp := orb.MultiPoint(lo.FilterMap(g.nodes, func(n Node, _ int) (orb.Point, bool) {
		return n.P, n.Located
	}))
	return mp.Bound()
}

// Without returns an independent copy of the graph with the given edges and
// nodes (and their incident edges) removed. The receiver is not modified.
func (g *Graph) Without(edges []EdgeKey, nodes []int64) (*Graph, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	dropEdges := make(map[EdgeKey]struct{}, len(edges))
	for _, k := range edges {
		k = NewEdgeKey(k.U, k.V)
		if _, ok := g.edgeIndex[k]; !ok {
			return nil, fmt.Errorf("%w: %v", ErrEdgeNotFound, k)
		}
		dropEdges[k] = struct{}{}
	}
	dropNodes := make(map[int64]struct{}, len(nodes))
	for _, id := range nodes {
		if _, ok := g.index[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
		dropNodes[id] = struct{}{}
	}
	c := NewGraph()
	for _, n := range g.nodes {
		if _, ok := dropNodes[n.ID]; ok {
			continue
		}
		c.index[n.ID] = len(c.nodes)
		c.nodes = append(c.nodes, n)
		c.adj = append(c.adj, make([]halfEdge, 0))
	}
	for _, e := range g.edges {
		if _, ok := dropEdges[e.Key()]; ok {
			continue
		}
		_, uGone := dropNodes[e.U]
		_, vGone := dropNodes[e.V]
		if uGone || vGone {
			continue
		}
		iu, iv := c.index[e.U], c.index[e.V]
		ei := len(c.edges)
		c.edgeIndex[e.Key()] = ei
		c.edges = append(c.edges, e)
		c.adj[iu] = append(c.adj[iu], halfEdge{to: iv, edge: ei})
		c.adj[iv] = append(c.adj[iv], halfEdge{to: iu, edge: ei})
	}
	return c, nil
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	c, _ := g.Without(nil, nil)
	return c
}

func (g *Graph) lookup(id int64) (int, error) {
	i, ok := g.index[id]
	if !ok {
		return -1, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return i, nil
}
