package algo

import (
	"container/heap"
	"math"
)

// Betweenness holds normalized node and edge betweenness centrality.
type Betweenness struct {
	Node map[int64]float64
	Edge map[EdgeKey]float64
}

// Closeness holds closeness centrality. Isolated nodes (no reachable peer)
// have value 0 and are marked in Isolated.
type Closeness struct {
	Value    map[int64]float64
	Isolated map[int64]bool
}

// DegreeCentrality returns degree / (n-1) for every node.
func (g *Graph) DegreeCentrality() map[int64]float64 {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	n := len(g.nodes)
	res := make(map[int64]float64, n)
	for i, node := range g.nodes {
		if n <= 1 {
			res[node.ID] = 0
			continue
		}
		res[node.ID] = float64(len(g.adj[i])) / float64(n-1)
	}
	return res
}

// brandes的单源阶段：按出堆顺序记录节点、前驱、最短路条数
type brandesState struct {
	order []int
	preds [][]halfEdge // halfEdge.to为前驱节点
	sigma []float64
	dist  []float64
	delta []float64
}

func newBrandesState(n int) *brandesState {
	return &brandesState{
		order: make([]int, 0, n),
		preds: make([][]halfEdge, n),
		sigma: make([]float64, n),
		dist:  make([]float64, n),
		delta: make([]float64, n),
	}
}

func (s *brandesState) reset() {
	s.order = s.order[:0]
	for i := range s.dist {
		s.preds[i] = s.preds[i][:0]
		s.sigma[i] = 0
		s.dist[i] = math.Inf(1)
		s.delta[i] = 0
	}
}

// 以src为源的加权最短路计数
func (g *Graph) countShortestPaths(src int, s *brandesState) {
	s.reset()
	n := len(g.nodes)
	s.sigma[src] = 1
	s.dist[src] = 0
	openSet := make(PriorityQueue, 1)
	openSetMap := make([]*Item, n)
	closed := make([]bool, n)
	openSet[0] = &Item{Value: src, Priority: 0, Index: 0}
	openSetMap[src] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		v := heap.Pop(&openSet).(*Item).Value
		closed[v] = true
		s.order = append(s.order, v)
		for _, he := range g.adj[v] {
			w := he.to
			if closed[w] {
				continue
			}
			alt := s.dist[v] + g.edges[he.edge].Length
			switch {
			case alt < s.dist[w]:
				s.dist[w] = alt
				s.sigma[w] = s.sigma[v]
				s.preds[w] = append(s.preds[w][:0], halfEdge{to: v, edge: he.edge})
				if item := openSetMap[w]; item != nil {
					item.Priority = alt
					heap.Fix(&openSet, item.Index)
				} else {
					item := &Item{Value: w, Priority: alt}
					heap.Push(&openSet, item)
					openSetMap[w] = item
				}
			case alt == s.dist[w]:
				// 等长最短路
				s.sigma[w] += s.sigma[v]
				s.preds[w] = append(s.preds[w], halfEdge{to: v, edge: he.edge})
			}
		}
	}
}

// Betweenness computes weighted node and edge betweenness centrality with
// Brandes' algorithm, running Dijkstra from every source. Only reachable
// pairs contribute. Node values are normalized by 1/((n-1)(n-2)) and edge
// values by 1/(n(n-1)), so both lie in [0,1].
func (g *Graph) Betweenness() Betweenness {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	n := len(g.nodes)
	nodeBC := make([]float64, n)
	edgeBC := make([]float64, len(g.edges))
	s := newBrandesState(n)
	for src := 0; src < n; src++ {
		g.countShortestPaths(src, s)
		// 逆序累加依赖值
		for i := len(s.order) - 1; i >= 0; i-- {
			w := s.order[i]
			coeff := (1 + s.delta[w]) / s.sigma[w]
			for _, p := range s.preds[w] {
				c := s.sigma[p.to] * coeff
				edgeBC[p.edge] += c
				s.delta[p.to] += c
			}
			if w != src {
				nodeBC[w] += s.delta[w]
			}
		}
	}
	// 无向图每个点对被统计两次，归一化系数与之匹配
	nodeScale := 0.0
	if n > 2 {
		nodeScale = 1 / float64((n-1)*(n-2))
	}
	edgeScale := 0.0
	if n > 1 {
		edgeScale = 1 / float64(n*(n-1))
	}
	res := Betweenness{
		Node: make(map[int64]float64, n),
		Edge: make(map[EdgeKey]float64, len(g.edges)),
	}
	for i, node := range g.nodes {
		res.Node[node.ID] = nodeBC[i] * nodeScale
	}
	for i, e := range g.edges {
		res.Edge[e.Key()] = edgeBC[i] * edgeScale
	}
	return res
}

// Closeness computes closeness centrality using reachable-set normalization:
// C(u) = (r-1)/sum(d(u,v)) * (r-1)/(n-1), r being the number of nodes
// reachable from u including u itself.
func (g *Graph) Closeness() Closeness {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	n := len(g.nodes)
	res := Closeness{
		Value:    make(map[int64]float64, n),
		Isolated: make(map[int64]bool),
	}
	for src, node := range g.nodes {
		t := g.dijkstra(src, -1)
		reachable, total := 0, 0.0
		for _, d := range t.dist {
			if !math.IsInf(d, 1) {
				reachable++
				total += d
			}
		}
		if reachable <= 1 || total <= 0 {
			res.Value[node.ID] = 0
			res.Isolated[node.ID] = true
			continue
		}
		r := float64(reachable - 1)
		res.Value[node.ID] = (r / total) * (r / float64(n-1))
	}
	return res
}
