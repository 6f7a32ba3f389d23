package algo

import (
	"container/heap"
	"math"

	"github.com/samber/lo"
)

// 单源最短路的结果，下标为节点下标
type spTree struct {
	dist     []float64
	prevNode []int
	prevEdge []int
}

// dijkstra 从src出发求最短路，target >= 0 时到达target即停止
func (g *Graph) dijkstra(src, target int) spTree {
	n := len(g.nodes)
	t := spTree{
		dist:     make([]float64, n),
		prevNode: make([]int, n),
		prevEdge: make([]int, n),
	}
	for i := range t.dist {
		t.dist[i] = math.Inf(1)
		t.prevNode[i] = -1
		t.prevEdge[i] = -1
	}
	t.dist[src] = 0
	openSet := make(PriorityQueue, 1)
	openSetMap := make([]*Item, n) // node -> openSet item
	closed := make([]bool, n)
	openSet[0] = &Item{Value: src, Priority: 0, Index: 0}
	openSetMap[src] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		closed[cur] = true
		if cur == target {
			break
		}
		for _, he := range g.adj[cur] {
			if closed[he.to] {
				continue
			}
			tentative := t.dist[cur] + g.edges[he.edge].Length
			if tentative < t.dist[he.to] {
				t.dist[he.to] = tentative
				t.prevNode[he.to] = cur
				t.prevEdge[he.to] = he.edge
				if item := openSetMap[he.to]; item != nil {
					// 已在堆中，降低其优先级
					item.Priority = tentative
					heap.Fix(&openSet, item.Index)
				} else {
					item := &Item{Value: he.to, Priority: tentative}
					heap.Push(&openSet, item)
					openSetMap[he.to] = item
				}
			}
		}
	}
	return t
}

// bfs 无权最短路，dist为跳数
func (g *Graph) bfs(src int) spTree {
	n := len(g.nodes)
	t := spTree{
		dist:     make([]float64, n),
		prevNode: make([]int, n),
		prevEdge: make([]int, n),
	}
	for i := range t.dist {
		t.dist[i] = math.Inf(1)
		t.prevNode[i] = -1
		t.prevEdge[i] = -1
	}
	t.dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, he := range g.adj[cur] {
			if !math.IsInf(t.dist[he.to], 1) {
				continue
			}
			t.dist[he.to] = t.dist[cur] + 1
			t.prevNode[he.to] = cur
			t.prevEdge[he.to] = he.edge
			queue = append(queue, he.to)
		}
	}
	return t
}

func (g *Graph) reconstructPath(t spTree, src, dst int) Path {
	if src != dst && t.prevNode[dst] < 0 {
		return Path{Length: math.Inf(1)}
	}
	nodesBeforeReversed := []int64{g.nodes[dst].ID}
	edgesBeforeReversed := []EdgeKey{}
	length := 0.0
	for cur := dst; cur != src; cur = t.prevNode[cur] {
		e := g.edges[t.prevEdge[cur]]
		length += e.Length
		edgesBeforeReversed = append(edgesBeforeReversed, e.Key())
		nodesBeforeReversed = append(nodesBeforeReversed, g.nodes[t.prevNode[cur]].ID)
	}
	return Path{
		Nodes:  lo.Reverse(nodesBeforeReversed),
		Edges:  lo.Reverse(edgesBeforeReversed),
		Length: length,
		Found:  true,
	}
}

// ShortestPath computes the minimum-length path with Dijkstra. An unreachable
// target is not an error: the returned Path has Found == false.
func (g *Graph) ShortestPath(from, to int64) (Path, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	src, err := g.lookup(from)
	if err != nil {
		return Path{}, err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return Path{}, err
	}
	if src == dst {
		return Path{Nodes: []int64{from}, Edges: []EdgeKey{}, Found: true}, nil
	}
	return g.reconstructPath(g.dijkstra(src, dst), src, dst), nil
}

// HopPath computes the path with the fewest edges (breadth-first search).
// Length is the summed edge length along that path.
func (g *Graph) HopPath(from, to int64) (Path, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	src, err := g.lookup(from)
	if err != nil {
		return Path{}, err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return Path{}, err
	}
	if src == dst {
		return Path{Nodes: []int64{from}, Edges: []EdgeKey{}, Found: true}, nil
	}
	return g.reconstructPath(g.bfs(src), src, dst), nil
}

// Distances returns the shortest path length from the source to every
// reachable node, the source included.
func (g *Graph) Distances(from int64) (map[int64]float64, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	src, err := g.lookup(from)
	if err != nil {
		return nil, err
	}
	t := g.dijkstra(src, -1)
	res := make(map[int64]float64)
	for i, d := range t.dist {
		if !math.IsInf(d, 1) {
			res[g.nodes[i].ID] = d
		}
	}
	return res, nil
}
