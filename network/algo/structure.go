package algo

import (
	"sort"
)

// LowLink is the result of the bridge / articulation point search.
type LowLink struct {
	Bridges            []EdgeKey // 按key排序
	ArticulationPoints []int64   // 升序
	Components         int
	Connected          bool
}

// dfs栈帧
type frame struct {
	v          int
	parentEdge int
	next       int // 下一个待访问的邻接边
}

// LowLink finds all bridges and articulation points in a single iterative
// depth-first traversal tracking discovery time and low-link values.
func (g *Graph) LowLink() LowLink {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	n := len(g.nodes)
	disc := make([]int, n) // 0表示未访问
	low := make([]int, n)
	isArt := make([]bool, n)
	bridges := make([]EdgeKey, 0)
	timer, components := 0, 0
	for root := 0; root < n; root++ {
		if disc[root] != 0 {
			continue
		}
		components++
		timer++
		disc[root], low[root] = timer, timer
		rootChildren := 0
		stack := []frame{{v: root, parentEdge: -1}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.adj[top.v]) {
				he := g.adj[top.v][top.next]
				top.next++
				if he.edge == top.parentEdge {
					continue
				}
				if disc[he.to] == 0 {
					timer++
					disc[he.to], low[he.to] = timer, timer
					if top.v == root {
						rootChildren++
					}
					stack = append(stack, frame{v: he.to, parentEdge: he.edge})
				} else if disc[he.to] < low[top.v] {
					// 回边
					low[top.v] = disc[he.to]
				}
				continue
			}
			// v的所有邻边处理完毕，回溯到父节点
			v, pe := top.v, top.parentEdge
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			u := stack[len(stack)-1].v
			if low[v] < low[u] {
				low[u] = low[v]
			}
			if low[v] > disc[u] {
				bridges = append(bridges, g.edges[pe].Key())
			}
			if u != root && low[v] >= disc[u] {
				isArt[u] = true
			}
		}
		if rootChildren > 1 {
			isArt[root] = true
		}
	}
	arts := make([]int64, 0)
	for i, ok := range isArt {
		if ok {
			arts = append(arts, g.nodes[i].ID)
		}
	}
	sort.Slice(arts, func(i, j int) bool { return arts[i] < arts[j] })
	sort.Slice(bridges, func(i, j int) bool { return bridges[i].Less(bridges[j]) })
	return LowLink{
		Bridges:            bridges,
		ArticulationPoints: arts,
		Components:         components,
		Connected:          components == 1,
	}
}

// components 返回每个节点所属连通分量编号及分量数
func (g *Graph) components() ([]int, int) {
	n := len(g.nodes)
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	count := 0
	for s := 0; s < n; s++ {
		if comp[s] >= 0 {
			continue
		}
		comp[s] = count
		queue := []int{s}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, he := range g.adj[cur] {
				if comp[he.to] < 0 {
					comp[he.to] = count
					queue = append(queue, he.to)
				}
			}
		}
		count++
	}
	return comp, count
}

// Components returns the connected components, each sorted ascending,
// ordered by size descending then by smallest node ID.
func (g *Graph) Components() [][]int64 {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	comp, count := g.components()
	res := make([][]int64, count)
	for i, c := range comp {
		res[c] = append(res[c], g.nodes[i].ID)
	}
	for _, c := range res {
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	}
	sort.Slice(res, func(i, j int) bool {
		if len(res[i]) != len(res[j]) {
			return len(res[i]) > len(res[j])
		}
		return res[i][0] < res[j][0]
	})
	return res
}

func (g *Graph) NumComponents() int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	_, count := g.components()
	return count
}

// IsConnected reports whether the graph has exactly one component.
func (g *Graph) IsConnected() bool {
	return g.NumComponents() == 1
}
