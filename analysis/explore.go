package analysis

import (
	"math"
	"sort"

	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
)

type DegreeCount struct {
	Degree int
	Nodes  int
}

// Overview holds the exploratory statistics of a road network.
type Overview struct {
	Nodes, Edges     int
	Located          int // 有坐标的节点数
	Density          float64
	Connected        bool
	Components       int
	LargestComponent int
	Degree           Summary
	DegreeHistogram  []DegreeCount // 按度升序
	MaxDegreeNodes   []int64
	MinDegreeNodes   []int64
	Length           Summary // 边长
	// 最大连通分量内的加权最短路
	AvgPathLength float64
	Diameter      float64
}

// Explore computes counts, degree and length distributions, density and
// distance statistics of the graph.
func Explore(g *algo.Graph) Overview {
	nodes := g.Nodes()
	edges := g.Edges()
	n, m := len(nodes), len(edges)
	o := Overview{Nodes: n, Edges: m}
	if n > 1 {
		o.Density = 2 * float64(m) / float64(n*(n-1))
	}
	o.Located = lo.CountBy(nodes, func(node algo.Node) bool { return node.Located })

	degrees := make(map[int64]int, n)
	hist := make(map[int]int)
	for _, node := range nodes {
		d := g.Degree(node.ID)
		degrees[node.ID] = d
		hist[d]++
	}
	o.Degree = Describe(lo.Map(nodes, func(node algo.Node, _ int) float64 { return float64(degrees[node.ID]) }))
	for d, c := range hist {
		o.DegreeHistogram = append(o.DegreeHistogram, DegreeCount{Degree: d, Nodes: c})
	}
	sort.Slice(o.DegreeHistogram, func(i, j int) bool { return o.DegreeHistogram[i].Degree < o.DegreeHistogram[j].Degree })
	for _, node := range nodes {
		d := float64(degrees[node.ID])
		if d == o.Degree.Max {
			o.MaxDegreeNodes = append(o.MaxDegreeNodes, node.ID)
		}
		if d == o.Degree.Min {
			o.MinDegreeNodes = append(o.MinDegreeNodes, node.ID)
		}
	}
	sort.Slice(o.MaxDegreeNodes, func(i, j int) bool { return o.MaxDegreeNodes[i] < o.MaxDegreeNodes[j] })
	sort.Slice(o.MinDegreeNodes, func(i, j int) bool { return o.MinDegreeNodes[i] < o.MinDegreeNodes[j] })
	o.Length = Describe(lo.Map(edges, func(e algo.Edge, _ int) float64 { return e.Length }))

	comps := g.Components()
	o.Components = len(comps)
	o.Connected = len(comps) == 1
	if len(comps) > 0 {
		largest := comps[0]
		o.LargestComponent = len(largest)
		o.AvgPathLength, o.Diameter = pathStats(g, largest)
	}
	log.Infof("explored %d nodes, %d edges, %d components", n, m, o.Components)
	return o
}

// pathStats 分量内所有点对的平均最短路与直径
func pathStats(g *algo.Graph, component []int64) (float64, float64) {
	if len(component) < 2 {
		return 0, 0
	}
	total, diameter := 0.0, 0.0
	pairs := 0
	for _, src := range component {
		dist, err := g.Distances(src)
		if err != nil {
			log.Errorf("distances from %d: %v", src, err)
			continue
		}
		for dst, d := range dist {
			if dst == src {
				continue
			}
			total += d
			pairs++
			diameter = math.Max(diameter, d)
		}
	}
	if pairs == 0 {
		return 0, 0
	}
	return total / float64(pairs), diameter
}
