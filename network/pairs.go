package network

import (
	"sort"

	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
)

// Pair is an origin/destination pair with a human readable label.
type Pair struct {
	From  int64  `yaml:"from"`
	To    int64  `yaml:"to"`
	Label string `yaml:"label"`
}

// StrategicPairs picks origin/destination pairs from the geographic extremes
// of the network and the node nearest to the median centre. Nodes without
// coordinates are ignored; nil is returned when no node is located.
func StrategicPairs(g *algo.Graph) []Pair {
	nodes := lo.Filter(g.Nodes(), func(n algo.Node, _ int) bool { return n.Located })
	if len(nodes) == 0 {
		return nil
	}
	// 按id排序，坐标相同时取id最小者
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	minX, maxX, minY, maxY := nodes[0], nodes[0], nodes[0], nodes[0]
	for _, n := range nodes[1:] {
		if n.P.X() < minX.P.X() {
			minX = n
		}
		if n.P.X() > maxX.P.X() {
			maxX = n
		}
		if n.P.Y() < minY.P.Y() {
			minY = n
		}
		if n.P.Y() > maxY.P.Y() {
			maxY = n
		}
	}
	center := orb.Point{
		median(lo.Map(nodes, func(n algo.Node, _ int) float64 { return n.P.X() })),
		median(lo.Map(nodes, func(n algo.Node, _ int) float64 { return n.P.Y() })),
	}
	central := lo.MinBy(nodes, func(a, b algo.Node) bool {
		return planar.Distance(a.P, center) < planar.Distance(b.P, center)
	})
	return []Pair{
		{From: minX.ID, To: maxX.ID, Label: "West-East"},
		{From: minY.ID, To: maxY.ID, Label: "South-North"},
		{From: minX.ID, To: central.ID, Label: "West-Center"},
		{From: maxX.ID, To: central.ID, Label: "East-Center"},
		{From: minY.ID, To: central.ID, Label: "South-Center"},
	}
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
