package analysis

import (
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
)

type BridgeInfo struct {
	Key    algo.EdgeKey
	Length float64
}

type ArticulationInfo struct {
	ID     int64
	Degree int
}

// StructuralReport lists the critical elements of a network.
type StructuralReport struct {
	LowLink       algo.LowLink
	Nodes, Edges  int
	Bridges       []BridgeInfo       // 与LowLink.Bridges同序
	Articulations []ArticulationInfo // 与LowLink.ArticulationPoints同序
	BridgeLength  Summary
	// 割点的度
	ArticulationDegree Summary
	// 桥占边数、割点占节点数的比例
	BridgeShare       float64
	ArticulationShare float64
}

// Structural finds bridges and articulation points and summarizes them.
// The graph is not modified.
func Structural(g *algo.Graph) StructuralReport {
	ll := g.LowLink()
	r := StructuralReport{
		LowLink: ll,
		Nodes:   g.NumNodes(),
		Edges:   g.NumEdges(),
	}
	r.Bridges = lo.Map(ll.Bridges, func(k algo.EdgeKey, _ int) BridgeInfo {
		e, _ := g.Edge(k.U, k.V)
		return BridgeInfo{Key: k, Length: e.Length}
	})
	r.Articulations = lo.Map(ll.ArticulationPoints, func(id int64, _ int) ArticulationInfo {
		return ArticulationInfo{ID: id, Degree: g.Degree(id)}
	})
	r.BridgeLength = Describe(lo.Map(r.Bridges, func(b BridgeInfo, _ int) float64 { return b.Length }))
	r.ArticulationDegree = Describe(lo.Map(r.Articulations, func(a ArticulationInfo, _ int) float64 { return float64(a.Degree) }))
	if r.Edges > 0 {
		r.BridgeShare = float64(len(r.Bridges)) / float64(r.Edges)
	}
	if r.Nodes > 0 {
		r.ArticulationShare = float64(len(r.Articulations)) / float64(r.Nodes)
	}
	log.Infof("found %d bridges and %d articulation points, connected: %v", len(r.Bridges), len(r.Articulations), ll.Connected)
	return r
}
