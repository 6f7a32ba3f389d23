package analysis

import (
	"fmt"
	"math"

	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
)

const (
	// 采样点对取前多少个节点
	DEFAULT_SAMPLE_NODES = 20
	// 默认模拟的桥数量
	DEFAULT_TOP_BRIDGES = 3
	// 默认模拟的割点数量
	DEFAULT_TOP_ARTICULATIONS = 1
)

// Scenario removes a set of edges and nodes from the network.
type Scenario struct {
	Name  string
	Edges []algo.EdgeKey
	Nodes []int64
}

// SampleImpact compares shortest distances between sample pairs.
type SampleImpact struct {
	Pairs        int     // 原图中可达的点对
	Disconnected int     // 删除后不可达
	Increased    int     // 距离变长
	MeanIncrease float64 // 距离变长点对的平均增幅（百分比）
	MaxIncrease  float64
}

// RouteDelta compares one route before and after a scenario.
type RouteDelta struct {
	Pair    network.Pair
	Before  float64
	After   float64 // 不可达为+Inf
	Removed bool    // 端点被删除
	Lost    bool    // 原本可达，删除后不可达
	// 长度增幅（百分比），仅在前后均可达时有效
	IncreasePct float64
}

type ScenarioResult struct {
	Scenario          Scenario
	Components        int
	ComponentDelta    int
	Connected         bool
	ComponentSizes    []int // 降序
	SmallestComponent []int64
	Sample            SampleImpact
	Routes            []RouteDelta
}

type ImpactReport struct {
	Components int
	Connected  bool
	Scenarios  []ScenarioResult
}

// DefaultScenarios returns one scenario per top bridge by edge betweenness and
// one per top articulation point by node betweenness. Without bridges the
// busiest edges are used instead.
func DefaultScenarios(s StructuralReport, c CentralityReport, topBridges, topArticulations int) []Scenario {
	scenarios := make([]Scenario, 0)
	isBridge := lo.Associate(s.LowLink.Bridges, func(k algo.EdgeKey) (algo.EdgeKey, bool) { return k, true })
	candidates := lo.Filter(c.Edges, func(e EdgeCentrality, _ int) bool { return isBridge[e.Key] })
	kind := "bridge"
	if len(candidates) == 0 {
		candidates = c.Edges
		kind = "edge"
	}
	for _, e := range candidates[:min(topBridges, len(candidates))] {
		scenarios = append(scenarios, Scenario{
			Name:  fmt.Sprintf("remove %s %v", kind, e.Key),
			Edges: []algo.EdgeKey{e.Key},
		})
	}
	isArt := lo.Associate(s.LowLink.ArticulationPoints, func(id int64) (int64, bool) { return id, true })
	arts := lo.Filter(c.Nodes, func(n NodeCentrality, _ int) bool { return isArt[n.ID] })
	for _, n := range arts[:min(topArticulations, len(arts))] {
		scenarios = append(scenarios, Scenario{
			Name:  fmt.Sprintf("remove node %d", n.ID),
			Nodes: []int64{n.ID},
		})
	}
	return scenarios
}

// Impact evaluates every scenario on its own copy of the graph and compares
// connectivity, sample pair distances and the given routes with the baseline.
// sampleNodes limits the sample to the first nodes in insertion order.
func Impact(g *algo.Graph, scenarios []Scenario, routes []network.Pair, sampleNodes int) (ImpactReport, error) {
	baseComponents := g.NumComponents()
	r := ImpactReport{Components: baseComponents, Connected: baseComponents == 1}

	ids := lo.Map(g.Nodes(), func(n algo.Node, _ int) int64 { return n.ID })
	sample := ids[:min(sampleNodes, len(ids))]
	baseDist, err := distancesFrom(g, sample)
	if err != nil {
		return r, err
	}
	baseRoutes := make([]algo.Path, len(routes))
	for i, pair := range routes {
		if baseRoutes[i], err = g.ShortestPath(pair.From, pair.To); err != nil {
			return r, fmt.Errorf("route %s: %w", pair.Label, err)
		}
	}

	for _, sc := range scenarios {
		h, err := g.Without(sc.Edges, sc.Nodes)
		if err != nil {
			return r, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		res := ScenarioResult{Scenario: sc}
		comps := h.Components()
		res.Components = len(comps)
		res.ComponentDelta = res.Components - baseComponents
		res.Connected = res.Components == 1
		res.ComponentSizes = lo.Map(comps, func(c []int64, _ int) int { return len(c) })
		if len(comps) > 1 {
			res.SmallestComponent = comps[len(comps)-1]
		}

		// 采样点对（删除的节点不参与）
		alive := lo.Filter(sample, func(id int64, _ int) bool { return h.HasNode(id) })
		dist, err := distancesFrom(h, alive)
		if err != nil {
			return r, err
		}
		res.Sample = compareSample(alive, baseDist, dist)

		for i, pair := range routes {
			res.Routes = append(res.Routes, compareRoute(h, pair, baseRoutes[i]))
		}
		log.Infof("scenario %s: %d -> %d components, %d/%d sample pairs disconnected",
			sc.Name, baseComponents, res.Components, res.Sample.Disconnected, res.Sample.Pairs)
		r.Scenarios = append(r.Scenarios, res)
	}
	return r, nil
}

func distancesFrom(g *algo.Graph, ids []int64) (map[int64]map[int64]float64, error) {
	res := make(map[int64]map[int64]float64, len(ids))
	for _, id := range ids {
		d, err := g.Distances(id)
		if err != nil {
			return nil, err
		}
		res[id] = d
	}
	return res, nil
}

func compareSample(ids []int64, before, after map[int64]map[int64]float64) SampleImpact {
	s := SampleImpact{}
	increases := make([]float64, 0)
	for i, u := range ids {
		for _, v := range ids[i+1:] {
			b, ok := before[u][v]
			if !ok {
				continue
			}
			s.Pairs++
			a, ok := after[u][v]
			if !ok {
				s.Disconnected++
				continue
			}
			pct := 0.0
			if b > 0 {
				pct = (a - b) / b * 100
			}
			if pct > 1e-9 {
				s.Increased++
				increases = append(increases, pct)
			}
		}
	}
	if len(increases) > 0 {
		sum := Describe(increases)
		s.MeanIncrease, s.MaxIncrease = sum.Mean, sum.Max
	}
	return s
}

func compareRoute(h *algo.Graph, pair network.Pair, before algo.Path) RouteDelta {
	d := RouteDelta{Pair: pair, Before: before.Length, After: math.Inf(1)}
	if !h.HasNode(pair.From) || !h.HasNode(pair.To) {
		d.Removed = true
		d.Lost = before.Found
		return d
	}
	after, _ := h.ShortestPath(pair.From, pair.To)
	d.After = after.Length
	d.Lost = before.Found && !after.Found
	if before.Found && after.Found && before.Length > 0 {
		d.IncreasePct = (after.Length - before.Length) / before.Length * 100
	}
	return d
}
