package analysis

import (
	"sort"

	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
)

// NodeCentrality is one row of the node ranking.
type NodeCentrality struct {
	ID          int64
	Degree      int
	DegreeC     float64
	Betweenness float64
	Closeness   float64
	Isolated    bool // 无可达节点，Closeness为0
	Rank        int  // 按Betweenness的排名，从1开始
}

// EdgeCentrality is one row of the edge ranking.
type EdgeCentrality struct {
	Key         algo.EdgeKey
	Length      float64
	Betweenness float64
	Bridge      bool
	Rank        int
}

type Metric string

const (
	MetricDegree      Metric = "degree"
	MetricBetweenness Metric = "betweenness"
	MetricCloseness   Metric = "closeness"
)

// CentralityReport holds node and edge centralities ranked by betweenness.
type CentralityReport struct {
	Nodes        []NodeCentrality
	Edges        []EdgeCentrality
	Correlations []Correlation
	Isolated     int
}

// Centrality computes degree, betweenness and closeness centrality of every
// node and betweenness of every edge. Closeness uses reachable-set
// normalization so disconnected graphs never yield NaN; nodes without any
// reachable peer get 0 and are flagged Isolated.
func Centrality(g *algo.Graph) CentralityReport {
	dc := g.DegreeCentrality()
	bc := g.Betweenness()
	cc := g.Closeness()
	bridges := lo.Associate(g.LowLink().Bridges, func(k algo.EdgeKey) (algo.EdgeKey, bool) { return k, true })

	r := CentralityReport{}
	for _, id := range g.NodeIDs() {
		r.Nodes = append(r.Nodes, NodeCentrality{
			ID:          id,
			Degree:      g.Degree(id),
			DegreeC:     dc[id],
			Betweenness: bc.Node[id],
			Closeness:   cc.Value[id],
			Isolated:    cc.Isolated[id],
		})
	}
	sort.SliceStable(r.Nodes, func(i, j int) bool { return r.Nodes[i].Betweenness > r.Nodes[j].Betweenness })
	for i := range r.Nodes {
		r.Nodes[i].Rank = i + 1
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, EdgeCentrality{
			Key:         e.Key(),
			Length:      e.Length,
			Betweenness: bc.Edge[e.Key()],
			Bridge:      bridges[e.Key()],
		})
	}
	sort.SliceStable(r.Edges, func(i, j int) bool { return r.Edges[i].Betweenness > r.Edges[j].Betweenness })
	for i := range r.Edges {
		r.Edges[i].Rank = i + 1
	}
	r.Isolated = len(cc.Isolated)
	if r.Isolated > 0 {
		log.Warnf("%d isolated nodes get closeness 0", r.Isolated)
	}

	values := func(m Metric) []float64 {
		return lo.Map(r.Nodes, func(n NodeCentrality, _ int) float64 { return n.Value(m) })
	}
	r.Correlations = []Correlation{
		pearson(string(MetricDegree), string(MetricBetweenness), values(MetricDegree), values(MetricBetweenness)),
		pearson(string(MetricDegree), string(MetricCloseness), values(MetricDegree), values(MetricCloseness)),
		pearson(string(MetricBetweenness), string(MetricCloseness), values(MetricBetweenness), values(MetricCloseness)),
	}
	log.Infof("computed centrality of %d nodes and %d edges", len(r.Nodes), len(r.Edges))
	return r
}

func (n NodeCentrality) Value(m Metric) float64 {
	switch m {
	case MetricDegree:
		return n.DegreeC
	case MetricCloseness:
		return n.Closeness
	default:
		return n.Betweenness
	}
}

// Top returns the k nodes with the highest value of the metric, ties broken
// by node ID.
func (r CentralityReport) Top(m Metric, k int) []NodeCentrality {
	nodes := append([]NodeCentrality(nil), r.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		vi, vj := nodes[i].Value(m), nodes[j].Value(m)
		if vi != vj {
			return vi > vj
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes[:min(k, len(nodes))]
}

// TopEdges returns the k edges with the highest betweenness.
func (r CentralityReport) TopEdges(k int) []EdgeCentrality {
	return r.Edges[:min(k, len(r.Edges))]
}

// Node returns the row of the given node.
func (r CentralityReport) Node(id int64) (NodeCentrality, bool) {
	return lo.Find(r.Nodes, func(n NodeCentrality) bool { return n.ID == id })
}
