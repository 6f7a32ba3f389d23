package analysis

import (
	"fmt"

	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
)

// Route is the shortest path answer for one pair. Fewest is the path with the
// fewest edges, kept for comparison.
type Route struct {
	Pair     network.Pair
	Shortest algo.Path
	Fewest   algo.Path
}

type PathsReport struct {
	Routes      []Route
	Unreachable int
	Length      Summary // 可达路径的长度
}

// Paths computes the weighted shortest path of every pair. A pair naming an
// unknown node is an error; an unreachable pair is reported with
// Shortest.Found == false.
func Paths(g *algo.Graph, pairs []network.Pair) (PathsReport, error) {
	r := PathsReport{}
	for _, pair := range pairs {
		if pair.Label == "" {
			pair.Label = fmt.Sprintf("%d-%d", pair.From, pair.To)
		}
		sp, err := g.ShortestPath(pair.From, pair.To)
		if err != nil {
			return r, fmt.Errorf("pair %s: %w", pair.Label, err)
		}
		fp, err := g.HopPath(pair.From, pair.To)
		if err != nil {
			return r, fmt.Errorf("pair %s: %w", pair.Label, err)
		}
		if !sp.Found {
			log.Warnf("no path for pair %s (%d -> %d)", pair.Label, pair.From, pair.To)
			r.Unreachable++
		}
		r.Routes = append(r.Routes, Route{Pair: pair, Shortest: sp, Fewest: fp})
	}
	found := lo.Filter(r.Routes, func(rt Route, _ int) bool { return rt.Shortest.Found })
	r.Length = Describe(lo.Map(found, func(rt Route, _ int) float64 { return rt.Shortest.Length }))
	log.Infof("computed %d routes, %d unreachable", len(r.Routes), r.Unreachable)
	return r, nil
}
