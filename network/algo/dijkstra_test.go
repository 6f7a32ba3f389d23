package algo_test

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func TestShortestPathProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("distances match gonum Dijkstra", prop.ForAll(
		func(seed int64, n int) bool {
			edges := randomEdges(seed, n)
			g := buildGraph(t, int64(n), edges)
			ref := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
			for id := int64(1); id <= int64(n); id++ {
				ref.AddNode(simple.Node(id))
			}
			for _, e := range edges {
				ref.SetWeightedEdge(ref.NewWeightedEdge(simple.Node(e.u), simple.Node(e.v), e.length))
			}
			sp := path.DijkstraFrom(simple.Node(1), ref)
			for id := int64(1); id <= int64(n); id++ {
				p, err := g.ShortestPath(1, id)
				if err != nil {
					return false
				}
				want := sp.WeightTo(id)
				if math.IsInf(want, 1) {
					if p.Found {
						return false
					}
					continue
				}
				if !p.Found || math.Abs(p.Length-want) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 25),
	))

	properties.Property("equal weights match breadth-first search", prop.ForAll(
		func(seed int64, n int) bool {
			edges := randomEdges(seed, n)
			for i := range edges {
				edges[i].length = 3
			}
			g := buildGraph(t, int64(n), edges)
			for id := int64(1); id <= int64(n); id++ {
				p, err := g.ShortestPath(1, id)
				if err != nil {
					return false
				}
				h, err := g.HopPath(1, id)
				if err != nil {
					return false
				}
				if p.Found != h.Found {
					return false
				}
				if p.Found && (p.Hops() != h.Hops() || p.Length != 3*float64(h.Hops())) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 25),
	))

	properties.Property("increasing an edge weight never shortens a path", prop.ForAll(
		func(seed int64, n int, which int, extra float64) bool {
			edges := randomEdges(seed, n)
			if len(edges) == 0 {
				return true
			}
			g := buildGraph(t, int64(n), edges)
			heavier := append([]testEdge(nil), edges...)
			heavier[which%len(heavier)].length += extra
			h := buildGraph(t, int64(n), heavier)
			for id := int64(1); id <= int64(n); id++ {
				before, _ := g.ShortestPath(1, id)
				after, _ := h.ShortestPath(1, id)
				if after.Length < before.Length-1e-9 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(2, 25),
		gen.IntRange(0, 1000),
		gen.Float64Range(0, 50),
	))

	properties.TestingRun(t)
}
