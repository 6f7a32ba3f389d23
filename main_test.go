package main

import (
	"math"
	"testing"

	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 4x4网格，横向边长1，纵向边长2，另有孤立点100
func grid(t testing.TB) *algo.Graph {
	g := algo.NewGraph()
	id := func(x, y int) int64 { return int64(y*4 + x + 1) }
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			require.NoError(t, g.AddNode(id(x, y), orb.Point{float64(x), float64(y)}, true))
		}
	}
	require.NoError(t, g.AddNode(100, orb.Point{10, 10}, true))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 3 {
				require.NoError(t, g.AddEdge(id(x, y), id(x+1, y), 1, 1500))
			}
			if y < 3 {
				require.NoError(t, g.AddEdge(id(x, y), id(x, y+1), 2, 1500))
			}
		}
	}
	return g
}

func TestRandomQueries(t *testing.T) {
	g := grid(t)
	qs := randomQueries(g, 500, 1)
	require.Len(t, qs, 500)
	for _, q := range qs {
		assert.NotEqual(t, q.from, q.to)
		assert.True(t, g.HasNode(q.from))
		assert.True(t, g.HasNode(q.to))
	}
	assert.Equal(t, qs, randomQueries(g, 500, 1))
	assert.Nil(t, randomQueries(algo.NewGraph(), 10, 1))
}

func TestRunQueries(t *testing.T) {
	g := grid(t)
	qs := randomQueries(g, 200, 3)
	unreachable := 0
	for _, q := range qs {
		if q.from == 100 || q.to == 100 {
			unreachable++
		}
	}
	for _, cpu := range []int{1, 4} {
		r := runQueries(g, qs, cpu)
		assert.Equal(t, 200, r.Count)
		assert.Equal(t, 0, r.Failed)
		assert.Equal(t, 200-unreachable, r.Found)
		assert.Equal(t, 200, r.Latency.Count)
	}
}

func FuzzShortestPath(f *testing.F) {
	g := grid(f)
	f.Add(uint8(1), uint8(16))
	f.Add(uint8(5), uint8(5))
	f.Add(uint8(3), uint8(100))
	f.Fuzz(func(t *testing.T, from, to uint8) {
		p, err := g.ShortestPath(int64(from), int64(to))
		if !g.HasNode(int64(from)) || !g.HasNode(int64(to)) {
			assert.ErrorIs(t, err, algo.ErrNodeNotFound)
			return
		}
		require.NoError(t, err)
		if !p.Found {
			assert.True(t, math.IsInf(p.Length, 1))
			assert.True(t, from == 100 || to == 100)
			return
		}
		// 网格上的最短路：横向距离 + 2*纵向距离
		dx := math.Abs(float64((int(from)-1)%4 - (int(to)-1)%4))
		dy := math.Abs(float64((int(from)-1)/4 - (int(to)-1)/4))
		assert.Equal(t, dx+2*dy, p.Length)
		assert.Equal(t, int64(from), p.Nodes[0])
		assert.Equal(t, int64(to), p.Nodes[len(p.Nodes)-1])
		assert.Len(t, p.Edges, len(p.Nodes)-1)
	})
}
