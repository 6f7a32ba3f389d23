package network_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const edgeList = `# source target
1 2
2 3
3 1 7.5
3 4

4 5 12
`

const edgeInfo = `# id n1 x1 y1 n2 x2 y2 dist
0 1 0 0 2 100 0 100
1 3 100 100 2 100 0 120
2 1 0 0 3 100 100 141
3 3 100 100 4 200 100 -1
4 9 5 5 1 0 0 10
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	n, err := network.Load(network.Options{
		EdgeList:        writeFile(t, dir, "city.net", edgeList),
		EdgeInfo:        writeFile(t, dir, "city_edge_info.txt", edgeInfo),
		DefaultCapacity: 1500,
	})
	require.NoError(t, err)
	g := n.Graph
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, 5, g.NumEdges())

	// 边信息中的距离
	e, ok := g.Edge(2, 1)
	require.True(t, ok)
	assert.Equal(t, 100.0, e.Length)
	assert.Equal(t, 1500.0, e.Capacity)
	e, _ = g.Edge(2, 3)
	assert.Equal(t, 120.0, e.Length)
	// 边列表中的权值优先
	e, _ = g.Edge(1, 3)
	assert.Equal(t, 7.5, e.Length)
	// 非正距离回退到坐标距离
	e, _ = g.Edge(3, 4)
	assert.InDelta(t, 100.0, e.Length, 1e-9)

	node, ok := g.Node(3)
	require.True(t, ok)
	assert.True(t, node.Located)
	assert.Equal(t, 100.0, node.P.X())
	node, _ = g.Node(5)
	assert.False(t, node.Located)

	assert.Equal(t, 5, n.Stats.EdgeRows)
	assert.Equal(t, 5, n.Stats.InfoRows)
	assert.Equal(t, 1, n.Stats.UnmatchedInfoRows)
	assert.Equal(t, 1, n.Stats.InvalidDistances)
	assert.Equal(t, 1, n.Stats.EuclideanLengths)
}

func TestLoadMissingLengthFails(t *testing.T) {
	dir := t.TempDir()
	// 4-5既没有距离也没有坐标
	_, err := network.Load(network.Options{
		EdgeList: writeFile(t, dir, "city.net", "1 2 3\n\n# c\n4 5\n"),
	})
	var pe *network.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Contains(t, err.Error(), "city.net:4:")
	assert.ErrorIs(t, err, network.ErrNoLength)
}

func TestLoadEdgeInfoOpaqueID(t *testing.T) {
	dir := t.TempDir()
	// 边编号可以是任意字符串
	info := writeFile(t, dir, "info.txt", "e1 1 0 0 2 3 4 5\nroad-7 2 3 4 3 3 0 4\n")
	n, err := network.Load(network.Options{EdgeInfo: info})
	require.NoError(t, err)
	assert.Equal(t, 2, n.Graph.NumEdges())
	e, ok := n.Graph.Edge(2, 3)
	require.True(t, ok)
	assert.Equal(t, 4.0, e.Length)
}

func TestLoadNodeOrder(t *testing.T) {
	dir := t.TempDir()
	n, err := network.Load(network.Options{EdgeList: writeFile(t, dir, "order.net", "5 3 1\n3 1 1\n7 5 2\n")})
	require.NoError(t, err)
	// 节点按在边列表中首次出现的顺序
	ids := lo.Map(n.Graph.Nodes(), func(node algo.Node, _ int) int64 { return node.ID })
	assert.Equal(t, []int64{5, 3, 1, 7}, ids)
}

func TestLoadParseErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name     string
		edgeList string
		edgeInfo string
		line     int
	}{
		{"too many fields", "1 2 3 4\n", "", 1},
		{"bad node", "1 2\n# c\nx 2\n", "", 3},
		{"self loop", "1 1\n", "", 1},
		{"zero weight", "1 2 0\n", "", 1},
		{"short info row", "1 2\n", "0 1 0 0 2\n", 1},
		{"bad info number", "1 2\n", "\n0 1 0 0 2 1 y 5\n", 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := network.Options{EdgeList: writeFile(t, dir, "e.net", c.edgeList)}
			if c.edgeInfo != "" {
				opts.EdgeInfo = writeFile(t, dir, "e.info", c.edgeInfo)
			}
			_, err := network.Load(opts)
			var pe *network.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.line, pe.Line)
			assert.Contains(t, err.Error(), ":"+strconv.Itoa(c.line)+":")
		})
	}

	_, err := network.Load(network.Options{})
	assert.ErrorIs(t, err, network.ErrNoInput)
	_, err = network.Load(network.Options{EdgeList: filepath.Join(dir, "missing.net")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromEdgeInfoOnlyWithCapacities(t *testing.T) {
	dir := t.TempDir()
	info := writeFile(t, dir, "info.txt", "0 1 0 0 2 3 4 5\n1 2 3 4 3 3 0 4\n")
	caps := writeFile(t, dir, "caps.csv", "node1,node2,capacity\n2,1,0\n3,2,800\n7,8,100\n")
	n, err := network.Load(network.Options{EdgeInfo: info, Capacities: caps, DefaultCapacity: 1500})
	require.NoError(t, err)
	assert.Equal(t, 3, n.Graph.NumNodes())
	e, _ := n.Graph.Edge(1, 2)
	assert.Equal(t, 5.0, e.Length)
	assert.Equal(t, 0.0, e.Capacity)
	e, _ = n.Graph.Edge(2, 3)
	assert.Equal(t, 800.0, e.Capacity)
	assert.Equal(t, 3, n.Stats.CapacityRows)
	assert.Equal(t, 1, n.Stats.UnmatchedCapacity)

	bad := writeFile(t, dir, "bad.csv", "node1,node2,capacity\n1,2,-3\n")
	_, err = network.Load(network.Options{EdgeInfo: info, Capacities: bad})
	var pe *network.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.ErrorIs(t, err, algo.ErrNegativeCapacity)
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	opts := network.Options{
		EdgeList:        writeFile(t, dir, "city.net", edgeList),
		EdgeInfo:        writeFile(t, dir, "city_edge_info.txt", edgeInfo),
		DefaultCapacity: 1500,
	}
	cacheDir := filepath.Join(dir, "cache")
	first, err := network.LoadWithCache(cacheDir, opts)
	require.NoError(t, err)
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	second, err := network.LoadWithCache(cacheDir, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Graph.Nodes(), second.Graph.Nodes())
	assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
	assert.Equal(t, first.Stats, second.Stats)
}

func TestStrategicPairs(t *testing.T) {
	dir := t.TempDir()
	// 十字形：中心5，西1 东2 南3 北4
	info := writeFile(t, dir, "info.txt", `0 1 -100 0 5 0 0 100
1 5 0 0 2 100 0 100
2 3 0 -100 5 0 0 100
3 5 0 0 4 0 100 100
`)
	n, err := network.Load(network.Options{EdgeInfo: info})
	require.NoError(t, err)
	pairs := network.StrategicPairs(n.Graph)
	assert.Equal(t, []network.Pair{
		{From: 1, To: 2, Label: "West-East"},
		{From: 3, To: 4, Label: "South-North"},
		{From: 1, To: 5, Label: "West-Center"},
		{From: 2, To: 5, Label: "East-Center"},
		{From: 3, To: 5, Label: "South-Center"},
	}, pairs)

	bare := algo.NewGraph()
	assert.Nil(t, network.StrategicPairs(bare))
}
