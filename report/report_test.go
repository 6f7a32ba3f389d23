package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
	"git.fiblab.net/sim/roadnet/report"
	"github.com/paulmach/orb"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runID = "test-run"

// 三角形1-2-3，3-4为桥，4-5容量为0
func fixture(t *testing.T) *algo.Graph {
	g := algo.NewGraph()
	pos := map[int64]orb.Point{1: {0, 0}, 2: {10, 0}, 3: {5, 8}, 4: {5, 20}, 5: {5, 30}}
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, g.AddNode(id, pos[id], true))
	}
	require.NoError(t, g.AddEdge(1, 2, 10, 1500))
	require.NoError(t, g.AddEdge(2, 3, 9, 1500))
	require.NoError(t, g.AddEdge(3, 1, 9, 1500))
	require.NoError(t, g.AddEdge(3, 4, 12, 1500))
	require.NoError(t, g.AddEdge(4, 5, 10, 0))
	return g
}

func simulate(t *testing.T, g *algo.Graph) (*flowsim.Result, flowsim.Config) {
	cfg := flowsim.DefaultConfig()
	cfg.PairStrategy = flowsim.PairStrategic
	cfg.Pairs = []network.Pair{{From: 1, To: 5}}
	s, err := flowsim.NewSimulator(g, cfg)
	require.NoError(t, err)
	r, err := s.Run(flowsim.DailyFlow{Date: cfg.Date, Total: 24000})
	require.NoError(t, err)
	return r, cfg
}

func readCSV(t *testing.T, b *bytes.Buffer) [][]string {
	records, err := csv.NewReader(b).ReadAll()
	require.NoError(t, err)
	return records
}

func TestTextReports(t *testing.T) {
	g := fixture(t)
	s := analysis.Structural(g)
	doc := report.Structural(s, runID).String()
	assert.Contains(t, doc, "Structural analysis")
	assert.Contains(t, doc, runID)
	assert.Contains(t, doc, "(3,4)")
	assert.Contains(t, doc, "(4,5)")
	assert.Contains(t, doc, "articulation points:")

	c := analysis.Centrality(g)
	doc = report.Centrality(c, 3, runID).String()
	assert.Contains(t, doc, "Top 3 nodes by betweenness")
	assert.Contains(t, doc, "pearson r")

	doc = report.Explore(analysis.Explore(g), runID).String()
	assert.Contains(t, doc, "density:")
	assert.Contains(t, doc, "diameter:")

	p, err := analysis.Paths(g, []network.Pair{{From: 1, To: 5, Label: "south-north"}})
	require.NoError(t, err)
	doc = report.Paths(p, runID).String()
	assert.Contains(t, doc, "south-north")
	assert.Contains(t, doc, "1, 3, 4, 5")

	imp, err := analysis.Impact(g, analysis.DefaultScenarios(s, c, 3, 1), nil, 5)
	require.NoError(t, err)
	doc = report.Impact(imp, runID).String()
	assert.Contains(t, doc, "remove bridge")

	r, cfg := simulate(t, g)
	doc = report.Flow(r, cfg, 5, runID).String()
	assert.Contains(t, doc, "undefined")
	assert.Contains(t, doc, "2025-05-01")

	path := filepath.Join(t.TempDir(), "reports", "flow.txt")
	require.NoError(t, report.Flow(r, cfg, 5, runID).WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Flow simulation"))
}

func TestEmptyTable(t *testing.T) {
	d := report.NewDocument("t", runID).Table([]string{"a"}, nil)
	assert.Contains(t, d.String(), "(none)")
}

func TestCentralityCSV(t *testing.T) {
	c := analysis.Centrality(fixture(t))
	var b bytes.Buffer
	require.NoError(t, report.WriteNodeCentrality(&b, c))
	records := readCSV(t, &b)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"rank", "node", "degree", "degree_centrality", "betweenness", "closeness", "isolated"}, records[0])
	assert.Equal(t, "1", records[1][0])
	// 3是介数最大的节点
	assert.Equal(t, "3", records[1][1])

	b.Reset()
	require.NoError(t, report.WriteEdgeCentrality(&b, c))
	records = readCSV(t, &b)
	require.Len(t, records, 6)
	assert.Equal(t, "bridge", records[0][5])
}

func TestFlowCSV(t *testing.T) {
	r, _ := simulate(t, fixture(t))
	var b bytes.Buffer
	require.NoError(t, report.WriteFlowEdges(&b, r))
	records := readCSV(t, &b)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"node1", "node2", "capacity", "total_load", "peak_load", "peak_hour", "saturation", "status"}, records[0])
	// 饱和度无定义的边排在最前
	assert.Equal(t, []string{"4", "5", "0", "24000", "1000", "0", "inf", "undefined"}, records[1])
	last := records[len(records)-1]
	assert.Equal(t, "0", last[6])
	assert.Equal(t, "-1", last[5])
	assert.Equal(t, "ok", last[7])

	b.Reset()
	require.NoError(t, report.WriteFlowHours(&b, r))
	records = readCSV(t, &b)
	require.Len(t, records, flowsim.HOURS+1)
	assert.Equal(t, []string{"0", "1000", "1", "1", "0"}, records[1])
}

func TestPathsAndImpactCSV(t *testing.T) {
	g := fixture(t)
	cut, err := g.Without([]algo.EdgeKey{{U: 3, V: 4}}, nil)
	require.NoError(t, err)
	p, err := analysis.Paths(cut, []network.Pair{{From: 1, To: 5, Label: "cut"}, {From: 1, To: 3}})
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, report.WritePaths(&b, p))
	records := readCSV(t, &b)
	require.Len(t, records, 3)
	assert.Equal(t, "false", records[1][3])
	assert.Equal(t, "", records[1][4])
	assert.Equal(t, "1-3", records[2][0])
	assert.Equal(t, "9", records[2][4])

	s := analysis.Structural(g)
	imp, err := analysis.Impact(g, analysis.DefaultScenarios(s, analysis.Centrality(g), 3, 1), nil, 5)
	require.NoError(t, err)
	b.Reset()
	require.NoError(t, report.WriteImpact(&b, imp))
	records = readCSV(t, &b)
	require.Len(t, records, len(imp.Scenarios)+1)
	assert.Equal(t, "2", records[1][1])
}

func TestPlots(t *testing.T) {
	g := fixture(t)
	dir := t.TempDir()
	s := analysis.Structural(g)
	c := analysis.Centrality(g)
	r, _ := simulate(t, g)

	p, err := report.NetworkPlot(g, "bridges", s.LowLink.Bridges, s.LowLink.ArticulationPoints)
	require.NoError(t, err)
	require.NoError(t, report.SavePlot(p, filepath.Join(dir, "plots", "bridges.png")))

	p, err = report.BetweennessPlot(g, c, 2)
	require.NoError(t, err)
	require.NoError(t, report.SavePlot(p, filepath.Join(dir, "plots", "betweenness.png")))

	p, err = report.SaturationPlot(g, r)
	require.NoError(t, err)
	require.NoError(t, report.SavePlot(p, filepath.Join(dir, "plots", "saturation.png")))

	p, err = report.HourlyFlowPlot(r)
	require.NoError(t, err)
	require.NoError(t, report.SavePlot(p, filepath.Join(dir, "plots", "hourly.png")))

	p, err = report.DegreeHistogramPlot(analysis.Explore(g))
	require.NoError(t, err)
	require.NoError(t, report.SavePlot(p, filepath.Join(dir, "plots", "degree.png")))

	for _, name := range []string{"bridges", "betweenness", "saturation", "hourly", "degree"} {
		info, err := os.Stat(filepath.Join(dir, "plots", name+".png"))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestMetrics(t *testing.T) {
	g := fixture(t)
	m := report.NewMetrics(runID)
	m.ObserveStructural(analysis.Structural(g))
	r, _ := simulate(t, g)
	m.ObserveFlow(r)
	m.ObserveStage("structural", 1500*time.Millisecond)

	var metric dto.Metric
	require.NoError(t, m.Bridges.Write(&metric))
	assert.Equal(t, 2.0, metric.GetGauge().GetValue())

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "roadnet_bridges 2")
	assert.Contains(t, text, "roadnet_articulation_points 2")
	assert.Contains(t, text, `roadnet_run_info{run_id="test-run"} 1`)
	assert.Contains(t, text, `roadnet_stage_duration_seconds{stage="structural"} 1.5`)
	assert.Contains(t, text, "roadnet_flow_undefined_edges 1")
	assert.Contains(t, text, `roadnet_flow_vehicles{hour="0"} 1000`)
}
