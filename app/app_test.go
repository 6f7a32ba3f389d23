package app_test

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.fiblab.net/sim/roadnet/app"
	"git.fiblab.net/sim/roadnet/flowsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两个三角形由桥(3,4)相连
const (
	edgeList = `# two triangles
1 2
2 3
3 1
3 4
4 5
5 6
6 4
`
	edgeInfo = `e1 1 0 0 2 100 0 100
e2 2 100 0 3 50 80 95
e3 3 50 80 1 0 0 95
e4 3 50 80 4 50 200 120
e5 4 50 200 5 0 280 95
e6 5 0 280 6 100 280 100
e7 6 100 280 4 50 200 95
`
	flowCSV = "date,total_flow\n2025-05-01,24000\n2025-05-02,48000\n"
)

func writeInputs(t *testing.T) app.Options {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	opts := app.DefaultOptions()
	opts.EdgeList = write("net.txt", edgeList)
	opts.EdgeInfo = write("info.txt", edgeInfo)
	opts.Flow = write("flow.csv", flowCSV)
	opts.Out = filepath.Join(dir, "results")
	opts.Top = 3
	return opts
}

func TestRunAllStages(t *testing.T) {
	opts := writeInputs(t)
	a, err := app.New(opts)
	require.NoError(t, err)
	assert.Equal(t, 6, a.Graph().NumNodes())
	assert.Equal(t, 7, a.Graph().NumEdges())
	assert.NotEmpty(t, a.RunID)

	require.NoError(t, a.Run(context.Background(), app.ALL_STAGES...))
	for _, name := range []string{
		"reports/01_exploratory.txt",
		"reports/02_structural.txt",
		"reports/03_centrality.txt",
		"reports/04_paths.txt",
		"reports/05_impact.txt",
		"reports/06_flow.txt",
		"tables/03_node_centrality.csv",
		"tables/03_edge_centrality.csv",
		"tables/04_paths.csv",
		"tables/05_impact.csv",
		"tables/06_flow_saturation.csv",
		"tables/06_flow_hourly.csv",
		"plots/01_network.png",
		"plots/01_degree_distribution.png",
		"plots/02_bridges.png",
		"plots/03_betweenness.png",
		"plots/04_paths.png",
		"plots/05_components.png",
		"plots/06_saturation.png",
		"plots/06_hourly_flow.png",
		"metrics.prom",
	} {
		info, err := os.Stat(filepath.Join(opts.Out, name))
		if assert.NoError(t, err, name) {
			assert.Greater(t, info.Size(), int64(0), name)
		}
	}

	data, err := os.ReadFile(filepath.Join(opts.Out, "reports", "02_structural.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "(3,4)")

	metrics, err := os.ReadFile(filepath.Join(opts.Out, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "roadnet_bridges 1")
	assert.Contains(t, string(metrics), `roadnet_run_info{run_id="`+a.RunID+`"} 1`)

	hourly, err := os.ReadFile(filepath.Join(opts.Out, "tables", "06_flow_hourly.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(hourly)), "\n")
	require.Len(t, lines, flowsim.HOURS+1)
	assert.Equal(t, "0,1000,1,1,0", lines[1])
}

func TestRunSingleStage(t *testing.T) {
	opts := writeInputs(t)
	a, err := app.New(opts)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background(), app.StageImpact))
	_, err = os.Stat(filepath.Join(opts.Out, "reports", "05_impact.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(opts.Out, "reports", "02_structural.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, a.Run(context.Background(), app.Stage("unknown")))
}

func TestFlowConfigAndSeed(t *testing.T) {
	opts := writeInputs(t)
	cfgPath := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("date: \"2025-05-02\"\ncapacity: 800\nseed: 4\n"), 0644))
	opts.FlowConfig = cfgPath
	opts.Seed = 9
	a, err := app.New(opts)
	require.NoError(t, err)
	assert.Equal(t, int64(9), a.FlowConfig.Seed)
	assert.Equal(t, "2025-05-02", a.FlowConfig.Date)
	e, ok := a.Graph().Edge(1, 2)
	require.True(t, ok)
	assert.Equal(t, 800.0, e.Capacity)
	require.NoError(t, a.Run(context.Background(), app.StageFlow))

	require.NoError(t, os.WriteFile(cfgPath, []byte("date: \"2024-01-01\"\n"), 0644))
	a, err = app.New(opts)
	require.NoError(t, err)
	err = a.Run(context.Background(), app.StageFlow)
	assert.ErrorIs(t, err, flowsim.ErrDateNotFound)
}

func TestNewErrors(t *testing.T) {
	opts := writeInputs(t)
	opts.Top = 0
	_, err := app.New(opts)
	assert.Error(t, err)

	opts = writeInputs(t)
	opts.EdgeList = filepath.Join(t.TempDir(), "missing.txt")
	_, err = app.New(opts)
	assert.Error(t, err)

	opts = writeInputs(t)
	opts.EdgeList, opts.EdgeInfo = "", ""
	_, err = app.New(opts)
	assert.Error(t, err)
}

func TestRegisterFlags(t *testing.T) {
	opts := app.DefaultOptions()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts.Register(fs)
	require.NoError(t, fs.Parse([]string{"-edges", "a.net", "-out", "x", "-top", "5", "-seed", "3", "-log-level", "debug"}))
	assert.Equal(t, "a.net", opts.EdgeList)
	assert.Equal(t, "x", opts.Out)
	assert.Equal(t, 5, opts.Top)
	assert.Equal(t, int64(3), opts.Seed)
	assert.Equal(t, app.DefaultOptions().EdgeInfo, opts.EdgeInfo)

	assert.NoError(t, app.SetupLogging("debug"))
	assert.Error(t, app.SetupLogging("verbose"))
	require.NoError(t, app.SetupLogging("info"))
}
