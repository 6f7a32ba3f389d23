package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
	"git.fiblab.net/sim/roadnet/report"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
)

type Stage string

const (
	StageExplore    Stage = "explore"
	StageStructural Stage = "structural"
	StageCentrality Stage = "centrality"
	StagePaths      Stage = "paths"
	StageImpact     Stage = "impact"
	StageFlow       Stage = "flowsim"
)

var ALL_STAGES = []Stage{StageExplore, StageStructural, StageCentrality, StagePaths, StageImpact, StageFlow}

// App runs analysis stages over one loaded network and writes their outputs
// under Options.Out. Stages share intermediate results, so the impact stage
// reuses the structural and centrality results when they were already run.
type App struct {
	opts       Options
	RunID      string
	Network    *network.Network
	FlowConfig flowsim.Config
	metrics    *report.Metrics

	structural *analysis.StructuralReport
	centrality *analysis.CentralityReport
	pairs      []network.Pair
}

// New loads the flow configuration and the network.
func New(opts Options) (*App, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg, err := flowsim.LoadConfig(opts.FlowConfig)
	if err != nil {
		return nil, fmt.Errorf("load flow config: %w", err)
	}
	if opts.Seed >= 0 {
		cfg.Seed = opts.Seed
	}
	net, err := network.LoadWithCache(opts.CacheDir, network.Options{
		EdgeList:        opts.EdgeList,
		EdgeInfo:        opts.EdgeInfo,
		Capacities:      opts.Capacities,
		DefaultCapacity: cfg.Capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	runID := uuid.NewString()
	log.Infof("run %s: %d nodes, %d edges", runID, net.Graph.NumNodes(), net.Graph.NumEdges())
	return &App{
		opts:       opts,
		RunID:      runID,
		Network:    net,
		FlowConfig: cfg,
		metrics:    report.NewMetrics(runID),
	}, nil
}

func (a *App) Graph() *algo.Graph {
	return a.Network.Graph
}

// Run executes the stages in order and writes the run metrics.
func (a *App) Run(ctx context.Context, stages ...Stage) error {
	for _, s := range stages {
		start := time.Now()
		log.Infof("stage %s started", s)
		if err := a.runStage(ctx, s); err != nil {
			return fmt.Errorf("stage %s: %w", s, err)
		}
		a.metrics.ObserveStage(string(s), time.Since(start))
		log.Infof("stage %s finished in %v", s, time.Since(start))
	}
	return a.metrics.WriteTextfile(filepath.Join(a.opts.Out, "metrics.prom"))
}

func (a *App) runStage(ctx context.Context, s Stage) error {
	switch s {
	case StageExplore:
		return a.Explore()
	case StageStructural:
		return a.Structural()
	case StageCentrality:
		return a.Centrality()
	case StagePaths:
		return a.Paths()
	case StageImpact:
		return a.Impact()
	case StageFlow:
		return a.Flow(ctx)
	}
	return fmt.Errorf("unknown stage %q", s)
}

func (a *App) reportPath(name string) string {
	return filepath.Join(a.opts.Out, "reports", name)
}

func (a *App) tablePath(name string) string {
	return filepath.Join(a.opts.Out, "tables", name)
}

func (a *App) plotPath(name string) string {
	return filepath.Join(a.opts.Out, "plots", name)
}

func (a *App) savePlot(name string, build func() (*plot.Plot, error)) error {
	p, err := build()
	if err != nil {
		return fmt.Errorf("plot %s: %w", name, err)
	}
	return report.SavePlot(p, a.plotPath(name))
}

func (a *App) getStructural() analysis.StructuralReport {
	if a.structural == nil {
		s := analysis.Structural(a.Graph())
		a.structural = &s
	}
	return *a.structural
}

func (a *App) getCentrality() analysis.CentralityReport {
	if a.centrality == nil {
		c := analysis.Centrality(a.Graph())
		a.centrality = &c
	}
	return *a.centrality
}

// getPairs returns the configured flow pairs, or the strategic pairs of the
// network.
func (a *App) getPairs() []network.Pair {
	if a.pairs == nil {
		a.pairs = a.FlowConfig.Pairs
		if len(a.pairs) == 0 {
			a.pairs = network.StrategicPairs(a.Graph())
		}
		if len(a.pairs) == 0 {
			log.Warn("no located nodes, no strategic pairs selected")
			a.pairs = []network.Pair{}
		}
	}
	return a.pairs
}

func (a *App) Explore() error {
	o := analysis.Explore(a.Graph())
	a.metrics.ObserveExplore(o)
	if err := report.Explore(o, a.RunID).WriteFile(a.reportPath("01_exploratory.txt")); err != nil {
		return err
	}
	if err := a.savePlot("01_network.png", func() (*plot.Plot, error) {
		return report.NetworkPlot(a.Graph(), "Road network", nil, nil)
	}); err != nil {
		return err
	}
	if len(o.DegreeHistogram) == 0 {
		return nil
	}
	return a.savePlot("01_degree_distribution.png", func() (*plot.Plot, error) {
		return report.DegreeHistogramPlot(o)
	})
}

func (a *App) Structural() error {
	s := a.getStructural()
	a.metrics.ObserveStructural(s)
	if err := report.Structural(s, a.RunID).WriteFile(a.reportPath("02_structural.txt")); err != nil {
		return err
	}
	return a.savePlot("02_bridges.png", func() (*plot.Plot, error) {
		return report.NetworkPlot(a.Graph(), "Bridges and articulation points", s.LowLink.Bridges, s.LowLink.ArticulationPoints)
	})
}

func (a *App) Centrality() error {
	c := a.getCentrality()
	a.metrics.ObserveCentrality(c)
	if err := report.Centrality(c, a.opts.Top, a.RunID).WriteFile(a.reportPath("03_centrality.txt")); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("03_node_centrality.csv"), func(w io.Writer) error {
		return report.WriteNodeCentrality(w, c)
	}); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("03_edge_centrality.csv"), func(w io.Writer) error {
		return report.WriteEdgeCentrality(w, c)
	}); err != nil {
		return err
	}
	return a.savePlot("03_betweenness.png", func() (*plot.Plot, error) {
		return report.BetweennessPlot(a.Graph(), c, a.opts.Top)
	})
}

func (a *App) Paths() error {
	p, err := analysis.Paths(a.Graph(), a.getPairs())
	if err != nil {
		return err
	}
	a.metrics.ObservePaths(p)
	if err := report.Paths(p, a.RunID).WriteFile(a.reportPath("04_paths.txt")); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("04_paths.csv"), func(w io.Writer) error {
		return report.WritePaths(w, p)
	}); err != nil {
		return err
	}
	edges := lo.Uniq(lo.FlatMap(p.Routes, func(r analysis.Route, _ int) []algo.EdgeKey { return r.Shortest.Edges }))
	ends := lo.Uniq(lo.FlatMap(p.Routes, func(r analysis.Route, _ int) []int64 { return []int64{r.Pair.From, r.Pair.To} }))
	return a.savePlot("04_paths.png", func() (*plot.Plot, error) {
		return report.NetworkPlot(a.Graph(), "Shortest paths between strategic pairs", edges, ends)
	})
}

func (a *App) Impact() error {
	scenarios := analysis.DefaultScenarios(a.getStructural(), a.getCentrality(),
		analysis.DEFAULT_TOP_BRIDGES, analysis.DEFAULT_TOP_ARTICULATIONS)
	r, err := analysis.Impact(a.Graph(), scenarios, a.getPairs(), a.opts.SampleNodes)
	if err != nil {
		return err
	}
	a.metrics.ObserveImpact(r)
	if err := report.Impact(r, a.RunID).WriteFile(a.reportPath("05_impact.txt")); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("05_impact.csv"), func(w io.Writer) error {
		return report.WriteImpact(w, r)
	}); err != nil {
		return err
	}
	return a.savePlot("05_components.png", func() (*plot.Plot, error) {
		return report.ComponentsPlot(r)
	})
}

func (a *App) Flow(ctx context.Context) error {
	path, err := flowsim.NewPath(a.opts.Flow)
	if err != nil {
		return err
	}
	records, err := flowsim.ReadDailyFlows(ctx, a.opts.MongoURI, path, a.opts.CacheDir)
	if err != nil {
		return err
	}
	flow, err := flowsim.FindDailyFlow(records, a.FlowConfig.Date)
	if err != nil {
		return err
	}
	sim, err := flowsim.NewSimulator(a.Graph(), a.FlowConfig)
	if err != nil {
		return err
	}
	r, err := sim.Run(flow)
	if err != nil {
		return err
	}
	a.metrics.ObserveFlow(r)
	if err := report.Flow(r, a.FlowConfig, a.opts.Top, a.RunID).WriteFile(a.reportPath("06_flow.txt")); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("06_flow_saturation.csv"), func(w io.Writer) error {
		return report.WriteFlowEdges(w, r)
	}); err != nil {
		return err
	}
	if err := report.WriteCSVFile(a.tablePath("06_flow_hourly.csv"), func(w io.Writer) error {
		return report.WriteFlowHours(w, r)
	}); err != nil {
		return err
	}
	if err := a.savePlot("06_saturation.png", func() (*plot.Plot, error) {
		return report.SaturationPlot(a.Graph(), r)
	}); err != nil {
		return err
	}
	return a.savePlot("06_hourly_flow.png", func() (*plot.Plot, error) {
		return report.HourlyFlowPlot(r)
	})
}

// Main parses the command line, runs the stages and exits with status 1 on
// any failure.
func Main(stages ...Stage) {
	opts := DefaultOptions()
	opts.Register(flag.CommandLine)
	flag.Parse()
	if err := SetupLogging(opts.LogLevel); err != nil {
		log.Fatal(err)
	}
	a, err := New(opts)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	if err := a.Run(context.Background(), stages...); err != nil {
		log.Fatalf("failed: %v", err)
	}
}
