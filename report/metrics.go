package report

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gauges of one batch run, written once as a Prometheus
// text file at the end of the run.
type Metrics struct {
	registry *prometheus.Registry

	RunInfo       *prometheus.GaugeVec
	StageDuration *prometheus.GaugeVec

	Nodes              prometheus.Gauge
	Edges              prometheus.Gauge
	Components         prometheus.Gauge
	Bridges            prometheus.Gauge
	ArticulationPoints prometheus.Gauge
	MaxBetweenness     prometheus.Gauge
	UnreachableRoutes  prometheus.Gauge

	ScenarioComponents   *prometheus.GaugeVec
	ScenarioDisconnected *prometheus.GaugeVec

	FlowVehicles          *prometheus.GaugeVec
	FlowAgents            prometheus.Gauge
	FlowUnreachableAgents prometheus.Gauge
	FlowMaxSaturation     prometheus.Gauge
	FlowSaturatedEdges    prometheus.Gauge
	FlowUndefinedEdges    prometheus.Gauge
}

func NewMetrics(runID string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		RunInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadnet_run_info",
			Help: "Run identifier (always 1)",
		}, []string{"run_id"}),
		StageDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadnet_stage_duration_seconds",
			Help: "Wall time of each analysis stage",
		}, []string{"stage"}),
		Nodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_nodes",
			Help: "Number of nodes in the network",
		}),
		Edges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_edges",
			Help: "Number of edges in the network",
		}),
		Components: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_components",
			Help: "Number of connected components",
		}),
		Bridges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_bridges",
			Help: "Number of bridges",
		}),
		ArticulationPoints: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_articulation_points",
			Help: "Number of articulation points",
		}),
		MaxBetweenness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_max_betweenness",
			Help: "Largest normalized node betweenness",
		}),
		UnreachableRoutes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_unreachable_routes",
			Help: "Selected pairs without a path",
		}),
		ScenarioComponents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadnet_scenario_components",
			Help: "Connected components after a removal scenario",
		}, []string{"scenario"}),
		ScenarioDisconnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadnet_scenario_disconnected_pairs",
			Help: "Sample pairs disconnected by a removal scenario",
		}, []string{"scenario"}),
		FlowVehicles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadnet_flow_vehicles",
			Help: "Vehicles assigned to each hour",
		}, []string{"hour"}),
		FlowAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_flow_agents",
			Help: "Agents spawned over the day",
		}),
		FlowUnreachableAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_flow_unreachable_agents",
			Help: "Agents whose origin and destination are disconnected",
		}),
		FlowMaxSaturation: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_flow_max_saturation",
			Help: "Largest finite edge saturation",
		}),
		FlowSaturatedEdges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_flow_saturated_edges",
			Help: "Edges with saturation of at least 1",
		}),
		FlowUndefinedEdges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roadnet_flow_undefined_edges",
			Help: "Loaded edges without capacity",
		}),
	}
	m.RunInfo.WithLabelValues(runID).Set(1)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (m *Metrics) ObserveExplore(o analysis.Overview) {
	m.Nodes.Set(float64(o.Nodes))
	m.Edges.Set(float64(o.Edges))
	m.Components.Set(float64(o.Components))
}

func (m *Metrics) ObserveStructural(s analysis.StructuralReport) {
	m.Nodes.Set(float64(s.Nodes))
	m.Edges.Set(float64(s.Edges))
	m.Components.Set(float64(s.LowLink.Components))
	m.Bridges.Set(float64(len(s.Bridges)))
	m.ArticulationPoints.Set(float64(len(s.Articulations)))
}

func (m *Metrics) ObserveCentrality(c analysis.CentralityReport) {
	if top := c.Top(analysis.MetricBetweenness, 1); len(top) > 0 {
		m.MaxBetweenness.Set(top[0].Betweenness)
	}
}

func (m *Metrics) ObservePaths(p analysis.PathsReport) {
	m.UnreachableRoutes.Set(float64(p.Unreachable))
}

func (m *Metrics) ObserveImpact(r analysis.ImpactReport) {
	for _, sc := range r.Scenarios {
		m.ScenarioComponents.WithLabelValues(sc.Scenario.Name).Set(float64(sc.Components))
		m.ScenarioDisconnected.WithLabelValues(sc.Scenario.Name).Set(float64(sc.Sample.Disconnected))
	}
}

func (m *Metrics) ObserveFlow(r *flowsim.Result) {
	for _, h := range r.Hours {
		m.FlowVehicles.WithLabelValues(strconv.Itoa(h.Hour)).Set(float64(h.Flow))
	}
	m.FlowAgents.Set(float64(r.Agents))
	m.FlowUnreachableAgents.Set(float64(r.Unreachable))
	m.FlowMaxSaturation.Set(r.MaxSaturation)
	m.FlowSaturatedEdges.Set(float64(r.Saturated))
	m.FlowUndefinedEdges.Set(float64(r.Undefined))
}

// WriteTextfile writes all gathered metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return err
	}
	log.Infof("wrote %s", path)
	return nil
}
