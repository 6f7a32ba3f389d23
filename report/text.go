package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
)

// 报告写入文件，只使用边框与留白，不输出颜色
var (
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder(), false, false, true, false)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, true, false).MarginTop(1)
)

// Document is a plain-text report made of sections, key/value fields and
// bordered tables.
type Document struct {
	b strings.Builder
}

func NewDocument(title, runID string) *Document {
	d := &Document{}
	d.b.WriteString(titleStyle.Render(title))
	d.b.WriteString("\n")
	fmt.Fprintf(&d.b, "run %s at %s\n", runID, time.Now().Format("2006-01-02 15:04:05"))
	return d
}

func (d *Document) Section(name string) *Document {
	d.b.WriteString(sectionStyle.Render(name))
	d.b.WriteString("\n")
	return d
}

func (d *Document) Line(format string, args ...any) *Document {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n")
	return d
}

// Fields writes aligned "key: value" lines from alternating keys and values.
func (d *Document) Fields(kv ...string) *Document {
	width := 0
	for i := 0; i+1 < len(kv); i += 2 {
		width = max(width, len(kv[i]))
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&d.b, "%-*s  %s\n", width+1, kv[i]+":", kv[i+1])
	}
	return d
}

func (d *Document) Table(headers []string, rows [][]string) *Document {
	if len(rows) == 0 {
		return d.Line("(none)")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...)
	d.b.WriteString(t.String())
	d.b.WriteString("\n")
	return d
}

func (d *Document) String() string {
	return d.b.String()
}

// WriteFile writes the document, creating the directory when needed.
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(d.String()), 0644); err != nil {
		return err
	}
	log.Infof("wrote %s", path)
	return nil
}

func num(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsNaN(x):
		return "n/a"
	}
	return strconv.FormatFloat(x, 'f', 4, 64)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func pct(x float64) string {
	return strconv.FormatFloat(x*100, 'f', 2, 64) + "%"
}

func ids(xs []int64) string {
	if len(xs) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(xs, func(x int64, _ int) string { return strconv.FormatInt(x, 10) }), ", ")
}

func keys(xs []algo.EdgeKey) string {
	if len(xs) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(xs, func(k algo.EdgeKey, _ int) string { return k.String() }), ", ")
}

func summaryTable(d *Document, s analysis.Summary) {
	d.Table([]string{"count", "total", "mean", "median", "min", "max", "std"}, [][]string{{
		itoa(s.Count), num(s.Total), num(s.Mean), num(s.Median), num(s.Min), num(s.Max), num(s.Std),
	}})
}

// Explore renders the exploratory statistics.
func Explore(o analysis.Overview, runID string) *Document {
	d := NewDocument("Road network overview", runID)
	d.Section("Network").Fields(
		"nodes", itoa(o.Nodes),
		"edges", itoa(o.Edges),
		"located nodes", itoa(o.Located),
		"density", num(o.Density),
		"connected", strconv.FormatBool(o.Connected),
		"components", itoa(o.Components),
		"largest component", itoa(o.LargestComponent),
	)
	d.Section("Degree")
	summaryTable(d, o.Degree)
	d.Table([]string{"degree", "nodes"}, lo.Map(o.DegreeHistogram, func(c analysis.DegreeCount, _ int) []string {
		return []string{itoa(c.Degree), itoa(c.Nodes)}
	}))
	d.Fields("max degree nodes", ids(o.MaxDegreeNodes), "min degree nodes", ids(o.MinDegreeNodes))
	d.Section("Edge length")
	summaryTable(d, o.Length)
	d.Section("Distances in the largest component").Fields(
		"average shortest path", num(o.AvgPathLength),
		"diameter", num(o.Diameter),
	)
	return d
}

// Structural renders bridges and articulation points.
func Structural(s analysis.StructuralReport, runID string) *Document {
	d := NewDocument("Structural analysis", runID)
	d.Section("Connectivity").Fields(
		"nodes", itoa(s.Nodes),
		"edges", itoa(s.Edges),
		"connected", strconv.FormatBool(s.LowLink.Connected),
		"components", itoa(s.LowLink.Components),
		"bridges", fmt.Sprintf("%d (%s of edges)", len(s.Bridges), pct(s.BridgeShare)),
		"articulation points", fmt.Sprintf("%d (%s of nodes)", len(s.Articulations), pct(s.ArticulationShare)),
	)
	d.Section("Bridges")
	d.Table([]string{"#", "edge", "length"}, lo.Map(s.Bridges, func(b analysis.BridgeInfo, i int) []string {
		return []string{itoa(i + 1), b.Key.String(), num(b.Length)}
	}))
	if len(s.Bridges) > 0 {
		summaryTable(d, s.BridgeLength)
	}
	d.Section("Articulation points")
	d.Table([]string{"#", "node", "degree"}, lo.Map(s.Articulations, func(a analysis.ArticulationInfo, i int) []string {
		return []string{itoa(i + 1), strconv.FormatInt(a.ID, 10), itoa(a.Degree)}
	}))
	if len(s.Articulations) > 0 {
		summaryTable(d, s.ArticulationDegree)
	}
	return d
}

// Centrality renders the top k nodes by each metric, the top k edges and the
// correlations between node metrics.
func Centrality(c analysis.CentralityReport, k int, runID string) *Document {
	d := NewDocument("Centrality analysis", runID)
	d.Fields("nodes", itoa(len(c.Nodes)), "edges", itoa(len(c.Edges)), "isolated nodes", itoa(c.Isolated))
	headers := []string{"#", "node", "degree", "degree c.", "betweenness", "closeness"}
	for _, m := range []analysis.Metric{analysis.MetricBetweenness, analysis.MetricCloseness, analysis.MetricDegree} {
		d.Section(fmt.Sprintf("Top %d nodes by %s", k, m))
		d.Table(headers, lo.Map(c.Top(m, k), func(n analysis.NodeCentrality, i int) []string {
			return []string{itoa(i + 1), strconv.FormatInt(n.ID, 10), itoa(n.Degree), num(n.DegreeC), num(n.Betweenness), num(n.Closeness)}
		}))
	}
	d.Section(fmt.Sprintf("Top %d edges by betweenness", k))
	d.Table([]string{"#", "edge", "length", "betweenness", "bridge"}, lo.Map(c.TopEdges(k), func(e analysis.EdgeCentrality, _ int) []string {
		return []string{itoa(e.Rank), e.Key.String(), num(e.Length), num(e.Betweenness), strconv.FormatBool(e.Bridge)}
	}))
	d.Section("Correlations")
	d.Table([]string{"a", "b", "pearson r", "p-value"}, lo.Map(c.Correlations, func(x analysis.Correlation, _ int) []string {
		if !x.Defined {
			return []string{x.A, x.B, "n/a", "n/a"}
		}
		return []string{x.A, x.B, num(x.R), num(x.P)}
	}))
	return d
}

// Paths renders the shortest paths of the selected pairs.
func Paths(p analysis.PathsReport, runID string) *Document {
	d := NewDocument("Shortest paths", runID)
	d.Fields("pairs", itoa(len(p.Routes)), "unreachable", itoa(p.Unreachable))
	d.Section("Routes")
	d.Table([]string{"pair", "from", "to", "length", "edges", "fewest edges", "nodes"}, lo.Map(p.Routes, func(r analysis.Route, _ int) []string {
		if !r.Shortest.Found {
			return []string{r.Pair.Label, strconv.FormatInt(r.Pair.From, 10), strconv.FormatInt(r.Pair.To, 10), "no path", "-", "-", "-"}
		}
		return []string{
			r.Pair.Label, strconv.FormatInt(r.Pair.From, 10), strconv.FormatInt(r.Pair.To, 10),
			num(r.Shortest.Length), itoa(r.Shortest.Hops()), itoa(r.Fewest.Hops()), ids(r.Shortest.Nodes),
		}
	}))
	if p.Length.Count > 0 {
		d.Section("Length of reachable routes")
		summaryTable(d, p.Length)
	}
	return d
}

// Impact renders every scenario against the baseline.
func Impact(r analysis.ImpactReport, runID string) *Document {
	d := NewDocument("Impact simulation", runID)
	d.Fields("baseline components", itoa(r.Components), "baseline connected", strconv.FormatBool(r.Connected))
	for _, sc := range r.Scenarios {
		d.Section(sc.Scenario.Name).Fields(
			"removed edges", keys(sc.Scenario.Edges),
			"removed nodes", ids(sc.Scenario.Nodes),
			"components", fmt.Sprintf("%d (%+d)", sc.Components, sc.ComponentDelta),
			"connected", strconv.FormatBool(sc.Connected),
			"component sizes", strings.Join(lo.Map(sc.ComponentSizes, func(s int, _ int) string { return itoa(s) }), ", "),
			"smallest component", ids(sc.SmallestComponent),
			"sample pairs", itoa(sc.Sample.Pairs),
			"disconnected pairs", itoa(sc.Sample.Disconnected),
			"longer pairs", itoa(sc.Sample.Increased),
			"mean increase", num(sc.Sample.MeanIncrease)+"%",
			"max increase", num(sc.Sample.MaxIncrease)+"%",
		)
		if len(sc.Routes) == 0 {
			continue
		}
		d.Table([]string{"route", "before", "after", "increase", "status"}, lo.Map(sc.Routes, func(rd analysis.RouteDelta, _ int) []string {
			status := "ok"
			switch {
			case rd.Removed:
				status = "endpoint removed"
			case rd.Lost:
				status = "disconnected"
			case rd.IncreasePct > 0:
				status = "detour"
			}
			return []string{rd.Pair.Label, num(rd.Before), num(rd.After), num(rd.IncreasePct) + "%", status}
		}))
	}
	return d
}

// Flow renders the simulated day: the hourly demand and the k most saturated
// edges.
func Flow(r *flowsim.Result, cfg flowsim.Config, k int, runID string) *Document {
	d := NewDocument("Flow simulation", runID)
	d.Section("Configuration").Fields(
		"date", r.Date,
		"daily flow", strconv.FormatInt(r.Total, 10),
		"vehicles per agent", strconv.FormatInt(cfg.VehiclesPerAgent, 10),
		"max agents per hour", itoa(cfg.MaxAgentsPerHour),
		"pair strategy", string(cfg.PairStrategy),
		"aggregation", string(cfg.Aggregation),
		"agent weighting", string(cfg.AgentWeighting),
		"seed", strconv.FormatInt(cfg.Seed, 10),
	)
	d.Section("Summary").Fields(
		"agents", itoa(r.Agents),
		"unreachable agents", itoa(r.Unreachable),
		"loaded edges", fmt.Sprintf("%d of %d", r.Loaded, len(r.Edges)),
		"saturated edges", itoa(r.Saturated),
		"undefined saturation", itoa(r.Undefined),
		"max saturation", num(r.MaxSaturation),
	)
	d.Section("Hours")
	d.Table([]string{"hour", "flow", "agents", "routed", "unreachable"}, lo.Map(r.Hours, func(h flowsim.HourStat, _ int) []string {
		return []string{fmt.Sprintf("%02d", h.Hour), strconv.FormatInt(h.Flow, 10), itoa(h.Agents), itoa(h.Routed), itoa(h.Unreachable)}
	}))
	d.Section(fmt.Sprintf("Top %d saturated edges", k))
	d.Table([]string{"edge", "capacity", "total", "peak", "peak hour", "saturation", "status"}, lo.Map(r.Top(k), func(e flowsim.EdgeLoad, _ int) []string {
		return []string{e.Key.String(), num(e.Capacity), num(e.Total), num(e.Peak), peakHour(e.PeakHour), num(e.Saturation), e.Status}
	}))
	return d
}

func peakHour(h int) string {
	if h < 0 {
		return "-"
	}
	return fmt.Sprintf("%02d", h)
}
