package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
)

func csvNum(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func csvInt(x int64) string {
	return strconv.FormatInt(x, 10)
}

// WriteCSVFile creates path and fills it with write.
func WriteCSVFile(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Infof("wrote %s", path)
	return nil
}

func writeRows(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNodeCentrality writes one row per node ranked by betweenness.
func WriteNodeCentrality(w io.Writer, c analysis.CentralityReport) error {
	return writeRows(w, []string{"rank", "node", "degree", "degree_centrality", "betweenness", "closeness", "isolated"}, len(c.Nodes), func(i int) []string {
		n := c.Nodes[i]
		return []string{
			strconv.Itoa(n.Rank), csvInt(n.ID), strconv.Itoa(n.Degree),
			csvNum(n.DegreeC), csvNum(n.Betweenness), csvNum(n.Closeness), strconv.FormatBool(n.Isolated),
		}
	})
}

// WriteEdgeCentrality writes one row per edge ranked by betweenness.
func WriteEdgeCentrality(w io.Writer, c analysis.CentralityReport) error {
	return writeRows(w, []string{"rank", "node1", "node2", "length", "betweenness", "bridge"}, len(c.Edges), func(i int) []string {
		e := c.Edges[i]
		return []string{strconv.Itoa(e.Rank), csvInt(e.Key.U), csvInt(e.Key.V), csvNum(e.Length), csvNum(e.Betweenness), strconv.FormatBool(e.Bridge)}
	})
}

// WritePaths writes one row per route. Unreachable routes have found=false
// and an empty length.
func WritePaths(w io.Writer, p analysis.PathsReport) error {
	return writeRows(w, []string{"label", "from", "to", "found", "length", "edges", "fewest_edges", "nodes"}, len(p.Routes), func(i int) []string {
		r := p.Routes[i]
		if !r.Shortest.Found {
			return []string{r.Pair.Label, csvInt(r.Pair.From), csvInt(r.Pair.To), "false", "", "", "", ""}
		}
		return []string{
			r.Pair.Label, csvInt(r.Pair.From), csvInt(r.Pair.To), "true",
			csvNum(r.Shortest.Length), strconv.Itoa(r.Shortest.Hops()), strconv.Itoa(r.Fewest.Hops()), ids(r.Shortest.Nodes),
		}
	})
}

// WriteImpact writes one row per scenario.
func WriteImpact(w io.Writer, r analysis.ImpactReport) error {
	header := []string{"scenario", "components", "component_delta", "connected", "sample_pairs", "disconnected_pairs", "longer_pairs", "mean_increase_pct", "max_increase_pct"}
	return writeRows(w, header, len(r.Scenarios), func(i int) []string {
		sc := r.Scenarios[i]
		return []string{
			sc.Scenario.Name, strconv.Itoa(sc.Components), strconv.Itoa(sc.ComponentDelta), strconv.FormatBool(sc.Connected),
			strconv.Itoa(sc.Sample.Pairs), strconv.Itoa(sc.Sample.Disconnected), strconv.Itoa(sc.Sample.Increased),
			csvNum(sc.Sample.MeanIncrease), csvNum(sc.Sample.MaxIncrease),
		}
	})
}

// WriteFlowEdges writes the load and saturation of every edge, most saturated
// first. Undefined saturation is written as "inf".
func WriteFlowEdges(w io.Writer, r *flowsim.Result) error {
	edges := r.Top(len(r.Edges))
	header := []string{"node1", "node2", "capacity", "total_load", "peak_load", "peak_hour", "saturation", "status"}
	return writeRows(w, header, len(edges), func(i int) []string {
		e := edges[i]
		sat := csvNum(e.Saturation)
		if e.Status == flowsim.StatusUndefined {
			sat = "inf"
		}
		return []string{
			csvInt(e.Key.U), csvInt(e.Key.V), csvNum(e.Capacity), csvNum(e.Total), csvNum(e.Peak),
			strconv.Itoa(e.PeakHour), sat, e.Status,
		}
	})
}

// WriteFlowHours writes the hourly demand and routing counts.
func WriteFlowHours(w io.Writer, r *flowsim.Result) error {
	return writeRows(w, []string{"hour", "flow", "agents", "routed", "unreachable"}, len(r.Hours), func(i int) []string {
		h := r.Hours[i]
		return []string{strconv.Itoa(h.Hour), csvInt(h.Flow), strconv.Itoa(h.Agents), strconv.Itoa(h.Routed), strconv.Itoa(h.Unreachable)}
	})
}
