package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/flowsim"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	PLOT_SIZE = 8 * vg.Inch
)

var (
	edgeColor      = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	nodeColor      = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	highlightColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	barColor       = color.RGBA{R: 50, G: 110, B: 180, A: 255}
)

// SavePlot writes p as an image; the format follows the file extension.
func SavePlot(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := p.Save(PLOT_SIZE, PLOT_SIZE, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	log.Infof("wrote %s", path)
	return nil
}

func newMapPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	return p
}

// segment returns the line of an edge, or nil when an endpoint has no
// coordinates.
func segment(g *algo.Graph, k algo.EdgeKey, c color.Color, width vg.Length) (*plotter.Line, error) {
	u, ok1 := g.Node(k.U)
	v, ok2 := g.Node(k.V)
	if !ok1 || !ok2 || !u.Located || !v.Located {
		return nil, nil
	}
	l, err := plotter.NewLine(plotter.XYs{{X: u.P.X(), Y: u.P.Y()}, {X: v.P.X(), Y: v.P.Y()}})
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = width
	return l, nil
}

func scatter(g *algo.Graph, nodes []int64, c color.Color, radius vg.Length) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, 0, len(nodes))
	for _, id := range nodes {
		if n, ok := g.Node(id); ok && n.Located {
			xys = append(xys, plotter.XY{X: n.P.X(), Y: n.P.Y()})
		}
	}
	if len(xys) == 0 {
		return nil, nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// NetworkPlot draws the located part of the network with the given edges and
// nodes highlighted.
func NetworkPlot(g *algo.Graph, title string, edges []algo.EdgeKey, nodes []int64) (*plot.Plot, error) {
	p := newMapPlot(title)
	hl := lo.Associate(edges, func(k algo.EdgeKey) (algo.EdgeKey, bool) { return k, true })
	var thumb *plotter.Line
	for _, e := range g.Edges() {
		c, w := color.Color(edgeColor), vg.Points(1)
		if hl[e.Key()] {
			c, w = highlightColor, vg.Points(3)
		}
		l, err := segment(g, e.Key(), c, w)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		if hl[e.Key()] {
			thumb = l
		}
		p.Add(l)
	}
	all, err := scatter(g, g.NodeIDs(), nodeColor, vg.Points(1.5))
	if err != nil {
		return nil, err
	}
	if all != nil {
		p.Add(all)
	}
	marked, err := scatter(g, nodes, highlightColor, vg.Points(4))
	if err != nil {
		return nil, err
	}
	if marked != nil {
		p.Add(marked)
		p.Legend.Add(fmt.Sprintf("nodes (%d)", len(nodes)), marked)
	}
	if thumb != nil {
		p.Legend.Add(fmt.Sprintf("edges (%d)", len(edges)), thumb)
	}
	return p, nil
}

// colorScale maps [from, to] onto a diverging blue-red palette.
func colorScale(from, to float64) palette.ColorMap {
	cm := moreland.SmoothBlueRed()
	if !(to > from) {
		to = from + 1
	}
	cm.SetMax(to)
	cm.SetMin(from)
	return cm
}

func valueColor(cm palette.ColorMap, v float64) color.Color {
	v = math.Max(cm.Min(), math.Min(cm.Max(), v))
	c, err := cm.At(v)
	if err != nil {
		return edgeColor
	}
	return c
}

// BetweennessPlot colors edges by edge betweenness and draws the top k nodes
// by node betweenness.
func BetweennessPlot(g *algo.Graph, c analysis.CentralityReport, k int) (*plot.Plot, error) {
	p := newMapPlot("Edge betweenness")
	hi := 0.0
	for _, e := range c.Edges {
		hi = math.Max(hi, e.Betweenness)
	}
	cm := colorScale(0, hi)
	for _, e := range c.Edges {
		w := vg.Points(1 + 4*e.Betweenness/math.Max(hi, 1e-12))
		l, err := segment(g, e.Key, valueColor(cm, e.Betweenness), w)
		if err != nil {
			return nil, err
		}
		if l != nil {
			p.Add(l)
		}
	}
	top := lo.Map(c.Top(analysis.MetricBetweenness, k), func(n analysis.NodeCentrality, _ int) int64 { return n.ID })
	s, err := scatter(g, top, highlightColor, vg.Points(4))
	if err != nil {
		return nil, err
	}
	if s != nil {
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("top %d nodes", len(top)), s)
	}
	return p, nil
}

// SaturationPlot colors edges by simulated saturation. Undefined saturation is
// drawn in the highlight color.
func SaturationPlot(g *algo.Graph, r *flowsim.Result) (*plot.Plot, error) {
	p := newMapPlot(fmt.Sprintf("Saturation %s (%s)", r.Date, r.Aggregation))
	cm := colorScale(0, math.Max(1, r.MaxSaturation))
	for _, e := range r.Edges {
		c := valueColor(cm, e.Saturation)
		if e.Status == flowsim.StatusUndefined {
			c = highlightColor
		}
		w := vg.Points(1)
		if e.Total > 0 {
			w = vg.Points(2.5)
		}
		l, err := segment(g, e.Key, c, w)
		if err != nil {
			return nil, err
		}
		if l != nil {
			p.Add(l)
		}
	}
	return p, nil
}

func barPlot(title, xLabel, yLabel string, names []string, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(12))
	if err != nil {
		return nil, err
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// DegreeHistogramPlot draws the number of nodes per degree.
func DegreeHistogramPlot(o analysis.Overview) (*plot.Plot, error) {
	return barPlot("Degree distribution", "degree", "nodes",
		lo.Map(o.DegreeHistogram, func(c analysis.DegreeCount, _ int) string { return itoa(c.Degree) }),
		lo.Map(o.DegreeHistogram, func(c analysis.DegreeCount, _ int) float64 { return float64(c.Nodes) }))
}

// ComponentsPlot draws the component count of the baseline and every scenario.
func ComponentsPlot(r analysis.ImpactReport) (*plot.Plot, error) {
	names := []string{"baseline"}
	values := []float64{float64(r.Components)}
	for i, sc := range r.Scenarios {
		names = append(names, fmt.Sprintf("S%d", i+1))
		values = append(values, float64(sc.Components))
	}
	return barPlot("Connected components per scenario", "scenario", "components", names, values)
}

// HourlyFlowPlot draws the distributed hourly flow.
func HourlyFlowPlot(r *flowsim.Result) (*plot.Plot, error) {
	return barPlot(fmt.Sprintf("Hourly flow %s", r.Date), "hour", "vehicles",
		lo.Map(r.Hours, func(h flowsim.HourStat, _ int) string { return fmt.Sprintf("%02d", h.Hour) }),
		lo.Map(r.Hours, func(h flowsim.HourStat, _ int) float64 { return float64(h.Flow) }))
}
