package flowsim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"git.fiblab.net/sim/roadnet/network"
	"git.fiblab.net/sim/roadnet/network/algo"
)

const (
	StatusOK        = "ok"
	StatusUndefined = "undefined" // 容量为0但有负载
)

// EdgeLoad is the simulated load of one edge.
type EdgeLoad struct {
	Key      algo.EdgeKey
	Capacity float64
	Hourly   [HOURS]float64
	Total    float64
	Peak     float64
	PeakHour int // 负载为0时为-1
	// 负载/容量，无负载为0，容量为0时为+Inf
	Saturation float64
	Status     string
}

// HourStat summarizes one simulated hour.
type HourStat struct {
	Hour        int
	Flow        int64
	Agents      int
	Routed      int
	Unreachable int
}

// Result is the outcome of simulating one day.
type Result struct {
	Date        string
	Total       int64
	Aggregation Aggregation
	Hours       []HourStat
	Edges       []EdgeLoad // 按边排序

	Agents      int
	Unreachable int
	// 有限饱和度中的最大值
	MaxSaturation float64
	// 饱和度>=1的边数（含undefined）
	Saturated int
	Undefined int
	Loaded    int // 有负载的边数
}

// Top returns the k most saturated edges, undefined ones first.
func (r *Result) Top(k int) []EdgeLoad {
	res := append([]EdgeLoad(nil), r.Edges...)
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Saturation != res[j].Saturation {
			return res[i].Saturation > res[j].Saturation
		}
		return res[i].Total > res[j].Total
	})
	return res[:min(k, len(res))]
}

type od struct {
	from, to int64
}

// Simulator moves agents along shortest paths of a fixed graph. Edge
// capacities are taken from the graph.
type Simulator struct {
	g     *algo.Graph
	cfg   Config
	ids   []int64
	pairs []network.Pair
	// 最短路缓存
	paths map[od]algo.Path
}

// NewSimulator validates the configuration against the graph. With the
// strategic strategy and no configured pairs, the pairs are chosen from the
// node coordinates.
func NewSimulator(g *algo.Graph, cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		g:     g,
		cfg:   cfg,
		ids:   g.NodeIDs(),
		paths: make(map[od]algo.Path),
	}
	switch cfg.PairStrategy {
	case PairRandom:
		if len(s.ids) < 2 {
			return nil, fmt.Errorf("%w: got %d", ErrTooFewNodes, len(s.ids))
		}
	case PairStrategic:
		s.pairs = cfg.Pairs
		if len(s.pairs) == 0 {
			s.pairs = network.StrategicPairs(g)
		}
		if len(s.pairs) == 0 {
			return nil, ErrNoPairs
		}
		for _, p := range s.pairs {
			if !g.HasNode(p.From) || !g.HasNode(p.To) {
				return nil, fmt.Errorf("pair %d-%d: %w", p.From, p.To, algo.ErrNodeNotFound)
			}
		}
	}
	return s, nil
}

// Run simulates the day. The same configuration and flow always give the
// same result.
func (s *Simulator) Run(flow DailyFlow) (*Result, error) {
	hourly, err := Distribute(flow.Total, s.cfg.HourlyWeights)
	if err != nil {
		return nil, err
	}
	edges := s.g.Edges()
	loads := make(map[algo.EdgeKey]*EdgeLoad, len(edges))
	for _, e := range edges {
		loads[e.Key()] = &EdgeLoad{Key: e.Key(), Capacity: e.Capacity, PeakHour: -1}
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	next := 0
	r := &Result{Date: flow.Date, Total: flow.Total, Aggregation: s.cfg.Aggregation}
	for h := 0; h < HOURS; h++ {
		stat := HourStat{Hour: h, Flow: hourly[h], Agents: s.cfg.AgentCount(hourly[h])}
		if stat.Agents > 0 {
			weight := float64(s.cfg.VehiclesPerAgent)
			if s.cfg.AgentWeighting == WeightScaled {
				weight = float64(hourly[h]) / float64(stat.Agents)
			}
			for i := 0; i < stat.Agents; i++ {
				var from, to int64
				if s.cfg.PairStrategy == PairStrategic {
					p := s.pairs[next%len(s.pairs)]
					next++
					from, to = p.From, p.To
				} else {
					from, to = s.randomPair(rng)
				}
				path, err := s.path(from, to)
				if err != nil {
					return nil, err
				}
				if !path.Found {
					stat.Unreachable++
					continue
				}
				stat.Routed++
				for _, k := range path.Edges {
					loads[k].Hourly[h] += weight
				}
			}
		}
		if stat.Unreachable > 0 {
			log.Warnf("hour %d: %d of %d agents found no path", h, stat.Unreachable, stat.Agents)
		}
		r.Agents += stat.Agents
		r.Unreachable += stat.Unreachable
		r.Hours = append(r.Hours, stat)
	}

	r.Edges = make([]EdgeLoad, 0, len(edges))
	for _, e := range edges {
		l := loads[e.Key()]
		s.finish(l)
		if l.Total > 0 {
			r.Loaded++
		}
		switch {
		case l.Status == StatusUndefined:
			r.Undefined++
			r.Saturated++
		case l.Saturation >= 1:
			r.Saturated++
		}
		if !math.IsInf(l.Saturation, 1) && l.Saturation > r.MaxSaturation {
			r.MaxSaturation = l.Saturation
		}
		r.Edges = append(r.Edges, *l)
	}
	log.Infof("simulated %s: %d vehicles, %d agents, %d unreachable, %d/%d edges loaded, max saturation %.3f",
		flow.Date, flow.Total, r.Agents, r.Unreachable, r.Loaded, len(r.Edges), r.MaxSaturation)
	return r, nil
}

// randomPair picks two distinct nodes.
func (s *Simulator) randomPair(rng *rand.Rand) (int64, int64) {
	n := len(s.ids)
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return s.ids[i], s.ids[j]
}

func (s *Simulator) path(from, to int64) (algo.Path, error) {
	if p, ok := s.paths[od{from, to}]; ok {
		return p, nil
	}
	p, err := s.g.ShortestPath(from, to)
	if err != nil {
		return p, err
	}
	s.paths[od{from, to}] = p
	return p, nil
}

// finish fills the totals and the saturation of an edge.
func (s *Simulator) finish(l *EdgeLoad) {
	for h, v := range l.Hourly {
		l.Total += v
		if v > l.Peak {
			l.Peak, l.PeakHour = v, h
		}
	}
	l.Status = StatusOK
	load := l.Peak
	if s.cfg.Aggregation == AggregateTotal {
		load = l.Total
	}
	switch {
	case load == 0:
		l.Saturation = 0
	case l.Capacity == 0:
		l.Saturation = math.Inf(1)
		l.Status = StatusUndefined
	default:
		l.Saturation = load / l.Capacity
	}
}
