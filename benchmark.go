package main

import (
	"flag"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/roadnet/analysis"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/sirupsen/logrus"
)

var (
	benchmarkCount = flag.Int("benchmark.count", 1000, "the random shortest path query count for benchmark")
	benchmarkSeed  = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU   = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

type query struct {
	from, to int64
}

type benchmarkResult struct {
	Count   int
	Found   int
	Failed  int
	Elapsed time.Duration
	// 单次查询耗时（微秒）
	Latency analysis.Summary
}

// randomQueries 随机生成count个起终点不同的查询
func randomQueries(g *algo.Graph, count int, seed int64) []query {
	ids := g.NodeIDs()
	if len(ids) < 2 {
		return nil
	}
	e := rand.New(rand.NewSource(seed))
	qs := make([]query, count)
	for i := range qs {
		from := e.Intn(len(ids))
		to := e.Intn(len(ids) - 1)
		if to >= from {
			to++
		}
		qs[i] = query{ids[from], ids[to]}
	}
	return qs
}

// runQueries 在cpu个goroutine上执行查询，图只读所以可以并发
func runQueries(g *algo.Graph, qs []query, cpu int) benchmarkResult {
	cpu = max(cpu, 1)
	latency := make([]float64, len(qs))
	var found, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < cpu; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(qs); i += cpu {
				t := time.Now()
				p, err := g.ShortestPath(qs[i].from, qs[i].to)
				latency[i] = float64(time.Since(t).Microseconds())
				if err != nil {
					failed.Add(1)
					log.Error("benchmark failed, err:", err)
					continue
				}
				if p.Found {
					found.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()
	return benchmarkResult{
		Count:   len(qs),
		Found:   int(found.Load()),
		Failed:  int(failed.Load()),
		Elapsed: time.Since(start),
		Latency: analysis.Describe(latency),
	}
}

func runBenchmark(g *algo.Graph) {
	logrus.SetLevel(logrus.WarnLevel)
	runtime.GOMAXPROCS(max(*benchmarkCPU, 1))
	qs := randomQueries(g, *benchmarkCount, *benchmarkSeed)
	r := runQueries(g, qs, *benchmarkCPU)
	log.Warn(
		"benchmark finished", "\n",
		"count: ", r.Count, "\n",
		"cpu: ", *benchmarkCPU, "\n",
		"time: ", r.Elapsed, "\n",
		"found: ", r.Found, "\n",
		"failed: ", r.Failed, "\n",
		"latency mean/median/max (us): ", r.Latency.Mean, "/", r.Latency.Median, "/", r.Latency.Max, "\n",
	)
}
