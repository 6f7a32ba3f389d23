package network

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.fiblab.net/sim/roadnet/cache"
	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
)

// 边列表中的一行
type rawEdge struct {
	key    algo.EdgeKey
	ends   [2]int64 // 文件中的端点顺序
	weight float64  // 0表示未给出
	line   int
}

// 边信息中的一行
type rawInfo struct {
	key      algo.EdgeKey
	p1, p2   orb.Point
	ends     [2]int64
	distance float64
	line     int
}

// Load parses the input files into a Network. Any malformed line aborts the
// load with a *ParseError.
func Load(opts Options) (*Network, error) {
	if opts.EdgeList == "" && opts.EdgeInfo == "" {
		return nil, ErrNoInput
	}
	stats := LoadStats{}

	var edges []rawEdge
	var infos []rawInfo
	var err error
	if opts.EdgeList != "" {
		if edges, err = readFile(opts.EdgeList, parseEdgeList); err != nil {
			return nil, err
		}
		stats.EdgeRows = len(edges)
	}
	if opts.EdgeInfo != "" {
		if infos, err = readFile(opts.EdgeInfo, parseEdgeInfo); err != nil {
			return nil, err
		}
		stats.InfoRows = len(infos)
	}
	if opts.EdgeList == "" {
		// 没有边列表时，拓扑由边信息给出
		edges = lo.Map(infos, func(info rawInfo, _ int) rawEdge {
			return rawEdge{key: info.key, ends: info.ends, line: info.line}
		})
	}

	// 去重，保留第一次出现
	edgeSet := make(map[algo.EdgeKey]int, len(edges))
	uniq := make([]rawEdge, 0, len(edges))
	for _, e := range edges {
		if first, ok := edgeSet[e.key]; ok {
			log.Warnf("%s:%d: duplicate edge %v (first at line %d), skipped", opts.EdgeList, e.line, e.key, first)
			stats.DuplicateEdges++
			continue
		}
		edgeSet[e.key] = e.line
		uniq = append(uniq, e)
	}
	edges = uniq

	// 节点按首次出现的顺序
	nodeSet := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, e := range edges {
		for _, id := range e.ends {
			if _, ok := nodeSet[id]; !ok {
				nodeSet[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	// 坐标与距离
	positions := make(map[int64]orb.Point)
	distances := make(map[algo.EdgeKey]float64)
	for _, info := range infos {
		for _, np := range []struct {
			id int64
			p  orb.Point
		}{{info.key.U, info.p1}, {info.key.V, info.p2}} {
			if _, ok := nodeSet[np.id]; !ok {
				continue
			}
			if old, ok := positions[np.id]; ok && old != np.p {
				log.Debugf("%s:%d: node %d has conflicting coordinates %v and %v, keep the first", opts.EdgeInfo, info.line, np.id, old, np.p)
				continue
			}
			positions[np.id] = np.p
		}
		if _, ok := edgeSet[info.key]; !ok {
			log.Warnf("%s:%d: edge %v not in edge list, skipped", opts.EdgeInfo, info.line, info.key)
			stats.UnmatchedInfoRows++
			continue
		}
		if !(info.distance > 0) {
			log.Warnf("%s:%d: edge %v has non-positive distance %v, fall back", opts.EdgeInfo, info.line, info.key, info.distance)
			stats.InvalidDistances++
			continue
		}
		if _, ok := distances[info.key]; !ok {
			distances[info.key] = info.distance
		}
	}

	// 建图
	g := algo.NewGraph()
	for _, id := range ids {
		p, located := positions[id]
		if err := g.AddNode(id, p, located); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		length := e.weight
		if length == 0 {
			length = distances[e.key]
		}
		if length == 0 {
			p1, ok1 := positions[e.key.U]
			p2, ok2 := positions[e.key.V]
			if ok1 && ok2 {
				length = planar.Distance(p1, p2)
				stats.EuclideanLengths++
			}
		}
		file := lo.Ternary(opts.EdgeList != "", opts.EdgeList, opts.EdgeInfo)
		if !(length > 0) {
			return nil, &ParseError{File: file, Line: e.line, Err: fmt.Errorf("%w %v", ErrNoLength, e.key)}
		}
		if err := g.AddEdge(e.key.U, e.key.V, length, opts.DefaultCapacity); err != nil {
			return nil, &ParseError{File: file, Line: e.line, Err: err}
		}
	}

	if opts.Capacities != "" {
		if err := applyCapacities(g, opts.Capacities, &stats); err != nil {
			return nil, err
		}
	}

	log.Infof("loaded %d nodes and %d edges (%d lengths from coordinates)", g.NumNodes(), g.NumEdges(), stats.EuclideanLengths)
	return &Network{Graph: g, Stats: stats}, nil
}

// LoadWithCache loads the network through the on-disk cache. The cache key
// covers the input paths with their sizes and modification times.
func LoadWithCache(cacheDir string, opts Options) (*Network, error) {
	key, err := cacheKey(opts)
	if err != nil {
		return nil, err
	}
	s, err := cache.LoadWithCache(cacheDir, key, func() (snapshot, error) {
		n, err := Load(opts)
		if err != nil {
			return snapshot{}, err
		}
		return n.snapshot(), nil
	})
	if err != nil {
		return nil, err
	}
	return fromSnapshot(s)
}

func cacheKey(opts Options) (string, error) {
	parts := []string{fmt.Sprintf("capacity=%v", opts.DefaultCapacity)}
	for _, path := range []string{opts.EdgeList, opts.EdgeInfo, opts.Capacities} {
		if path == "" {
			parts = append(parts, "-")
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s@%d@%d", path, info.Size(), info.ModTime().UnixNano()))
	}
	return strings.Join(parts, "|"), nil
}

func readFile[T any](path string, parse func(fields []string, line int) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLines(f, path, parse)
}

// readLines 逐行解析，跳过空行与#注释
func readLines[T any](r io.Reader, name string, parse func(fields []string, line int) (T, error)) ([]T, error) {
	res := make([]T, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := parse(strings.Fields(line), lineNo)
		if err != nil {
			return nil, &ParseError{File: name, Line: lineNo, Err: err}
		}
		res = append(res, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func parseEdgeList(fields []string, line int) (rawEdge, error) {
	if len(fields) != 2 && len(fields) != 3 {
		return rawEdge{}, fmt.Errorf("want 'source target [weight]', got %d fields", len(fields))
	}
	u, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return rawEdge{}, fmt.Errorf("bad source: %w", err)
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return rawEdge{}, fmt.Errorf("bad target: %w", err)
	}
	if u == v {
		return rawEdge{}, fmt.Errorf("%w: %d", algo.ErrSelfLoop, u)
	}
	e := rawEdge{key: algo.NewEdgeKey(u, v), ends: [2]int64{u, v}, line: line}
	if len(fields) == 3 {
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return rawEdge{}, fmt.Errorf("bad weight: %w", err)
		}
		if !(w > 0) {
			return rawEdge{}, fmt.Errorf("%w: %v", algo.ErrNonPositiveWeight, w)
		}
		e.weight = w
	}
	return e, nil
}

func parseEdgeInfo(fields []string, line int) (rawInfo, error) {
	if len(fields) < 8 {
		return rawInfo{}, fmt.Errorf("want 'id n1 x1 y1 n2 x2 y2 distance', got %d fields", len(fields))
	}
	// 第一列为边编号，不参与解析
	n1, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return rawInfo{}, fmt.Errorf("bad node: %w", err)
	}
	n2, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return rawInfo{}, fmt.Errorf("bad node: %w", err)
	}
	if n1 == n2 {
		return rawInfo{}, fmt.Errorf("%w: %d", algo.ErrSelfLoop, n1)
	}
	nums := make([]float64, 0, 5)
	for _, i := range []int{2, 3, 5, 6, 7} {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return rawInfo{}, fmt.Errorf("bad number in column %d: %w", i+1, err)
		}
		nums = append(nums, x)
	}
	info := rawInfo{
		key:      algo.NewEdgeKey(n1, n2),
		ends:     [2]int64{n1, n2},
		p1:       orb.Point{nums[0], nums[1]},
		p2:       orb.Point{nums[2], nums[3]},
		distance: nums[4],
		line:     line,
	}
	if info.key.U != n1 {
		// 端点顺序随key调整
		info.p1, info.p2 = info.p2, info.p1
	}
	return info, nil
}

func applyCapacities(g *algo.Graph, path string, stats *LoadStats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 3
	header := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return &ParseError{File: path, Line: line, Err: err}
		}
		line, _ := r.FieldPos(0)
		if header {
			header = false
			if _, err := strconv.ParseInt(record[0], 10, 64); err != nil {
				// 表头
				continue
			}
		}
		u, err1 := strconv.ParseInt(record[0], 10, 64)
		v, err2 := strconv.ParseInt(record[1], 10, 64)
		c, err3 := strconv.ParseFloat(record[2], 64)
		if err := errors.Join(err1, err2, err3); err != nil {
			return &ParseError{File: path, Line: line, Err: err}
		}
		stats.CapacityRows++
		if err := g.SetCapacity(algo.NewEdgeKey(u, v), c); err != nil {
			if errors.Is(err, algo.ErrEdgeNotFound) {
				log.Warnf("%s:%d: capacity for unknown edge %v, skipped", path, line, algo.NewEdgeKey(u, v))
				stats.UnmatchedCapacity++
				continue
			}
			return &ParseError{File: path, Line: line, Err: err}
		}
	}
	return nil
}
