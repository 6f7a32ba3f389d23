package network

import (
	"errors"
	"fmt"

	"git.fiblab.net/sim/roadnet/network/algo"
)

var (
	// 错误：无法确定边长
	ErrNoLength = errors.New("no usable length for edge")
	// 错误：缺少必需的输入文件
	ErrNoInput = errors.New("no edge list or edge info file given")
)

// ParseError reports a malformed input line.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options selects the input files of a road network.
type Options struct {
	// 边列表：source target [weight]，为空时由EdgeInfo给出拓扑
	EdgeList string
	// 边信息：id n1 x1 y1 n2 x2 y2 distance
	EdgeInfo string
	// 可选，CSV：node1,node2,capacity
	Capacities string
	// 未在Capacities中给出的边的容量（辆/小时）
	DefaultCapacity float64
}

// LoadStats counts what happened while loading.
type LoadStats struct {
	EdgeRows          int // 边列表有效行数
	InfoRows          int // 边信息有效行数
	DuplicateEdges    int // 边列表中重复的边
	UnmatchedInfoRows int // 边信息中引用了不存在的边
	InvalidDistances  int // 边信息中非正的距离
	EuclideanLengths  int // 使用坐标计算长度的边
	CapacityRows      int
	UnmatchedCapacity int
}

// Network is a loaded road network.
type Network struct {
	Graph *algo.Graph
	Stats LoadStats
}

// snapshot is the cached form of a Network.
type snapshot struct {
	Nodes []algo.Node
	Edges []algo.Edge
	Stats LoadStats
}

func (n *Network) snapshot() snapshot {
	return snapshot{Nodes: n.Graph.Nodes(), Edges: n.Graph.Edges(), Stats: n.Stats}
}

func fromSnapshot(s snapshot) (*Network, error) {
	g := algo.NewGraph()
	for _, node := range s.Nodes {
		if err := g.AddNode(node.ID, node.P, node.Located); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges {
		if err := g.AddEdge(e.U, e.V, e.Length, e.Capacity); err != nil {
			return nil, err
		}
	}
	return &Network{Graph: g, Stats: s.Stats}, nil
}
