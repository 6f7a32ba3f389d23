package algo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Node is an intersection of the road network.
type Node struct {
	ID int64
	P  orb.Point
	// 是否有坐标（edge list中出现但metadata中缺失的节点没有坐标）
	Located bool
}

// Edge is an undirected street segment, U <= V.
type Edge struct {
	U, V     int64
	Length   float64 // 米
	Capacity float64 // 辆/小时
}

func (e Edge) Key() EdgeKey {
	return EdgeKey{U: e.U, V: e.V}
}

// EdgeKey identifies an undirected edge by its normalized endpoint pair.
type EdgeKey struct {
	U, V int64
}

func NewEdgeKey(u, v int64) EdgeKey {
	if u > v {
		u, v = v, u
	}
	return EdgeKey{U: u, V: v}
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.U, k.V)
}

// Less orders keys by U then V.
func (k EdgeKey) Less(o EdgeKey) bool {
	if k.U != o.U {
		return k.U < o.U
	}
	return k.V < o.V
}

// Path is the result of a shortest path query. An unreachable target is
// reported with Found == false and Length == +Inf.
type Path struct {
	Nodes  []int64
	Edges  []EdgeKey
	Length float64
	Found  bool
}

// Hops returns the number of traversed edges.
func (p Path) Hops() int {
	return len(p.Edges)
}

type halfEdge struct {
	to   int // 邻居节点下标
	edge int // 边下标
}
