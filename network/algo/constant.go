package algo

import "errors"

var (
	// 错误：节点不存在
	ErrNodeNotFound = errors.New("node not found")
	// 错误：边不存在
	ErrEdgeNotFound = errors.New("edge not found")
	// 错误：重复节点
	ErrDuplicateNode = errors.New("duplicate node")
	// 错误：重复边（简单图不允许平行边）
	ErrDuplicateEdge = errors.New("duplicate edge")
	// 错误：自环
	ErrSelfLoop = errors.New("self loop")
	// 错误：边权必须为正
	ErrNonPositiveWeight = errors.New("edge weight must be positive")
	// 错误：容量不能为负
	ErrNegativeCapacity = errors.New("edge capacity must not be negative")
)
