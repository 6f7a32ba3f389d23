package flowsim

import "errors"

const (
	// 一天的小时数
	HOURS = 24

	// 默认参数
	DEFAULT_VEHICLES_PER_AGENT  = 1000
	DEFAULT_CAPACITY            = 1500 // 辆/小时
	DEFAULT_MAX_AGENTS_PER_HOUR = 400
	DEFAULT_DATE                = "2025-05-01"
)

var (
	// 错误：日流量为负
	ErrNegativeFlow = errors.New("daily flow must not be negative")
	// 错误：小时权重不合法
	ErrBadWeights = errors.New("hourly weights must be 24 non-negative numbers with a positive sum")
	// 错误：找不到指定日期的流量
	ErrDateNotFound = errors.New("no daily flow for date")
	// 错误：strategic模式下没有可用的OD对
	ErrNoPairs = errors.New("no origin/destination pairs")
	// 错误：节点不足以生成OD对
	ErrTooFewNodes = errors.New("at least two nodes are needed to sample agents")
	// 错误：流量文件缺少列
	ErrMissingColumn = errors.New("missing column")
)
