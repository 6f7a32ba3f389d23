package flowsim

import (
	"errors"
	"fmt"
	"math"
	"os"

	"git.fiblab.net/sim/roadnet/network"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// PairStrategy selects how agents pick their origin and destination.
type PairStrategy string

const (
	// 随机选择两个不同的节点
	PairRandom PairStrategy = "random"
	// 轮流使用给定（或自动选出）的OD对
	PairStrategic PairStrategy = "strategic"
)

// Aggregation selects which load is compared with capacity.
type Aggregation string

const (
	// 峰值小时负载 / 小时容量
	AggregatePeak Aggregation = "peak"
	// 全天累计负载 / 小时容量
	AggregateTotal Aggregation = "total"
)

// AgentWeighting selects how many vehicles an agent adds to each edge.
type AgentWeighting string

const (
	// 每个agent代表VehiclesPerAgent辆车
	WeightFixed AgentWeighting = "fixed"
	// 每个agent代表 小时流量/agent数 辆车，小时流量守恒
	WeightScaled AgentWeighting = "scaled"
)

// Config holds the flow simulation parameters.
type Config struct {
	// 每个agent代表的车辆数（VEIC_POR_AGENT）
	VehiclesPerAgent int64 `yaml:"vehicles_per_agent" validate:"gt=0"`
	// 没有单独容量记录的边的容量，辆/小时（CAPACIDADE）
	Capacity float64 `yaml:"capacity" validate:"gte=0"`
	// 每小时agent上限（MAX_AGENTES）
	MaxAgentsPerHour int `yaml:"max_agents_per_hour" validate:"gte=0"`
	// 模拟日期（DIA）
	Date string `yaml:"date" validate:"required,datetime=2006-01-02"`
	// 24小时的分配权重，为空时均分
	HourlyWeights []float64 `yaml:"hourly_weights" validate:"omitempty,len=24,dive,gte=0"`
	Seed          int64     `yaml:"seed"`

	PairStrategy PairStrategy `yaml:"pair_strategy" validate:"oneof=random strategic"`
	// strategic模式下的OD对，为空时按坐标自动选择
	Pairs          []network.Pair `yaml:"pairs"`
	Aggregation    Aggregation    `yaml:"aggregation" validate:"oneof=peak total"`
	AgentWeighting AgentWeighting `yaml:"agent_weighting" validate:"oneof=fixed scaled"`
}

func DefaultConfig() Config {
	return Config{
		VehiclesPerAgent: DEFAULT_VEHICLES_PER_AGENT,
		Capacity:         DEFAULT_CAPACITY,
		MaxAgentsPerHour: DEFAULT_MAX_AGENTS_PER_HOUR,
		Date:             DEFAULT_DATE,
		PairStrategy:     PairRandom,
		Aggregation:      AggregatePeak,
		AgentWeighting:   WeightFixed,
	}
}

// Validate checks the struct tags and the hourly weights.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed on '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid flow config: %w", errors.Join(msgs...))
		}
		return err
	}
	if len(c.HourlyWeights) > 0 {
		if _, err := normalizeWeights(c.HourlyWeights); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig. An empty path yields
// the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return c, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// AgentCount returns floor(hourly / VehiclesPerAgent) capped at MaxAgentsPerHour.
func (c Config) AgentCount(hourly int64) int {
	n := hourly / c.VehiclesPerAgent
	if n > int64(c.MaxAgentsPerHour) {
		return c.MaxAgentsPerHour
	}
	return int(n)
}

func normalizeWeights(weights []float64) ([]float64, error) {
	if len(weights) == 0 {
		w := make([]float64, HOURS)
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if len(weights) != HOURS {
		return nil, fmt.Errorf("%w: got %d weights", ErrBadWeights, len(weights))
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: %v", ErrBadWeights, w)
		}
		sum += w
	}
	if !(sum > 0) {
		return nil, fmt.Errorf("%w: sum is %v", ErrBadWeights, sum)
	}
	return weights, nil
}
