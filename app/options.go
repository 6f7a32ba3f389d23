package app

import (
	"flag"
	"fmt"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
)

var LOG_LEVELS = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"fatal": logrus.FatalLevel,
	"panic": logrus.PanicLevel,
}

// Options are the command line settings shared by all entry points.
type Options struct {
	EdgeList   string
	EdgeInfo   string
	Capacities string
	// 日流量：{fspath} 或 {db}.{col}
	Flow       string
	FlowConfig string
	MongoURI   string
	CacheDir   string
	Out        string
	// 报告中排行榜的长度
	Top int
	// 影响分析中采样的节点数
	SampleNodes int
	// 非负时覆盖流量配置中的随机种子
	Seed     int64
	LogLevel string
}

func DefaultOptions() Options {
	return Options{
		EdgeList:    "data/brasilia.net",
		EdgeInfo:    "data/brasilia_edge_info.txt",
		Flow:        "data/fluxo_total_por_dia.csv",
		Out:         "results",
		Top:         10,
		SampleNodes: 20,
		Seed:        -1,
		LogLevel:    "info",
	}
}

// Register binds the options to fs, using the current values as defaults.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.EdgeList, "edges", o.EdgeList, "edge list file [format: source target [weight]], can be empty")
	fs.StringVar(&o.EdgeInfo, "edge-info", o.EdgeInfo, "edge info file [format: id n1 x1 y1 n2 x2 y2 distance], can be empty")
	fs.StringVar(&o.Capacities, "capacities", o.Capacities, "per-edge capacity csv [format: node1,node2,capacity], can be empty")
	fs.StringVar(&o.Flow, "flow", o.Flow, "daily flow csv or database and collection [format: {fspath} or {db}.{col}]")
	fs.StringVar(&o.FlowConfig, "flow-config", o.FlowConfig, "flow simulation yaml config (empty means defaults)")
	fs.StringVar(&o.MongoURI, "mongo_uri", o.MongoURI, "mongo db uri")
	fs.StringVar(&o.CacheDir, "cache", o.CacheDir, "input cache dir path (empty means disable cache)")
	fs.StringVar(&o.Out, "out", o.Out, "output dir")
	fs.IntVar(&o.Top, "top", o.Top, "number of ranked entries in reports")
	fs.IntVar(&o.SampleNodes, "sample", o.SampleNodes, "number of nodes sampled by the impact analysis")
	fs.Int64Var(&o.Seed, "seed", o.Seed, "random seed of the flow simulation (negative means from config)")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level [debug, info, warn, error, fatal, panic]")
}

func (o Options) Validate() error {
	if o.EdgeList == "" && o.EdgeInfo == "" {
		return fmt.Errorf("either -edges or -edge-info is required")
	}
	if o.Out == "" {
		return fmt.Errorf("-out is required")
	}
	if o.Top <= 0 {
		return fmt.Errorf("-top must be positive, got %d", o.Top)
	}
	if o.SampleNodes < 0 {
		return fmt.Errorf("-sample must not be negative, got %d", o.SampleNodes)
	}
	return nil
}

// SetupLogging installs the log format and level.
func SetupLogging(level string) error {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	l, ok := LOG_LEVELS[level]
	if !ok {
		return fmt.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(l)
	return nil
}
