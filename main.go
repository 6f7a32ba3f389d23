package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"git.fiblab.net/sim/roadnet/app"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField("module", "main")

	// 性能测试
	benchmark = flag.Bool("benchmark", false, "benchmark mode: random shortest path queries instead of the analysis")
	pprofAddr = flag.String("pprof", "", "pprof listening address (empty means disabled)")
)

func main() {
	opts := app.DefaultOptions()
	opts.Register(flag.CommandLine)
	flag.Parse()
	if err := app.SetupLogging(opts.LogLevel); err != nil {
		logrus.Fatal(err)
	}

	if *pprofAddr != "" {
		// 启动pprof
		startHTTPDebugger(*pprofAddr)
	}

	a, err := app.New(opts)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	if *benchmark {
		// 性能测试
		runBenchmark(a.Graph())
		return
	}

	// ctrl+c 时取消尚未完成的下载
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx, app.ALL_STAGES...); err != nil {
		log.Fatalf("failed: %v", err)
	}
	log.Infof("run %s finished, results in %s", a.RunID, opts.Out)
}
