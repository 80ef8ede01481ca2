package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/metrics"
	"github.com/guxg/colossus/pkg/reporter"
	"github.com/guxg/colossus/pkg/signals"
	"github.com/guxg/colossus/pkg/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	klog "k8s.io/klog/v2"
)

var (
	configFile        string
	metricsPort       uint
	heartbeatInterval time.Duration
)

func init() {
	klog.InitFlags(nil)
	flag.StringVar(&configFile, "config", "", "path to the metric system configuration file (YAML)")
	flag.UintVar(&metricsPort, "metrics-port", 9090, "port of the HTTP server exposing metrics")
	flag.DurationVar(&heartbeatInterval, "heartbeat-interval", 10*time.Second, "interval of the daemon heartbeat metric, 0 disables it")
}

func main() {
	flag.Parse()
	defer klog.Flush()

	ctx := signals.SetupShutdownSignalHandler(context.Background())
	signals.SetupThreadDumpSignalHandler()
	logger := klog.FromContext(ctx)

	cfg := system.Config{}
	if configFile != "" {
		var err error
		cfg, err = system.LoadConfig(configFile)
		if err != nil {
			klog.ErrorS(err, "Cannot load configuration")
			klog.FlushAndExit(klog.ExitFlushTimeout, 1)
		}
	}

	zapLogger := newZapLogger()
	defer func() { _ = zapLogger.Sync() }()

	sys, err := system.New(ctx, cfg)
	if err != nil {
		klog.ErrorS(err, "Cannot create metric system")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}
	logger.Info("Metric system created", "system", sys.ID(), "namespace", sys.Namespace().String())

	handlers := map[string]http.Handler{}
	var closers []io.Closer
	for _, spec := range cfg.Reporters {
		reporterCfg, closer, err := spec.Build(zapLogger)
		if err != nil {
			klog.ErrorS(err, "Invalid reporter configuration")
			klog.FlushAndExit(klog.ExitFlushTimeout, 1)
		}
		if err := sys.AddReporter(reporterCfg); err != nil {
			klog.ErrorS(err, "Cannot add reporter", "reporter", reporterCfg.Name)
			klog.FlushAndExit(klog.ExitFlushTimeout, 1)
		}
		closers = append(closers, closer)
		if sink, ok := reporterCfg.Sink.(*reporter.PrometheusSink); ok {
			handlers["/reporters/"+reporterCfg.Name+"/metrics"] = sink.Handler()
		}
	}

	metrics.StartServer(ctx, uint16(metricsPort), handlers)
	logger.Info("Metrics server started", "port", metricsPort)

	if heartbeatInterval > 0 {
		go heartbeat(ctx, sys)
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	sys.Stop()
	<-sys.Done()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			klog.ErrorS(err, "Closing reporter failed")
		}
	}
}

func heartbeat(ctx context.Context, sys system.System) {
	recorder, err := sys.NewCollector("metricsd", metric.NoTags)
	if err != nil {
		klog.ErrorS(err, "Cannot create heartbeat collector")
		return
	}
	defer recorder.Close()
	clk := clock.New()
	start := clk.Now()
	t := clk.Ticker(heartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			recorder.Increment("metricsd/heartbeats", metric.NoTags)
			recorder.Set("metricsd/uptime_seconds", now.Sub(start).Seconds(), metric.NoTags)
		}
	}
}

func newZapLogger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}
