package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/apwr-dropcalc/pkg/api"
	"github.com/dd0wney/apwr-dropcalc/pkg/api/middleware"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/health"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
)

// maxHeapBytes degrades readiness when exceeded.
const maxHeapBytes = 512 << 20

func main() {
	configPath := flag.String("config", "", "YAML config file (APWR_* env vars override it)")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	trusted := flag.String("trusted-proxies", os.Getenv("APWR_TRUSTED_PROXIES"), "comma-separated proxy CIDRs whose X-Forwarded-For is honoured")
	flag.Parse()

	if err := run(*configPath, *addr, *trusted); err != nil {
		fmt.Fprintf(os.Stderr, "apwr-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, trusted string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.DefaultRegistry()

	hc := health.NewHealthChecker()
	hc.RegisterLivenessCheck("calculator", health.CalculatorCheck())
	hc.RegisterReadinessCheck("memory", health.MemoryCheck(maxHeapBytes))

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(reg),
		api.WithHealthChecker(hc),
	}

	if trusted != "" {
		nets, invalid := middleware.ParseTrustedProxies(trusted)
		for _, bad := range invalid {
			logger.Warn("ignoring invalid trusted proxy", logging.String("value", bad))
		}
		opts = append(opts, api.WithTrustedProxies(nets))
	}

	if cfg.Report.S3Bucket != "" {
		pub, err := report.NewS3Publisher(ctx, cfg.Report.S3Bucket, cfg.Report.S3Prefix, cfg.Report.S3Region)
		if err != nil {
			return err
		}
		pub.SetLogger(logger.With(logging.Component("s3")))
		pub.SetMetrics(reg)
		opts = append(opts, api.WithPublisher(pub))
		logger.Info("report publishing enabled", logging.String("bucket", cfg.Report.S3Bucket))
	}

	if cfg.Report.OutputDir != "" && cfg.Report.OutputDir != "." {
		hc.RegisterReadinessCheck("output_dir", health.OutputDirCheck(cfg.Report.OutputDir))
	}

	logger.Info("APWR voltage-drop server starting",
		logging.String("addr", cfg.Server.Addr),
		logging.Float64("source_voltage_v", cfg.System.SourceVoltageV),
		logging.Float64("min_voltage_v", cfg.System.MinVoltageV),
		logging.String("cable_model", cfg.System.CableModel),
	)

	server := api.NewServer(cfg, opts...)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", logging.Error(err))
		return err
	}
	logger.Info("server exited")
	return nil
}
