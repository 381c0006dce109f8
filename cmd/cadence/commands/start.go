package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/teranos/cadence/admin"
	"github.com/teranos/cadence/condition"
	"github.com/teranos/cadence/config"
	"github.com/teranos/cadence/execution"
	"github.com/teranos/cadence/flow"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/metrics"
	"github.com/teranos/cadence/pulse/schedule"
	"github.com/teranos/cadence/trigger"
)

// StartCmd runs the scheduler daemon in the foreground.
var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cadence scheduler daemon",
	Long: `Start the cadence scheduler in the foreground.

The daemon watches the configured flows directory for flow definitions,
evaluates eligible polling triggers at a fixed rate, and emits executions
onto an outbound queue when a trigger fires. Run until interrupted
(Ctrl+C) for graceful shutdown.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	database, cfg, err := openDatabase(cmd, "")
	if err != nil {
		return err
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.Scheduler.FlowsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	flowListener, err := flow.NewFileListener(cfg.Scheduler.FlowsDir, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to start flow listener: %w", err)
	}
	defer flowListener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	flowListener.Start(ctx)

	registry, err := newMetricsRegistry(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}

	queue := execution.NewQueue()

	sched := schedule.New(schedule.Deps{
		FlowListener:       flowListener,
		ConditionEvaluator: condition.AlwaysValid,
		TriggerStore:       trigger.NewSQLiteStore(database),
		ExecutionStore:     execution.NewSQLiteStore(database),
		RunContextFactory:  flow.NilRunContextFactory{},
		Queue:              queue,
		Metrics:            registry,
		Log:                logger.Logger,
	}, schedule.Config{
		Interval:           time.Duration(cfg.Scheduler.TickIntervalSeconds) * time.Second,
		MaxConcurrentEvals: cfg.Scheduler.MaxConcurrentEvals,
	})

	sched.Start()

	fmt.Printf("cadence scheduler started\n")
	fmt.Printf("  database:    %s\n", cfg.Database.Path)
	fmt.Printf("  flows dir:   %s\n", cfg.Scheduler.FlowsDir)
	fmt.Printf("  tick:        %ds\n", cfg.Scheduler.TickIntervalSeconds)
	fmt.Printf("  concurrency: %d\n", cfg.Scheduler.MaxConcurrentEvals)

	var adminHub *admin.Hub
	var adminServer *http.Server
	if cfg.Admin.Enabled {
		adminHub = admin.NewHub(queue, logger.ComponentLogger("admin"))
		go adminHub.Run()

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", adminHub.ServeWS)
		adminServer = &http.Server{Addr: cfg.Admin.Addr, Handler: mux}

		go func() {
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Logger.Warnw("admin server exited", "error", err)
			}
		}()

		fmt.Printf("  admin feed:  ws://%s/ws\n", cfg.Admin.Addr)
	}

	fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nshutting down...")
	if adminServer != nil {
		_ = adminServer.Shutdown(context.Background())
		adminHub.Close()
	}
	sched.Close()
	fmt.Println("cadence scheduler stopped")

	return nil
}

func newMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NoopRegistry{}, nil
	}

	provider := sdkmetric.NewMeterProvider()
	meter := provider.Meter(cfg.Metrics.MeterName)
	return metrics.NewOtelRegistry(meter), nil
}
