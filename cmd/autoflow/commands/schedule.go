package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/telemetry"
)

func newScheduleCommand() *cobra.Command {
	var (
		intervalSeconds int
		watch           bool
		metricsAddr     string
		traceExporter   string
		traceEndpoint   string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run passes on a fixed interval until interrupted",
		Long: `Start the interval scheduler. A full pass over all enabled rules fires
after every interval. If a pass is still running when the next tick arrives,
that tick is skipped rather than queued.

The first pass fires one full interval after start. Press Ctrl-C to stop;
an in-flight pass is allowed to finish.`,
		Example: `  # Schedule with the interval from the config file
  autoflow schedule

  # Override the interval
  autoflow schedule --interval 30

  # Reload rules when the config file changes
  autoflow schedule --watch

  # Expose Prometheus metrics while scheduling
  autoflow schedule --metrics-addr :9090

  # Export pass/rule traces to an OTLP collector
  autoflow schedule --trace otlp --trace-endpoint localhost:4317`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, eng, err := buildEngine()
			if err != nil {
				return err
			}

			seconds := cfg.Scheduler.IntervalSeconds
			if intervalSeconds > 0 {
				seconds = intervalSeconds
			}
			if seconds < 1 {
				return fmt.Errorf("interval must be at least 1 second, got %d", seconds)
			}
			interval := time.Duration(seconds) * time.Second

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				eng.WithRecorder(store)
			}

			var metrics *telemetry.Metrics
			if metricsAddr != "" {
				metrics, err = telemetry.NewMetrics(telemetry.MetricsConfig{
					Enabled:       true,
					ListenAddress: metricsAddr,
					Path:          "/metrics",
					Namespace:     "autoflow",
				})
				if err != nil {
					return fmt.Errorf("failed to create metrics: %w", err)
				}
				eng.WithMetrics(metrics)
				go func() {
					if err := metrics.Serve(ctx); err != nil {
						log.Error().Err(err).Msg("Metrics server stopped")
					}
				}()
			}

			var tracer *telemetry.Tracer
			if traceExporter != "" {
				traceCfg := telemetry.DefaultConfig().Tracing
				traceCfg.Enabled = true
				traceCfg.Exporter = traceExporter
				traceCfg.Endpoint = traceEndpoint
				tracer, err = telemetry.NewTracer(traceCfg, "autoflow", cmd.Root().Version, "production")
				if err != nil {
					return fmt.Errorf("failed to create tracer: %w", err)
				}
				eng.WithTracer(tracer)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := tracer.Shutdown(shutdownCtx); err != nil {
						log.Warn().Err(err).Msg("Tracer shutdown failed")
					}
				}()
			}

			sched, err := engine.NewScheduler(eng, interval, logger)
			if err != nil {
				return err
			}
			if metrics != nil {
				sched.WithMetrics(metrics)
			}

			if err := sched.Start(); err != nil {
				return err
			}
			log.Info().
				Dur("interval", interval).
				Int("rules", len(eng.Rules())).
				Msg("Scheduler started")

			var events <-chan struct{}
			if watch {
				watcher, err := config.NewWatcher(configPath)
				if err != nil {
					sched.Stop()
					return err
				}
				defer watcher.Close()
				events = watcher.Events()
				log.Info().Str("config", configPath).Msg("Watching config file for changes")
			}

			for {
				select {
				case <-ctx.Done():
					log.Info().Msg("Stopping scheduler")
					sched.Stop()
					sched.Wait()
					printStatus(sched.Status())
					return nil

				case <-events:
					next, rebuilt, err := rebuildScheduler(sched, interval, logger)
					if err != nil {
						log.Error().Err(err).Msg("Config reload failed, keeping current rules")
						continue
					}
					sched = next
					eng = rebuilt
					if store != nil {
						eng.WithRecorder(store)
					}
					if metrics != nil {
						eng.WithMetrics(metrics)
						sched.WithMetrics(metrics)
					}
					if tracer != nil {
						eng.WithTracer(tracer)
					}
					log.Info().Int("rules", len(eng.Rules())).Msg("Config reloaded")
				}
			}
		},
	}

	cmd.Flags().IntVarP(&intervalSeconds, "interval", "i", 0, "interval in seconds (overrides config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload rules when the config file changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&traceExporter, "trace", "", "trace exporter (otlp, stdout, none)")
	cmd.Flags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP trace collector endpoint")

	return cmd
}

// rebuildScheduler stops the running scheduler, rebuilds the engine from the
// config file, and starts a fresh scheduler on the same interval.
func rebuildScheduler(old *engine.Scheduler, interval time.Duration, logger *telemetry.Logger) (*engine.Scheduler, *engine.Engine, error) {
	_, _, eng, err := buildEngine()
	if err != nil {
		return nil, nil, err
	}

	old.Stop()
	old.Wait()

	next, err := engine.NewScheduler(eng, interval, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := next.Start(); err != nil {
		return nil, nil, err
	}
	return next, eng, nil
}

func printStatus(status engine.SchedulerStatus) {
	fmt.Printf("\nScheduler summary:\n")
	fmt.Printf("  Firings:         %d\n", status.Firings)
	fmt.Printf("  Skipped firings: %d\n", status.SkippedFirings)
	if !status.LastPassTime.IsZero() {
		fmt.Printf("  Last pass:       %s (success=%v)\n",
			status.LastPassTime.Format(time.RFC3339), status.LastPassSuccess)
	}
}
