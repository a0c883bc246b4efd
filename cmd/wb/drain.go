package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybridge/internal/config"
	"github.com/zulandar/waybridge/internal/mirror"
	"github.com/zulandar/waybridge/internal/realtime"
)

func newDrainCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process due mirror jobs",
		Long: `Runs one drain pass over the mirror job queue: claims due jobs,
mirrors each across the session/thread boundary, and schedules retries for
failures. With --watch, keeps running passes on the configured schedule
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrain(cmd, configPath, limit, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "waybridge.yaml", "path to Waybridge config file")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "max jobs per pass (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep draining on the configured schedule")
	return cmd
}

func runDrain(cmd *cobra.Command, configPath string, limit int, watch bool) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	opts := drainOptsFromConfig(cfg, limit)
	pub := realtime.LogPublisher{}

	if !watch {
		completed, err := mirror.Drain(gormDB, pub, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Drained %d jobs\n", completed)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Draining on schedule %q (ctrl-c to stop)\n", cfg.Drain.Schedule)
	runDrainLoop(ctx, cfg, func() {
		mirror.DrainSafely(gormDB, pub, opts, "drain")
	})
	fmt.Fprintln(out, "\nStopped.")
	return nil
}

// runDrainLoop fires the pass function on the config's cron schedule until
// the context is cancelled.
func runDrainLoop(ctx context.Context, cfg *config.Config, pass func()) {
	for {
		wait := cfg.NextDrainFire(time.Now())
		if wait <= 0 {
			wait = time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			pass()
		}
	}
}

// drainOptsFromConfig maps drain config onto engine options. A flag limit
// overrides the configured one.
func drainOptsFromConfig(cfg *config.Config, limit int) mirror.DrainOpts {
	if limit <= 0 {
		limit = cfg.Drain.Limit
	}
	return mirror.DrainOpts{
		Limit: limit,
		Policy: mirror.RetryPolicy{
			MaxAttempts: cfg.Drain.MaxAttempts,
			BaseDelay:   cfg.Drain.BaseDelay(),
			DelayCap:    cfg.Drain.DelayCap(),
		},
	}
}
