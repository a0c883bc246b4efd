package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybridge/internal/config"
	"github.com/zulandar/waybridge/internal/dashboard"
	"github.com/zulandar/waybridge/internal/mirror"
	"github.com/zulandar/waybridge/internal/realtime"
	"github.com/zulandar/waybridge/internal/realtime/discord"
	"github.com/zulandar/waybridge/internal/realtime/slack"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and the scheduled drain loop",
		Long: `Starts the Waybridge dashboard API and keeps draining mirror jobs on
the configured schedule. Engine events stream to dashboard clients over SSE
and, when configured, to Discord and Slack.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "waybridge.yaml", "path to Waybridge config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Dashboard.Port
	}

	broker := realtime.NewBroker()
	pub := buildPublisher(cfg, broker, out)
	opts := drainOptsFromConfig(cfg, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runDrainLoop(ctx, cfg, func() {
		mirror.DrainSafely(gormDB, pub, opts, "serve drain")
	})
	fmt.Fprintf(out, "Drain loop running on schedule %q\n", cfg.Drain.Schedule)

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:     gormDB,
		Port:   port,
		Broker: broker,
		Out:    out,
	})
}

// buildPublisher assembles the event fanout: process log, SSE broker, and
// any chat forwarders the config enables.
func buildPublisher(cfg *config.Config, broker *realtime.Broker, out io.Writer) realtime.Publisher {
	fanout := realtime.Fanout{realtime.LogPublisher{}, broker}

	if cfg.Notify.Discord.BotToken != "" && cfg.Notify.Discord.ChannelID != "" {
		p, err := discord.New(discord.Opts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			fmt.Fprintf(out, "Discord forwarder disabled: %v\n", err)
		} else {
			fanout = append(fanout, p)
			fmt.Fprintln(out, "Forwarding events to Discord")
		}
	}

	if cfg.Notify.Slack.BotToken != "" && cfg.Notify.Slack.ChannelID != "" {
		p, err := slack.New(slack.Opts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			fmt.Fprintf(out, "Slack forwarder disabled: %v\n", err)
		} else {
			fanout = append(fanout, p)
			fmt.Fprintln(out, "Forwarding events to Slack")
		}
	}

	return fanout
}
