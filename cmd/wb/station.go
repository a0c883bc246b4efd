package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybridge/internal/mirror"
	"github.com/zulandar/waybridge/internal/station"
)

func newStationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Station thread commands",
	}

	cmd.AddCommand(newStationListCmd())
	cmd.AddCommand(newStationEnsureCmd())
	return cmd
}

func newStationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known stations",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tCALLSIGN\tROLE")
			for _, tpl := range station.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tpl.Key, tpl.Callsign, tpl.Role)
			}
			w.Flush()
		},
	}
}

func newStationEnsureCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Ensure a user has a bridge thread per station",
		Long: `Creates any missing station threads for the user. On first creation a
thread is paired with the user's station session, if one exists, and the
session's history is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStationEnsure(cmd, configPath, userID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "waybridge.yaml", "path to Waybridge config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID to bootstrap (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runStationEnsure(cmd *cobra.Command, configPath, userID string) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	threads, err := mirror.EnsureStationThreadsForUser(gormDB, userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "THREAD\tSTATION\tTITLE\tSESSION")
	for _, th := range threads {
		sessionID := "-"
		if th.SessionID != nil {
			sessionID = *th.SessionID
		}
		stationKey := "-"
		if th.StationKey != nil {
			stationKey = *th.StationKey
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", th.ID, stationKey, th.Title, sessionID)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d station threads ready for %s\n", len(threads), userID)
	return nil
}
