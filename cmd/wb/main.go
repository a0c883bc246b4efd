package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybridge/internal/config"
	"github.com/zulandar/waybridge/internal/db"
	"gorm.io/gorm"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wb",
		Short: "Waybridge - session/bridge mirror engine",
		Long:  "Waybridge keeps chat sessions and bridge threads mirrored in both directions.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newDrainCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStationCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wb %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// connectFromConfig loads the config and opens the database it names.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := db.Connect(cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
