package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybridge/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Waybridge database",
		Long:  "Creates the database and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "waybridge.yaml", "path to Waybridge config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adminDB, err := db.ConnectAdmin(cfg.Database.Host, cfg.Database.Port)
	if err != nil {
		return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.Database.Host, cfg.Database.Port)

	if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)

	gormDB, err := db.Connect(cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nWaybridge database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Waybridge database",
		Long:  "Drops the Waybridge database, re-creates it, and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "waybridge.yaml", "path to Waybridge config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !skipConfirm {
		if !confirmReset(cmd, cfg.Database.Name) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	adminDB, err := db.ConnectAdmin(cfg.Database.Host, cfg.Database.Port)
	if err != nil {
		return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	if err := db.DropDatabase(adminDB, cfg.Database.Name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dropped database %s\n", cfg.Database.Name)

	if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s re-created\n", cfg.Database.Name)

	gormDB, err := db.Connect(cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nWaybridge database reset successfully.")
	return nil
}

// confirmReset prompts the user to type "yes" before a destructive reset.
func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in database %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
