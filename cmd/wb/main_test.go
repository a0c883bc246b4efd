package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "wb dev") {
		t.Errorf("expected output to contain 'wb dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "wb 1.0.0") {
		t.Errorf("expected output to contain 'wb 1.0.0', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Waybridge") {
		t.Errorf("expected help output to contain 'Waybridge', got: %s", out)
	}
	for _, sub := range []string{"version", "db", "drain", "serve", "station"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestExecuteSuccess(t *testing.T) {
	code := execute(newRootCmd())
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestExecuteError(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("intentional error")
		},
	}
	code := execute(cmd)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("/nonexistent/waybridge.yaml")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Database.Name != "waybridge" {
		t.Errorf("Database.Name = %q, want default", cfg.Database.Name)
	}
	if cfg.Drain.Limit != 20 {
		t.Errorf("Drain.Limit = %d, want 20", cfg.Drain.Limit)
	}
}
