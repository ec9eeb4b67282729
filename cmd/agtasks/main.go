package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/FrancoGavegno/agtasks-sub000/internal/config"
	"github.com/FrancoGavegno/agtasks-sub000/internal/farm360"
	"github.com/FrancoGavegno/agtasks-sub000/internal/logging"
	"github.com/FrancoGavegno/agtasks-sub000/internal/persist"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tracker"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tui"
)

var (
	// CLI flags
	projectFlag string
	configFlag  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agtasks",
		Short: "Terminal wizard for creating agricultural services",
		Long: `agtasks walks you through creating a service for a project:
pick a protocol, select the lots it covers, assign its tasks, and submit.

Submission opens a tracker issue, persists the service and its fields,
and creates one tracker sub-issue per task.

Configuration:
  Credentials and endpoints come from the config file
  (default ~/.config/agtasks/config.yaml) or AGTASKS_* environment
  variables, e.g. AGTASKS_TRACKER_TOKEN.`,
		RunE: run,
	}

	// Define CLI flags
	rootCmd.Flags().StringVar(&projectFlag, "project", "", "Project ID the service is created under (required).")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Path to the config file. Overrides the default search paths.")
	_ = rootCmd.MarkFlagRequired("project")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w\n\nSet missing values in the config file or as AGTASKS_* environment variables", err)
	}

	log, sync, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer sync()

	trackerClient := tracker.New(cfg.Tracker.BaseURL, cfg.Tracker.Token)
	farmClient := farm360.New(cfg.Farm360.Endpoint, cfg.Farm360.APIKey)
	persistClient := persist.New(cfg.Persist.BaseURL, cfg.Persist.APIKey)

	ctx := context.Background()
	app := tui.NewAppModel(ctx, log, cfg, trackerClient, farmClient, persistClient, projectFlag)

	// Run Bubble Tea program
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}
