package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/contact"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/fixture"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/repository"
	"github.com/telhawk-systems/campaign-stack/common/execution"
)

var (
	replayFile   string
	replayDryRun bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run one execution from a YAML fixture",
	Long: `Replay a recorded trigger as a system-triggered execution.

Examples:
  # Write the logs to PostgreSQL
  campaign replay --file trigger.yaml

  # Run against an in-memory store and print the result
  campaign replay --file trigger.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "fixture to replay")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "use an in-memory store instead of PostgreSQL")
	_ = replayCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	trigger, err := fixture.Load(replayFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	execution.SetSystemTriggered(true)

	var repo repository.Repository
	if replayDryRun {
		repo = repository.NewMemoryRepository()
	} else {
		pg, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		repo = pg
	}
	defer repo.Close()

	// Replays name their contacts explicitly, so no session store is needed.
	svc := newService(cfg, repo, contact.NewTracker(nil, 0), nil, logger)

	result, err := svc.Execute(ctx, trigger)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

