// Package commands implements the campaign command-line interface.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/config"
	"github.com/telhawk-systems/campaign-stack/common/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Campaign event log service",
	Long: `campaign records which campaign events were triggered for which contacts.

Run the service, apply database migrations, replay recorded triggers and
generate test fixtures from your terminal.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/campaign/config.yaml)")
}

// loadConfig loads configuration and installs the configured default logger.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("campaign"))
	logging.SetDefault(logger)
	return cfg, logger, nil
}
