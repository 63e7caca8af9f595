package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/fixture"
)

var (
	seedOut    string
	seedConfig fixture.GenerateConfig
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a replay fixture with fake contacts",
	Long: `Generate a trigger for a campaign event with generated contacts.

Examples:
  # Print a fixture for 100 contacts
  campaign seed --contacts 100

  # Write a reproducible email fixture
  campaign seed --contacts 50 --channel email --channel-id 12 --seed 42 --out trigger.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedConfig.Contacts < 0 {
			return fmt.Errorf("--contacts must not be negative")
		}

		trigger := fixture.Generate(seedConfig)

		out := cmd.OutOrStdout()
		if seedOut != "" {
			f, err := os.Create(seedOut)
			if err != nil {
				return fmt.Errorf("failed to create fixture: %w", err)
			}
			defer f.Close()
			out = f
		}
		return fixture.Encode(out, trigger)
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVarP(&seedOut, "out", "o", "", "write the fixture to a file instead of stdout")
	f.Int64Var(&seedConfig.CampaignID, "campaign", 1, "campaign ID")
	f.Int64Var(&seedConfig.EventID, "event", 1, "event ID")
	f.StringVar(&seedConfig.EventName, "event-name", "", "event name (generated when empty)")
	f.StringVar(&seedConfig.EventType, "event-type", "email.send", "event type")
	f.StringVar(&seedConfig.Channel, "channel", "", "channel the event writes to")
	f.Int64Var(&seedConfig.ChannelID, "channel-id", 0, "channel entity ID")
	f.IntVar(&seedConfig.Contacts, "contacts", 20, "number of contacts")
	f.BoolVar(&seedConfig.Inactive, "inactive", false, "mark the logs as non-action path")
	f.Int64Var(&seedConfig.Seed, "seed", 0, "random seed (0 for random)")
	rootCmd.AddCommand(seedCmd)
}
