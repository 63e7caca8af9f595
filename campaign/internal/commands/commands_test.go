package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/fixture"
)

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"serve": false, "migrate": false, "replay": false, "seed": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected command %q to be registered", name)
	}
}

func TestReplayRequiresFile(t *testing.T) {
	flag := replayCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestRunMigrations_UnknownDirection(t *testing.T) {
	err := runMigrations("file://../../migrations", "postgres://u:p@127.0.0.1:1/db?sslmode=disable", "sideways")
	assert.Error(t, err)
}

func TestSeedAndReplayDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trigger.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"seed", "--contacts", "25", "--channel", "email", "--channel-id", "3", "--seed", "9", "--out", path})
	require.NoError(t, rootCmd.Execute())

	trigger, err := fixture.Load(path)
	require.NoError(t, err)
	assert.Len(t, trigger.Contacts, 25)

	out.Reset()
	rootCmd.SetArgs([]string{"replay", "--file", path, "--dry-run"})
	require.NoError(t, rootCmd.Execute())

	var result struct {
		ExecutionID string  `json:"execution_id"`
		LogIDs      []int64 `json:"log_ids"`
		ContactIDs  []int64 `json:"contact_ids"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, trigger.ExecutionID, result.ExecutionID)
	assert.Len(t, result.LogIDs, 25)
	assert.Len(t, result.ContactIDs, 25)
}

func TestMain(m *testing.M) {
	// Keep config loading independent of any config.yaml next to the tests.
	cfgFile = ""
	os.Exit(m.Run())
}
