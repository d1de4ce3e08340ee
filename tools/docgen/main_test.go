package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "budget-notifier", Short: "Budget alerts to Slack"}
	root.AddCommand(&cobra.Command{
		Use:   "replay",
		Short: "Replay a budget alert",
		Run:   func(*cobra.Command, []string) {},
	})
	return root
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   []string
	}{
		{format: "markdown", want: []string{"budget-notifier.md", "budget-notifier_replay.md"}},
		{format: "man", want: []string{"budget-notifier.1", "budget-notifier-replay.1"}},
		{format: "yaml", want: []string{"budget-notifier.yaml", "budget-notifier_replay.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "cli")
			require.NoError(t, generate(testTree(), tt.format, dir))

			for _, name := range tt.want {
				data, err := os.ReadFile(filepath.Join(dir, name))
				require.NoError(t, err, name)
				assert.Contains(t, string(data), "replay")
			}
		})
	}
}

func TestGenerate_UnknownFormat(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "cli")
	require.Error(t, generate(testTree(), "html", dir))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
