// Package cmd implements the budget-notifier CLI commands.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/gcp-budget-notifier/internal/api/client"
	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "budget-notifier",
		Short: "Post GCP budget alerts to Slack",
		Long: "budget-notifier receives Cloud Billing budget alerts from Pub/Sub and posts\n" +
			"each new threshold crossing to Slack, suppressing repeats per budget.\n" +
			"It runs as a Cloud Function, a Pub/Sub push server, or locally to replay\n" +
			"recorded alerts.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file (YAML, optional)")
	root.PersistentFlags().String("server", "", "push server URL; when set, commands talk to it instead of running locally")
	root.PersistentFlags().String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("config", root.PersistentFlags().Lookup("config")))
	cobra.CheckErr(viper.BindPFlag("server", root.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", root.PersistentFlags().Lookup("output")))

	root.AddCommand(
		serveCmd(),
		replayCmd(),
		stateCmd(),
		migrateCmd(),
		versionCmd(),
	)

	return root
}

func init() {
	cobra.OnInitialize(initConfig)
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	viper.SetEnvPrefix("BUDGET_NOTIFIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func remote() bool {
	return viper.GetString("server") != ""
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
