package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
	"github.com/donaldgifford/gcp-budget-notifier/internal/app"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

func stateCmd() *cobra.Command {
	var key domain.StateKey

	c := &cobra.Command{
		Use:   "state",
		Short: "Show the stored throttle state for a budget",
		Example: `  budget-notifier state --project my-project --topic billing-alerts \
    --billing-account 01D4EE-079462-DFD6EC --budget de72f49d
  budget-notifier state --topic billing-alerts --budget de72f49d --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				body *handlers.StateBody
				err  error
			)
			if remote() {
				body, err = newClient().State(cmd.Context(), key)
			} else {
				body, err = localState(cmd, key)
			}
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), body)
			}
			return printState(cmd.OutOrStdout(), body)
		},
	}

	c.Flags().StringVar(&key.ProjectID, "project", "", "project holding the state (defaults to state.project_id)")
	c.Flags().StringVar(&key.TopicID, "topic", "", "Pub/Sub topic ID")
	c.Flags().StringVar(&key.BillingAccountID, "billing-account", "", "billing account ID")
	c.Flags().StringVar(&key.BudgetID, "budget", "", "budget ID")

	return c
}

func localState(cmd *cobra.Command, key domain.StateKey) (*handlers.StateBody, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	rt, err := app.New(ctx, cfg, app.WithVersion(Version), app.WithDryRun(true))
	if err != nil {
		return nil, fmt.Errorf("initializing runtime: %w", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	state, err := rt.Engine.State(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	return &handlers.StateBody{Key: key, State: *state}, nil
}
