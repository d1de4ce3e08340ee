package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
	"github.com/donaldgifford/gcp-budget-notifier/internal/app"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

func replayCmd() *cobra.Command {
	var (
		resource       string
		billingAccount string
		budget         string
		dryRun         bool
	)

	c := &cobra.Command{
		Use:   "replay FILE",
		Short: "Run a recorded budget alert through the notifier",
		Long: "Replay a Pub/Sub message. FILE holds either a push envelope\n" +
			`({"message": {...}}) or a bare budget notification, in which case the` + "\n" +
			"billing account and budget attributes come from flags.\n\n" +
			"Without --server the alert is handled in-process with the configured\n" +
			"state backend and Slack settings.",
		Example: `  budget-notifier replay alert.json --resource projects/my-project/topics/billing-alerts
  budget-notifier replay notification.json --billing-account 01D4EE-079462-DFD6EC --budget de72f49d --dry-run
  budget-notifier replay alert.json --server http://localhost:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := readEnvelope(args[0], billingAccount, budget)
			if err != nil {
				return err
			}

			var res *handlers.PushResult
			if remote() {
				if dryRun {
					return errors.New("--dry-run cannot be combined with --server")
				}
				res, err = newClient().Push(cmd.Context(), resource, env)
			} else {
				res, err = replayLocal(cmd, resource, env, dryRun)
			}
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printPushResult(cmd.OutOrStdout(), res)
		},
	}

	c.Flags().StringVar(&resource, "resource", "", "topic resource name (projects/{project}/topics/{topic}); defaults to server.resource")
	c.Flags().StringVar(&billingAccount, "billing-account", "", "billingAccountId attribute for a bare notification")
	c.Flags().StringVar(&budget, "budget", "", "budgetId attribute for a bare notification")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "decide without saving state or posting to Slack")

	return c
}

func replayLocal(cmd *cobra.Command, resource string, env *domain.PushEnvelope, dryRun bool) (*handlers.PushResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if resource == "" {
		resource = cfg.Server.Resource
	}

	ctx := cmd.Context()
	rt, err := app.New(ctx, cfg, app.WithVersion(Version), app.WithDryRun(dryRun))
	if err != nil {
		return nil, fmt.Errorf("initializing runtime: %w", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	res, err := rt.Engine.Handle(ctx, &engine.Invocation{
		ID:       env.Message.MessageID,
		Resource: domain.ParseResource(resource),
		Message:  env.Message,
	})
	if err != nil {
		return nil, err
	}

	out := handlers.NewPushResult(res)
	return &out, nil
}

// readEnvelope loads a push envelope, or wraps a bare budget notification
// in one. billingAccount and budget fill attributes the message lacks; a
// value conflicting with the envelope is an error.
func readEnvelope(path, billingAccount, budget string) (*domain.PushEnvelope, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from command line
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	env := &domain.PushEnvelope{Message: domain.PubSubMessage{Attributes: map[string]string{}, Data: data}}
	if _, ok := fields["message"]; ok {
		env = &domain.PushEnvelope{}
		if err := json.Unmarshal(data, env); err != nil {
			return nil, fmt.Errorf("parsing push envelope %s: %w", path, err)
		}
	}

	for attr, value := range map[string]string{
		domain.AttrBillingAccountID: billingAccount,
		domain.AttrBudgetID:         budget,
	} {
		if err := setAttribute(&env.Message, attr, value); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return env, nil
}

func setAttribute(msg *domain.PubSubMessage, attr, value string) error {
	if value == "" {
		return nil
	}
	if msg.Attributes == nil {
		msg.Attributes = map[string]string{}
	}
	if cur, ok := msg.Attributes[attr]; ok && cur != "" && cur != value {
		return fmt.Errorf("message attribute %s is %q, flag says %q", attr, cur, value)
	}
	msg.Attributes[attr] = value
	return nil
}
