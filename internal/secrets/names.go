package secrets

import (
	"strings"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// StatePrefix starts every throttle-state secret name.
const StatePrefix = "gcp-slack-notifier-state"

type namePart struct {
	present bool
	tag     string
	value   string
}

// StateSecretName derives the secret ID holding throttle state for key:
// StatePrefix followed by "_{topic}", "_BILLING-{billing}" and
// "_BUDGET-{budget}", each only when the field is set, in that order.
func StateSecretName(key domain.StateKey) string {
	parts := []namePart{
		{present: key.TopicID != "", value: key.TopicID},
		{present: key.BillingAccountID != "", tag: "BILLING-", value: key.BillingAccountID},
		{present: key.BudgetID != "", tag: "BUDGET-", value: key.BudgetID},
	}

	var b strings.Builder
	b.WriteString(StatePrefix)
	for _, p := range parts {
		if !p.present {
			continue
		}
		b.WriteString("_")
		b.WriteString(p.tag)
		b.WriteString(p.value)
	}

	return b.String()
}
