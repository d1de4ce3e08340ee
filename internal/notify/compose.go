package notify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

const (
	intervalLayout = "Jan 02, 2006"
	overBudgetGIF  = "https://media.giphy.com/media/l0HFkA6omUyjVYqw8/giphy.gif"
)

// Compose renders the Slack text for alert using Slack mrkdwn. Alerts past
// 100% of the budget get an extra marker and link.
func Compose(alert *domain.AlertEvent) string {
	threshold := alert.Threshold()

	var b strings.Builder
	fmt.Fprintf(&b, ":gcp: _%s_ billing alert :money_with_wings:\n", alert.BudgetDisplayName)
	fmt.Fprintf(&b, "*%s* is over %s%% of budgeted %s %s for period starting %s",
		FormatMoney(alert.CostAmount),
		FormatPercent(threshold),
		FormatMoney(alert.BudgetAmount),
		alert.CurrencyCode,
		alert.CostIntervalStart.Format(intervalLayout),
	)

	if threshold > 100 {
		b.WriteString(" :sad: ")
		b.WriteString(overBudgetGIF)
	}

	return b.String()
}

// FormatMoney renders v as dollars with thousands separators and two
// decimals, e.g. $1,234.50.
func FormatMoney(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatPercent renders a percentage rounded to two decimals without
// trailing zeros: 50, 87.5, 33.33.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
