package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// gcp-budget-notifier operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: APIVersion,
		Kind:       Kind,
		Metadata:   metadata("budget-notifier-alerts"),
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "budget-notifier-alerts",
					Rules: []Rule{
						{
							Alert: "BudgetNotifierDown",
							Expr:  `absent(up{job="budget-notifier"})`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Budget notifier is down",
								"description": "The budget-notifier job has been absent for more than 5 minutes. Billing alerts are not reaching Slack.",
							},
						},
						{
							Alert: "BudgetNotifierStateUnavailable",
							Expr:  `budget_notifier_readyz_up == 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Budget notifier cannot reach its state store",
								"description": "The readiness probe has been failing for more than 5 minutes. Alerts are being redelivered by Pub/Sub.",
							},
						},
						{
							Alert: "BudgetNotifierHighErrorRate",
							Expr:  `budget_notifier:http_errors:rate5m / budget_notifier:http_requests:rate5m > 0.05`,
							For:   "10m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the budget notifier",
								"description": "More than 5% of requests are returning 5xx errors, each of which Pub/Sub retries.",
							},
						},
						{
							Alert: "BudgetNotifierMalformedAlerts",
							Expr:  `increase(budget_notifier_alerts_malformed_total[30m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Malformed budget alerts received",
								"description": "Pub/Sub delivered messages that could not be decoded as budget notifications.",
							},
						},
						{
							Alert: "BudgetNotifierSlackFailures",
							Expr:  `budget_notifier:notification_failures:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Slack notifications are failing",
								"description": "Slack posts have failed for 5 minutes. Throttle state was saved, so those thresholds will not be re-announced.",
							},
						},
						{
							Alert: "BudgetNotifierNoSlackToken",
							Expr:  `increase(budget_notifier_chat_connect_failures_total[15m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "No Slack token available",
								"description": "Invocations found no Slack token in SLACK_API_TOKEN or Secret Manager.",
							},
						},
						{
							Alert: "BudgetOverrun",
							Expr:  `max by (budget_id) (budget_notifier_last_threshold_percent) >= 100`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "info",
							},
							Annotations: map[string]string{
								"summary":     "Budget {{ $labels.budget_id }} is over 100%",
								"description": "Spend has crossed the full budget amount in the current interval.",
							},
						},
					},
				},
			},
		},
	}
}
