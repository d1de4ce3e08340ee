package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: APIVersion,
		Kind:       Kind,
		Metadata:   metadata("budget-notifier-recording-rules"),
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "budget-notifier-recording",
					Rules: []Rule{
						{
							Record: "budget_notifier:http_requests:rate5m",
							Expr:   `sum(rate(budget_notifier_http_requests_total[5m]))`,
						},
						{
							Record: "budget_notifier:http_errors:rate5m",
							Expr:   `sum(rate(budget_notifier_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "budget_notifier:alerts_received:rate5m",
							Expr:   `sum(rate(budget_notifier_alerts_received_total[5m]))`,
						},
						{
							Record: "budget_notifier:alert_decisions:rate5m",
							Expr:   `sum by (decision) (rate(budget_notifier_alert_decisions_total[5m]))`,
						},
						{
							Record: "budget_notifier:notification_failures:rate5m",
							Expr:   `sum(rate(budget_notifier_notification_failures_total[5m]))`,
						},
						{
							Record: "budget_notifier:notification_duration:p95_5m",
							Expr:   `histogram_quantile(0.95, sum(rate(budget_notifier_notification_duration_seconds_bucket[5m])) by (le))`,
						},
					},
				},
			},
		},
	}
}
