package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DecisionRate returns a timeseries panel showing throttle decisions per
// second split by outcome.
func DecisionRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Throttle Decisions").
		Description("Notify, suppress and skip decisions per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`budget_notifier:alert_decisions:rate5m`, "{{decision}}", "A")).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(SeriesLegend()).
		Tooltip(SeriesTooltip()).
		Thresholds(Thresholds("green")).
		ColorScheme(Palette()).
		DrawStyle(common.GraphDrawStyleLine)
}

// MalformedAlerts returns a stat panel showing alerts that failed to decode
// in the past 24 hours.
func MalformedAlerts() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Malformed Alerts (24h)").
		Description("Pub/Sub messages rejected as malformed budget alerts").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+Metric("budget_notifier_alerts_malformed_total")+`[24h])`, "", "A")).
		Thresholds(Escalating(1, 10)).
		ColorScheme(ByThreshold()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// LastThreshold returns a gauge panel showing the highest threshold notified
// in the current interval for each budget.
func LastThreshold() *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("Last Threshold %").
		Description("Highest budget threshold notified this interval, per budget").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`max by (budget_id) (`+Metric("budget_notifier_last_threshold_percent")+`)`, "{{budget_id}}", "A")).
		Unit("percent").
		Min(0).
		Max(150).
		Thresholds(Escalating(90, 100)).
		ColorScheme(ByThreshold())
}

// NotificationLatency returns a timeseries panel showing the p95 Slack post
// latency.
func NotificationLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notification Latency (p95)").
		Description("95th percentile Slack chat.postMessage latency").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`budget_notifier:notification_duration:p95_5m`,
			"p95", "A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(Escalating(1, 5)).
		ColorScheme(Palette()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NotificationFailures returns a stat panel showing Slack post failures
// in the past 24 hours.
func NotificationFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Notification Failures (24h)").
		Description("Failed Slack posts in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+Metric("budget_notifier_notification_failures_total")+`[24h])`, "", "A")).
		Thresholds(Escalating(1, 5)).
		ColorScheme(ByThreshold()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// ConnectFailures returns a stat panel counting invocations that could not
// obtain a Slack token in the past 24 hours.
func ConnectFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Token Lookup Failures (24h)").
		Description("Invocations that found no Slack token in the environment or Secret Manager").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+Metric("budget_notifier_chat_connect_failures_total")+`[24h])`, "", "A")).
		Thresholds(Escalating(1, 3)).
		ColorScheme(ByThreshold()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
