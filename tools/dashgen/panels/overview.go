package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat returns a stat panel showing the health check status.
func HealthzStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Healthz").
		Description("Health check status (1 = ok, 0 = failing)").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(Metric("budget_notifier_healthz_up"), "", "A")).
		Thresholds(Up()).
		ColorScheme(ByThreshold()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// ReadyzStat returns a stat panel showing the readiness check status.
func ReadyzStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Readyz").
		Description("Readiness check status (1 = ready, 0 = state store unreachable)").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(Metric("budget_notifier_readyz_up"), "", "A")).
		Thresholds(Up()).
		ColorScheme(ByThreshold()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// AlertsReceivedStat returns a stat panel showing budget alerts received in
// the past 24 hours.
func AlertsReceivedStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Alerts Received (24h)").
		Description("Budget alert messages delivered by Pub/Sub in the last 24 hours").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+Metric("budget_notifier_alerts_received_total")+`[24h])`, "", "A")).
		Thresholds(Thresholds("green")).
		ColorScheme(ByThreshold()).
		GraphMode(common.BigValueGraphModeArea)
}

// UptimeStat returns a stat panel showing process uptime.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - `+Metric("process_start_time_seconds"),
			"", "A",
		)).
		Unit("s").
		Thresholds(Thresholds("green")).
		ColorScheme(ByThreshold()).
		GraphMode(common.BigValueGraphModeNone)
}
