// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/gcp-budget-notifier/tools/dashgen/panels"
)

// BuildOverview constructs the Budget Notifier overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Budget Notifier Overview").
		Uid("budget-notifier-overview").
		Tags([]string{"budget-notifier", "gcp", "billing"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.AlertsReceivedStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Alerts.
	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.DecisionRate()).
		WithPanel(panels.MalformedAlerts()).
		WithPanel(panels.LastThreshold()))

	// Row 4: Slack.
	b.WithRow(dashboard.NewRowBuilder("Slack").
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.ConnectFailures()))

	// Row 5: State.
	b.WithRow(dashboard.NewRowBuilder("State").
		WithPanel(panels.StateTraffic()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
