package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// StateTraffic returns a timeseries panel showing state writes and read
// errors. Read errors are treated as empty state, so a spike here means
// repeat notifications.
func StateTraffic() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("State Store").
		Description("Alert state writes and read errors per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(`sum(rate(`+Metric("budget_notifier_state_writes_total")+`[5m]))`, "writes", "A")).
		WithTarget(PromQuery(`sum(rate(`+Metric("budget_notifier_state_read_errors_total")+`[5m]))`, "read errors", "B")).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(SeriesLegend()).
		Tooltip(SeriesTooltip()).
		Thresholds(Thresholds("green")).
		ColorScheme(Palette()).
		DrawStyle(common.GraphDrawStyleLine)
}
