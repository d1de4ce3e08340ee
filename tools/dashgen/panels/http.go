package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate returns a timeseries panel showing the HTTP request rate.
func RequestRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Request Rate").
		Description("HTTP requests per second, mostly Pub/Sub pushes").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`budget_notifier:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(SeriesLegend()).
		Tooltip(SeriesTooltip()).
		Thresholds(Thresholds("green")).
		ColorScheme(Palette()).
		DrawStyle(common.GraphDrawStyleLine)
}

func httpQuantile(q float64) string {
	return fmt.Sprintf(
		`histogram_quantile(%.2f, sum(rate(%s[5m])) by (le))`,
		q, Metric("budget_notifier_http_request_duration_seconds_bucket"),
	)
}

// LatencyPercentiles returns a timeseries panel showing p50, p95, and p99
// HTTP request latencies.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Latency Percentiles").
		Description("HTTP request duration percentiles").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(httpQuantile(0.50), "p50", "A")).
		WithTarget(PromQuery(httpQuantile(0.95), "p95", "B")).
		WithTarget(PromQuery(httpQuantile(0.99), "p99", "C")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(SeriesLegend()).
		Tooltip(SeriesTooltip()).
		Thresholds(Thresholds("green")).
		ColorScheme(Palette()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ErrorRate returns a timeseries panel showing the HTTP 5xx error rate
// as a percentage. Each 5xx on the push route is a Pub/Sub redelivery.
func ErrorRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Error Rate %").
		Description("HTTP 5xx error rate as percentage of total requests").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`budget_notifier:http_errors:rate5m / budget_notifier:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(Escalating(1, 5)).
		ColorScheme(ByThreshold()).
		DrawStyle(common.GraphDrawStyleLine)
}
