// Package panels provides Grafana dashboard panel builders for
// gcp-budget-notifier metrics.
package panels

import (
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
)

// Job is the Prometheus scrape job the notifier runs under.
const Job = "budget-notifier"

// Panel dimensions on the 24-column grid.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth  = 12
	TSHeight = 8

	FullWidth = 24
)

// Metric returns a selector for name scoped to the notifier job. Extra
// matchers are appended verbatim, e.g. `decision="notify"`.
func Metric(name string, matchers ...string) string {
	return name + "{" + strings.Join(append([]string{`job="` + Job + `"`}, matchers...), ",") + "}"
}

// DSRef returns a datasource reference pointing at the ${datasource}
// template variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// PromQuery builds a Prometheus query target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// Step switches a panel to Color from At upwards.
type Step struct {
	At    float64
	Color string
}

// Thresholds returns absolute thresholds starting at base below the first
// step.
func Thresholds(base string, steps ...Step) cog.Builder[dashboard.ThresholdsConfig] {
	out := make([]dashboard.Threshold, 0, len(steps)+1)
	out = append(out, dashboard.Threshold{Color: base})
	for _, s := range steps {
		out = append(out, dashboard.Threshold{Value: cog.ToPtr(s.At), Color: s.Color})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(out)
}

// Escalating is green below warn, yellow from warn and red from crit.
func Escalating(warn, crit float64) cog.Builder[dashboard.ThresholdsConfig] {
	return Thresholds("green", Step{At: warn, Color: "yellow"}, Step{At: crit, Color: "red"})
}

// Up is red below 1 and green from 1, for 0/1 gauges.
func Up() cog.Builder[dashboard.ThresholdsConfig] {
	return Thresholds("red", Step{At: 1, Color: "green"})
}

// ByThreshold colors values by their threshold step.
func ByThreshold() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdThresholds)
}

// Palette colors series with the classic palette.
func Palette() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// SeriesLegend is a bottom table legend with mean and max columns.
func SeriesLegend() *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs([]string{"mean", "max"})
}

// SeriesTooltip shows every series, largest first.
func SeriesTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}
