// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metrics.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/gcp-budget-notifier/tools/dashgen/rules"
)

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Expr parses expr and returns the metric names it selects.
func Expr(expr string) ([]string, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, err
	}

	var names []string
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" {
			names = append(names, vs.Name)
		}
		return nil
	})
	return names, nil
}

func checkExpr(where, expr string, known map[string]bool) Result {
	var res Result

	names, err := Expr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: invalid PromQL %q: %v", where, expr, err))
		return res
	}
	for _, name := range names {
		if !known[name] {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, name))
		}
	}
	return res
}

// Dashboard validates every panel target in dash.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	for _, p := range dash.Panels {
		switch {
		case p.RowPanel != nil:
			for i := range p.RowPanel.Panels {
				res.merge(panel(&p.RowPanel.Panels[i], known))
			}
		case p.Panel != nil:
			res.merge(panel(p.Panel, known))
		}
	}
	return res
}

func panel(p *dashboard.Panel, known map[string]bool) Result {
	var res Result

	title := "untitled panel"
	if p.Title != nil {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
		return res
	}

	for _, target := range p.Targets {
		expr, err := targetExpr(target)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("panel %q: %v", title, err))
			continue
		}
		res.merge(checkExpr(fmt.Sprintf("panel %q", title), expr, known))
	}
	return res
}

// targetExpr reads the expression of a Prometheus query target through its
// JSON form, which is what Grafana sees.
func targetExpr(target any) (string, error) {
	data, err := json.Marshal(target)
	if err != nil {
		return "", fmt.Errorf("encoding target: %w", err)
	}
	var q struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return "", fmt.Errorf("decoding target: %w", err)
	}
	if q.Expr == "" {
		return "", fmt.Errorf("target has no expr")
	}
	return q.Expr, nil
}

// Rules validates every rule expression in cr.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			res.merge(checkExpr(fmt.Sprintf("rule %s/%s", g.Name, name), r.Expr, known))
		}
	}
	return res
}
