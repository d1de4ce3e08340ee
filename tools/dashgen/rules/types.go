// Package rules generates the notifier's Prometheus recording and alert
// rules, as Prometheus Operator resources or plain rule files.
package rules

// Resource identity for Prometheus Operator rule objects.
const (
	APIVersion = "monitoring.coreos.com/v1"
	Kind       = "PrometheusRule"
)

// ruleSelector is the label the Prometheus Operator's ruleSelector matches.
var ruleSelector = map[string]string{"prometheus": "system-rules-prometheus"}

// PrometheusRule is a Prometheus Operator rule resource.
type PrometheusRule struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   PrometheusRuleMetadata `yaml:"metadata"`
	Spec       PrometheusRuleSpec     `yaml:"spec"`
}

// PrometheusRuleMetadata is the resource metadata.
type PrometheusRuleMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// PrometheusRuleSpec holds the rule groups.
type PrometheusRuleSpec struct {
	Groups []RuleGroup `yaml:"groups"`
}

// RuleGroup is a named collection of recording or alerting rules.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Rule is a recording rule when Record is set, an alerting rule when Alert
// is set.
type Rule struct {
	Record      string            `yaml:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// RuleFile is a plain Prometheus rules file as loaded by rule_files and
// checked by promtool.
type RuleFile struct {
	Groups []RuleGroup `yaml:"groups"`
}

func metadata(name string) PrometheusRuleMetadata {
	return PrometheusRuleMetadata{Name: name, Labels: ruleSelector}
}

// Standalone returns the rule groups of pr as a plain rules file.
func (pr PrometheusRule) Standalone() RuleFile {
	return RuleFile{Groups: pr.Spec.Groups}
}

// Names returns the record or alert name of every rule, in order.
func (pr PrometheusRule) Names() []string {
	var names []string
	for _, g := range pr.Spec.Groups {
		for _, r := range g.Rules {
			if r.Record != "" {
				names = append(names, r.Record)
			} else {
				names = append(names, r.Alert)
			}
		}
	}
	return names
}
