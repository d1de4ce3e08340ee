package main

import (
	"errors"
	"fmt"
)

// KnownMetrics is the set of metric names exported by gcp-budget-notifier
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"budget_notifier_http_request_duration_seconds_bucket": true,
	"budget_notifier_http_requests_total":                  true,
	"budget_notifier_http_panics_total":                    true,

	// Health metrics.
	"budget_notifier_healthz_up": true,
	"budget_notifier_readyz_up":  true,

	// Alert metrics.
	"budget_notifier_alerts_received_total":                true,
	"budget_notifier_alerts_malformed_total":               true,
	"budget_notifier_alert_decisions_total":                true,
	"budget_notifier_alert_handle_duration_seconds_bucket": true,
	"budget_notifier_last_threshold_percent":               true,

	// State metrics.
	"budget_notifier_state_read_errors_total": true,
	"budget_notifier_state_writes_total":      true,

	// Notification metrics.
	"budget_notifier_notifications_sent_total":             true,
	"budget_notifier_notification_failures_total":          true,
	"budget_notifier_notification_duration_seconds_bucket": true,
	"budget_notifier_chat_connect_failures_total":          true,

	// Recording rules.
	"budget_notifier:http_requests:rate5m":         true,
	"budget_notifier:http_errors:rate5m":           true,
	"budget_notifier:alerts_received:rate5m":       true,
	"budget_notifier:alert_decisions:rate5m":       true,
	"budget_notifier:notification_failures:rate5m": true,
	"budget_notifier:notification_duration:p95_5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Rule output formats.
const (
	// FormatOperator writes PrometheusRule resources for the Prometheus
	// Operator or Managed Service for Prometheus.
	FormatOperator = "operator"
	// FormatPlain writes rule files for a rule_files entry.
	FormatPlain = "plain"
)

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
	RulesFormat      string
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
		RulesFormat:      FormatOperator,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	if c.RulesEnabled && c.RulesFormat != FormatOperator && c.RulesFormat != FormatPlain {
		return fmt.Errorf("unknown rules format %q (want %s or %s)", c.RulesFormat, FormatOperator, FormatPlain)
	}
	return nil
}
