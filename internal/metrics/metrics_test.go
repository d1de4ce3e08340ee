package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Registered via promauto on package init.
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, HTTPPanicsTotal)
	assert.NotNil(t, AlertsReceivedTotal)
	assert.NotNil(t, AlertsMalformedTotal)
	assert.NotNil(t, AlertDecisionsTotal)
	assert.NotNil(t, AlertHandleDuration)
	assert.NotNil(t, LastThresholdPercent)
	assert.NotNil(t, StateReadErrorsTotal)
	assert.NotNil(t, StateWritesTotal)
	assert.NotNil(t, NotificationsSentTotal)
	assert.NotNil(t, NotificationFailuresTotal)
	assert.NotNil(t, NotificationDuration)
	assert.NotNil(t, ChatConnectFailuresTotal)
}

func TestMetricsGatheredUnderNamespace(t *testing.T) {
	t.Parallel()

	AlertDecisionsTotal.WithLabelValues(DecisionNotify).Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	assert.True(t, names["budget_notifier_alerts_received_total"])
	assert.True(t, names["budget_notifier_alert_decisions_total"])
	assert.True(t, names["budget_notifier_notification_failures_total"])
}
