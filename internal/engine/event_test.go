package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

const sampleAlertJSON = `{
  "budgetDisplayName": "prod-budget",
  "alertThresholdExceeded": 0.9,
  "costAmount": 1234.5,
  "costIntervalStart": "2024-03-01T08:00:00Z",
  "budgetAmount": 1500,
  "budgetAmountType": "SPECIFIED_AMOUNT",
  "currencyCode": "USD"
}`

func sampleMessage(data string) *domain.PubSubMessage {
	return &domain.PubSubMessage{
		Attributes: map[string]string{
			"billingAccountId": "01D4EE-079462-DFD6EC",
			"budgetId":         "de72f49d-779b-4945-a127-4d6ce8def0bb",
			"schemaVersion":    "1.0",
		},
		Data: []byte(data),
	}
}

var sampleResource = domain.Resource{ProjectID: "my-project", TopicID: "billing-alerts"}

func TestDecodeAlert(t *testing.T) {
	t.Parallel()

	alert, err := DecodeAlert(sampleResource, sampleMessage(sampleAlertJSON))
	require.NoError(t, err)

	assert.Equal(t, "my-project", alert.ProjectID)
	assert.Equal(t, "billing-alerts", alert.TopicID)
	assert.Equal(t, "01D4EE-079462-DFD6EC", alert.BillingAccountID)
	assert.Equal(t, "de72f49d-779b-4945-a127-4d6ce8def0bb", alert.BudgetID)
	assert.Equal(t, "1.0", alert.SchemaVersion)
	assert.Equal(t, "prod-budget", alert.BudgetDisplayName)
	assert.InDelta(t, 1234.5, alert.CostAmount, 1e-9)
	assert.InDelta(t, 1500.0, alert.BudgetAmount, 1e-9)
	assert.Equal(t, "SPECIFIED_AMOUNT", alert.BudgetAmountType)
	assert.Equal(t, "USD", alert.CurrencyCode)
	assert.True(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Equal(alert.CostIntervalStart))
	assert.InDelta(t, 0.9, alert.ThresholdExceeded, 1e-9)
	assert.False(t, alert.Forecast)
	assert.Nil(t, alert.ForecastThresholdExceeded)
}

func TestDecodeAlert_OffsetTimestamp(t *testing.T) {
	t.Parallel()

	data := `{"costAmount":1,"budgetAmount":2,"alertThresholdExceeded":0.5,
		"costIntervalStart":"2024-03-01T00:00:00-08:00"}`

	alert, err := DecodeAlert(sampleResource, sampleMessage(data))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Equal(alert.CostIntervalStart))
}

func TestDecodeAlert_Forecast(t *testing.T) {
	t.Parallel()

	data := `{"costAmount":1,"budgetAmount":2,"forecastThresholdExceeded":1.0,
		"costIntervalStart":"2024-03-01T08:00:00Z"}`

	alert, err := DecodeAlert(sampleResource, sampleMessage(data))
	require.NoError(t, err)
	assert.True(t, alert.Forecast)
	require.NotNil(t, alert.ForecastThresholdExceeded)
	assert.InDelta(t, 1.0, *alert.ForecastThresholdExceeded, 1e-9)
}

func TestDecodeAlert_MissingAttributes(t *testing.T) {
	t.Parallel()

	msg := &domain.PubSubMessage{Data: []byte(sampleAlertJSON)}

	alert, err := DecodeAlert(domain.Resource{ProjectID: domain.Unknown, TopicID: domain.Unknown}, msg)
	require.NoError(t, err)
	assert.Empty(t, alert.BillingAccountID)
	assert.Empty(t, alert.BudgetID)
	assert.Equal(t, domain.Unknown, alert.TopicID)
}

func TestDecodeAlert_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "empty data", data: "", wantErr: "empty message data"},
		{name: "not json", data: "hello", wantErr: "decoding message data"},
		{
			name:    "missing cost",
			data:    `{"budgetAmount":2,"alertThresholdExceeded":0.5,"costIntervalStart":"2024-03-01T08:00:00Z"}`,
			wantErr: "costAmount",
		},
		{
			name:    "missing budget",
			data:    `{"costAmount":1,"alertThresholdExceeded":0.5,"costIntervalStart":"2024-03-01T08:00:00Z"}`,
			wantErr: "budgetAmount",
		},
		{
			name:    "missing interval",
			data:    `{"costAmount":1,"budgetAmount":2,"alertThresholdExceeded":0.5}`,
			wantErr: "costIntervalStart",
		},
		{
			name:    "missing threshold",
			data:    `{"costAmount":1,"budgetAmount":2,"costIntervalStart":"2024-03-01T08:00:00Z"}`,
			wantErr: "alertThresholdExceeded",
		},
		{
			name:    "timestamp without offset",
			data:    `{"costAmount":1,"budgetAmount":2,"alertThresholdExceeded":0.5,"costIntervalStart":"2024-03-01T08:00:00"}`,
			wantErr: "costIntervalStart",
		},
		{
			name:    "cost as string",
			data:    `{"costAmount":"1","budgetAmount":2,"alertThresholdExceeded":0.5,"costIntervalStart":"2024-03-01T08:00:00Z"}`,
			wantErr: "decoding message data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeAlert(sampleResource, sampleMessage(tt.data))
			require.ErrorIs(t, err, ErrMalformedEvent)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
