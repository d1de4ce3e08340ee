package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// ErrMalformedEvent is returned when a Pub/Sub message does not carry a
// usable budget notification.
var ErrMalformedEvent = errors.New("malformed budget alert")

// budgetNotification is the JSON body Cloud Billing publishes.
type budgetNotification struct {
	BudgetDisplayName         string   `json:"budgetDisplayName"`
	AlertThresholdExceeded    *float64 `json:"alertThresholdExceeded"`
	ForecastThresholdExceeded *float64 `json:"forecastThresholdExceeded"`
	CostAmount                *float64 `json:"costAmount"`
	CostIntervalStart         string   `json:"costIntervalStart"`
	BudgetAmount              *float64 `json:"budgetAmount"`
	BudgetAmountType          string   `json:"budgetAmountType"`
	CurrencyCode              string   `json:"currencyCode"`
}

// DecodeAlert builds an AlertEvent from a Pub/Sub message published to the
// topic named by resource.
func DecodeAlert(resource domain.Resource, msg *domain.PubSubMessage) (*domain.AlertEvent, error) {
	if len(msg.Data) == 0 {
		return nil, fmt.Errorf("%w: empty message data", ErrMalformedEvent)
	}

	var body budgetNotification
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		return nil, fmt.Errorf("%w: decoding message data: %w", ErrMalformedEvent, err)
	}

	var missing []string
	if body.CostAmount == nil {
		missing = append(missing, "costAmount")
	}
	if body.BudgetAmount == nil {
		missing = append(missing, "budgetAmount")
	}
	if body.CostIntervalStart == "" {
		missing = append(missing, "costIntervalStart")
	}
	if body.AlertThresholdExceeded == nil && body.ForecastThresholdExceeded == nil {
		missing = append(missing, "alertThresholdExceeded")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrMalformedEvent, missing)
	}

	interval, err := time.Parse(time.RFC3339, body.CostIntervalStart)
	if err != nil {
		return nil, fmt.Errorf("%w: costIntervalStart %q: %w", ErrMalformedEvent, body.CostIntervalStart, err)
	}

	alert := &domain.AlertEvent{
		ProjectID:                 resource.ProjectID,
		TopicID:                   resource.TopicID,
		BillingAccountID:          msg.Attributes[domain.AttrBillingAccountID],
		BudgetID:                  msg.Attributes[domain.AttrBudgetID],
		SchemaVersion:             msg.Attributes[domain.AttrSchemaVersion],
		BudgetDisplayName:         body.BudgetDisplayName,
		CostAmount:                *body.CostAmount,
		BudgetAmount:              *body.BudgetAmount,
		BudgetAmountType:          body.BudgetAmountType,
		CurrencyCode:              body.CurrencyCode,
		CostIntervalStart:         interval,
		ForecastThresholdExceeded: body.ForecastThresholdExceeded,
	}

	if body.AlertThresholdExceeded != nil {
		alert.ThresholdExceeded = *body.AlertThresholdExceeded
	} else {
		alert.Forecast = true
	}

	return alert, nil
}
