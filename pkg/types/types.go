// Package domain defines the core types for the budget notifier: the billing
// alert carried by a Pub/Sub message, the throttle state persisted between
// invocations, and the key that isolates state per budget.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Unknown is substituted for project and topic IDs when the event resource
// name does not have the shape projects/{project}/topics/{topic}.
const Unknown = "UNKNOWN"

// Pub/Sub message attribute keys set by Cloud Billing.
const (
	AttrBillingAccountID = "billingAccountId"
	AttrBudgetID         = "budgetId"
	AttrSchemaVersion    = "schemaVersion"
)

// PubSubMessage is a single Pub/Sub message. Data holds the raw (already
// base64-decoded) notification JSON.
type PubSubMessage struct {
	Attributes  map[string]string `json:"attributes"`
	Data        []byte            `json:"data"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime *time.Time        `json:"publishTime,omitempty"`
}

// PushEnvelope is the body of a Pub/Sub push request and the data payload of
// a messagePublished CloudEvent.
type PushEnvelope struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription,omitempty"`
}

// Resource identifies the Pub/Sub topic an event was published to.
type Resource struct {
	ProjectID string
	TopicID   string
}

// ParseResource extracts the project and topic from a resource name of the
// form projects/{project}/topics/{topic}. Each part falls back to Unknown
// independently when its segment does not match.
func ParseResource(name string) Resource {
	r := Resource{ProjectID: Unknown, TopicID: Unknown}

	parts := strings.Split(strings.TrimPrefix(name, "//pubsub.googleapis.com/"), "/")
	if len(parts) >= 2 && parts[0] == "projects" && parts[1] != "" {
		r.ProjectID = parts[1]
	}
	if len(parts) >= 4 && parts[2] == "topics" && parts[3] != "" {
		r.TopicID = parts[3]
	}

	return r
}

// String renders the resource name.
func (r Resource) String() string {
	return fmt.Sprintf("projects/%s/topics/%s", r.ProjectID, r.TopicID)
}

// AlertEvent is one budget threshold crossing as reported by Cloud Billing.
type AlertEvent struct {
	ProjectID         string
	TopicID           string
	BillingAccountID  string
	BudgetID          string
	SchemaVersion     string
	BudgetDisplayName string
	CostAmount        float64
	BudgetAmount      float64
	BudgetAmountType  string
	CurrencyCode      string
	CostIntervalStart time.Time

	// ThresholdExceeded is the fraction of the budget crossed; 1.0 is 100%.
	ThresholdExceeded float64
	// ForecastThresholdExceeded is set instead of ThresholdExceeded for
	// forecast-based notifications.
	ForecastThresholdExceeded *float64
	// Forecast reports that the notification carried only a forecast threshold.
	Forecast bool
}

// Threshold returns the exceeded threshold as a percentage.
func (a *AlertEvent) Threshold() float64 {
	return a.ThresholdExceeded * 100
}

// StateKey returns the key under which throttle state for this alert's budget
// is stored.
func (a *AlertEvent) StateKey() StateKey {
	return StateKey{
		ProjectID:        a.ProjectID,
		TopicID:          a.TopicID,
		BillingAccountID: a.BillingAccountID,
		BudgetID:         a.BudgetID,
	}
}

// StateKey isolates throttle state per budget. ProjectID scopes where the
// state lives; the remaining fields identify the record.
type StateKey struct {
	ProjectID        string `json:"project_id"`
	TopicID          string `json:"topic_id,omitempty"`
	BillingAccountID string `json:"billing_account_id,omitempty"`
	BudgetID         string `json:"budget_id,omitempty"`
}

// AlertState is the throttle record for one budget: the most recent cost
// interval seen and the highest threshold already notified within it.
type AlertState struct {
	LastInterval  time.Time `json:"last_interval"`
	LastThreshold float64   `json:"last_threshold"`
}

// EmptyAlertState returns the state used when nothing has been stored yet:
// an interval earlier than any real one and a threshold below any real one.
func EmptyAlertState() AlertState {
	return AlertState{LastThreshold: -1}
}

// Marshal serializes the state for storage.
func (s *AlertState) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalAlertState restores a stored state. Fields missing from data keep
// the values from EmptyAlertState.
func UnmarshalAlertState(data []byte) (*AlertState, error) {
	s := EmptyAlertState()
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding alert state: %w", err)
	}
	return &s, nil
}
