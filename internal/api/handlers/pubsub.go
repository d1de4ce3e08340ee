package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/middleware"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// AlertHandler runs a Pub/Sub message through the throttle engine.
type AlertHandler interface {
	Handle(ctx context.Context, inv *engine.Invocation) (*engine.Result, error)
}

// PushHandler handles Pub/Sub push deliveries.
type PushHandler struct {
	alerts   AlertHandler
	resource string
}

// NewPushHandler creates a PushHandler. resource is the topic the push
// subscription is attached to (projects/{p}/topics/{t}); push requests don't
// carry it, so a request may override it with ?resource=.
func NewPushHandler(alerts AlertHandler, resource string) *PushHandler {
	return &PushHandler{alerts: alerts, resource: resource}
}

// PushMessage is the message object in a push request. Pub/Sub sends some
// fields twice (messageId and message_id); unknown fields are accepted.
type PushMessage struct {
	_ struct{} `additionalProperties:"true"`

	Attributes  map[string]string `json:"attributes,omitempty" doc:"Message attributes (billingAccountId, budgetId, schemaVersion)"`
	Data        []byte            `json:"data,omitempty" doc:"Base64 encoded budget notification JSON"`
	MessageID   string            `json:"messageId,omitempty" doc:"Pub/Sub message ID"`
	PublishTime *time.Time        `json:"publishTime,omitempty" doc:"Time the message was published"`
}

// PushRequest is the body Pub/Sub posts to a push endpoint.
type PushRequest struct {
	_ struct{} `additionalProperties:"true"`

	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription,omitempty" doc:"Subscription the message was delivered on"`
}

// PushInput is the request for POST /api/v1/pubsub/push.
type PushInput struct {
	Resource string `query:"resource" doc:"Topic resource name, overrides the server default" example:"projects/my-project/topics/billing-alerts"`
	Body     PushRequest
}

// PushResult summarizes what the engine did with the alert.
type PushResult struct {
	InvocationID string             `json:"invocation_id" doc:"Correlation ID used in logs"`
	Outcome      string             `json:"outcome" enum:"notified,suppressed,skipped" doc:"What was done with the alert"`
	Record       string             `json:"record,omitempty" doc:"State record consulted"`
	Version      string             `json:"version,omitempty" doc:"State version written"`
	Delivered    bool               `json:"delivered" doc:"Whether the Slack post succeeded"`
	State        *domain.AlertState `json:"state,omitempty" doc:"Throttle state after the decision"`
}

// PushOutput is the response for POST /api/v1/pubsub/push.
type PushOutput struct {
	Body PushResult
}

// Push handles one push delivery. Any 2xx acknowledges the message; a 400
// marks it malformed and a 500 asks Pub/Sub to redeliver.
func (h *PushHandler) Push(ctx context.Context, in *PushInput) (*PushOutput, error) {
	resource := in.Resource
	if resource == "" {
		resource = h.resource
	}

	id := in.Body.Message.MessageID
	if id == "" {
		id = middleware.RequestID(ctx)
	}

	res, err := h.alerts.Handle(ctx, &engine.Invocation{
		ID:       id,
		Resource: domain.ParseResource(resource),
		Message: domain.PubSubMessage{
			Attributes:  in.Body.Message.Attributes,
			Data:        in.Body.Message.Data,
			MessageID:   in.Body.Message.MessageID,
			PublishTime: in.Body.Message.PublishTime,
		},
	})
	if errors.Is(err, engine.ErrMalformedEvent) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("handling budget alert: " + err.Error())
	}

	return &PushOutput{Body: NewPushResult(res)}, nil
}

// NewPushResult converts an engine result to its wire form.
func NewPushResult(res *engine.Result) PushResult {
	out := PushResult{
		InvocationID: res.InvocationID,
		Outcome:      string(res.Outcome),
		Record:       res.Record,
		Version:      res.Version,
		Delivered:    res.Delivered,
	}
	if res.Outcome != engine.OutcomeSkipped {
		state := res.State
		out.State = &state
	}
	return out
}

// RegisterPushRoutes registers the Pub/Sub push endpoint on the Huma API.
func RegisterPushRoutes(api huma.API, h *PushHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "pubsub-push",
		Method:      http.MethodPost,
		Path:        "/api/v1/pubsub/push",
		Summary:     "Receive a budget alert",
		Description: "Pub/Sub push endpoint. Decodes the budget notification, " +
			"applies the per-budget throttle and posts new thresholds to Slack.",
		Tags:   []string{"pubsub"},
		Errors: []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Push)
}
