package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/gcp-budget-notifier/internal/store"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// StateProvider reads stored throttle state.
type StateProvider interface {
	State(ctx context.Context, key domain.StateKey) (*domain.AlertState, error)
}

// StateHandler handles GET /api/v1/state.
type StateHandler struct {
	states StateProvider
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(s StateProvider) *StateHandler {
	return &StateHandler{states: s}
}

// StateInput identifies the budget whose state is requested.
type StateInput struct {
	ProjectID        string `query:"project_id" doc:"Project holding the state; defaults to the server's project"`
	TopicID          string `query:"topic_id" doc:"Pub/Sub topic the budget publishes to"`
	BillingAccountID string `query:"billing_account_id" doc:"Billing account ID"`
	BudgetID         string `query:"budget_id" doc:"Budget ID"`
}

// StateBody is the stored state with the key it was read for.
type StateBody struct {
	Key   domain.StateKey   `json:"key"`
	State domain.AlertState `json:"state"`
}

// StateOutput is the response for GET /api/v1/state.
type StateOutput struct {
	Body StateBody
}

// GetState returns the throttle state for one budget. It never creates a
// record.
func (h *StateHandler) GetState(ctx context.Context, in *StateInput) (*StateOutput, error) {
	key := domain.StateKey{
		ProjectID:        in.ProjectID,
		TopicID:          in.TopicID,
		BillingAccountID: in.BillingAccountID,
		BudgetID:         in.BudgetID,
	}

	state, err := h.states.State(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("no alert state stored for this budget")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read alert state")
	}

	return &StateOutput{Body: StateBody{Key: key, State: *state}}, nil
}

// RegisterStateRoutes registers the state inspection route on the Huma API.
func RegisterStateRoutes(api huma.API, h *StateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-alert-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/state",
		Summary:     "Get alert state",
		Description: "Returns the last interval and highest notified threshold stored for a budget.",
		Tags:        []string{"state"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetState)
}
