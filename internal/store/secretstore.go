package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// SecretStore keeps each budget's state in its own Secret Manager secret,
// one JSON document per version. Secrets live in the key's project.
type SecretStore struct {
	manager   *secrets.Manager
	projectID string
}

// NewSecretStore creates a SecretStore. projectID is only used by Ping and
// may be empty.
func NewSecretStore(manager *secrets.Manager, projectID string) *SecretStore {
	return &SecretStore{manager: manager, projectID: projectID}
}

// Open finds or creates the state secret for key.
func (s *SecretStore) Open(ctx context.Context, key domain.StateKey) (Record, error) {
	secret, err := s.manager.Open(ctx, key.ProjectID, secrets.StateSecretName(key))
	if err != nil {
		return nil, err
	}
	return &secretRecord{secret: secret}, nil
}

// Get reads the latest state for key.
func (s *SecretStore) Get(ctx context.Context, key domain.StateKey) (*domain.AlertState, error) {
	data, err := s.manager.Access(ctx, key.ProjectID, secrets.StateSecretName(key))
	if errors.Is(err, secrets.ErrNoVersion) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalAlertState(data)
}

// Ping lists secrets in the configured project. With no project configured
// there is nothing to check.
func (s *SecretStore) Ping(ctx context.Context) error {
	if s.projectID == "" {
		return nil
	}
	return s.manager.Ping(ctx, s.projectID)
}

// Close is a no-op; the Secret Manager client is owned by the caller.
func (s *SecretStore) Close() error {
	return nil
}

type secretRecord struct {
	secret *secrets.Secret
}

func (r *secretRecord) Name() string { return r.secret.Name() }

func (r *secretRecord) Load(ctx context.Context) (*domain.AlertState, error) {
	data, err := r.secret.Latest(ctx)
	if errors.Is(err, secrets.ErrNoVersion) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalAlertState(data)
}

func (r *secretRecord) Save(ctx context.Context, state *domain.AlertState) (string, error) {
	payload, err := state.Marshal()
	if err != nil {
		return "", err
	}
	return r.secret.Add(ctx, payload)
}
