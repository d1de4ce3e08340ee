// Package secrets uses Google Cloud Secret Manager as a small versioned
// key-value store: find-or-create a named secret, read its latest version,
// and append new versions.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrNoVersion is returned when a secret exists but has no readable
	// version yet.
	ErrNoVersion = errors.New("secret has no versions")
	// ErrAlreadyExists is returned by API.CreateSecret when another caller
	// created the secret first.
	ErrAlreadyExists = errors.New("secret already exists")
)

// API is the subset of the Secret Manager service used here. Secret names
// are full resource names (projects/{project}/secrets/{id}).
type API interface {
	ListSecrets(ctx context.Context, parent string) ([]string, error)
	CreateSecret(ctx context.Context, parent, secretID string) (string, error)
	AccessLatest(ctx context.Context, secretName string) ([]byte, error)
	AddVersion(ctx context.Context, secretName string, payload []byte) (string, error)
}

// ProjectPath returns the parent resource for secrets in a project.
func ProjectPath(projectID string) string {
	return "projects/" + projectID
}

// SecretPath returns the full resource name of a secret.
func SecretPath(projectID, secretID string) string {
	return ProjectPath(projectID) + "/secrets/" + secretID
}

// RelativeName returns the secret ID part of a full secret name, or "" when
// name is not of the form projects/{any}/secrets/{id}. The project segment
// may be an ID or a number; Secret Manager lists secrets by project number.
func RelativeName(name string) string {
	parts := strings.SplitN(name, "/", 4)
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "secrets" {
		return ""
	}
	return parts[3]
}

// Manager opens secrets through an API client. It holds no per-secret state
// and is safe to share for the life of the process.
type Manager struct {
	api API
	log *slog.Logger
}

// NewManager creates a Manager.
func NewManager(api API, log *slog.Logger) *Manager {
	return &Manager{api: api, log: log}
}

// Open binds to the secret named secretID in projectID, creating it with
// automatic replication when no secret with that exact relative name exists.
// Repeated calls with the same name return handles to the same secret.
func (m *Manager) Open(ctx context.Context, projectID, secretID string) (*Secret, error) {
	parent := ProjectPath(projectID)

	names, err := m.api.ListSecrets(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("listing secrets in %s: %w", parent, err)
	}

	for _, name := range names {
		if RelativeName(name) == secretID {
			m.log.Debug("found existing secret", "secret", name)
			return m.bind(name, secretID), nil
		}
	}

	m.log.Info("creating new secret", "parent", parent, "secret_id", secretID)

	name, err := m.api.CreateSecret(ctx, parent, secretID)
	if errors.Is(err, ErrAlreadyExists) {
		name = SecretPath(projectID, secretID)
	} else if err != nil {
		return nil, fmt.Errorf("creating secret %s/%s: %w", parent, secretID, err)
	}

	return m.bind(name, secretID), nil
}

// Access returns the latest version of a secret without creating it.
func (m *Manager) Access(ctx context.Context, projectID, secretID string) ([]byte, error) {
	name := SecretPath(projectID, secretID)

	data, err := m.api.AccessLatest(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return data, nil
}

// AccessString returns the latest version of a secret as trimmed text.
func (m *Manager) AccessString(ctx context.Context, projectID, secretID string) (string, error) {
	data, err := m.Access(ctx, projectID, secretID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Ping checks that secrets in projectID can be listed.
func (m *Manager) Ping(ctx context.Context, projectID string) error {
	if _, err := m.api.ListSecrets(ctx, ProjectPath(projectID)); err != nil {
		return fmt.Errorf("listing secrets in %s: %w", ProjectPath(projectID), err)
	}
	return nil
}

func (m *Manager) bind(name, secretID string) *Secret {
	return &Secret{api: m.api, log: m.log, name: name, id: secretID}
}

// Secret is a handle to one secret. The latest payload is cached after the
// first read and replaced on every Add.
type Secret struct {
	api  API
	log  *slog.Logger
	name string
	id   string

	mu     sync.Mutex
	cached []byte
	loaded bool
}

// Name returns the full resource name.
func (s *Secret) Name() string { return s.name }

// ID returns the secret's relative name.
func (s *Secret) ID() string { return s.id }

// Latest returns the payload of the latest version. It returns ErrNoVersion
// when nothing has been stored yet.
func (s *Secret) Latest(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.cached, nil
	}

	s.log.Debug("refreshing latest data", "secret", s.name)

	data, err := s.api.AccessLatest(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("reading %s/versions/latest: %w", s.name, err)
	}

	s.cached = data
	s.loaded = true

	return data, nil
}

// Add appends payload as a new version and returns the version name.
func (s *Secret) Add(ctx context.Context, payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("adding new version", "secret", s.name, "bytes", len(payload))

	version, err := s.api.AddVersion(ctx, s.name, payload)
	if err != nil {
		return "", fmt.Errorf("adding version to %s: %w", s.name, err)
	}

	s.cached = payload
	s.loaded = true

	return version, nil
}
