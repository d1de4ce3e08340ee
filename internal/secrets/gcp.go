package secrets

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPClient implements API on top of the Secret Manager gRPC client.
//
// TODO(test): GCPClient requires Secret Manager credentials; Manager and
// Secret are tested against a fake API instead.
type GCPClient struct {
	client *secretmanager.Client
}

// NewGCPClient dials Secret Manager using Application Default Credentials
// unless opts say otherwise.
func NewGCPClient(ctx context.Context, opts ...option.ClientOption) (*GCPClient, error) {
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	return &GCPClient{client: c}, nil
}

// Close releases the underlying connection.
func (c *GCPClient) Close() error {
	return c.client.Close()
}

// ListSecrets returns the full names of every secret under parent.
func (c *GCPClient) ListSecrets(ctx context.Context, parent string) ([]string, error) {
	it := c.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{Parent: parent})

	var names []string
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, s.GetName())
	}

	return names, nil
}

// CreateSecret creates a secret with automatic replication.
func (c *GCPClient) CreateSecret(ctx context.Context, parent, secretID string) (string, error) {
	s, err := c.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   parent,
		SecretId: secretID,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if status.Code(err) == codes.AlreadyExists {
		return "", fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	if err != nil {
		return "", err
	}
	return s.GetName(), nil
}

// AccessLatest reads {secretName}/versions/latest. A missing, disabled or
// destroyed latest version maps to ErrNoVersion.
func (c *GCPClient) AccessLatest(ctx context.Context, secretName string) ([]byte, error) {
	resp, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName + "/versions/latest",
	})
	switch status.Code(err) {
	case codes.OK:
		return resp.GetPayload().GetData(), nil
	case codes.NotFound, codes.FailedPrecondition:
		return nil, fmt.Errorf("%w: %w", ErrNoVersion, err)
	default:
		return nil, err
	}
}

// AddVersion appends payload to secretName and returns the version name.
func (c *GCPClient) AddVersion(ctx context.Context, secretName string, payload []byte) (string, error) {
	v, err := c.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretName,
		Payload: &secretmanagerpb.SecretPayload{Data: payload},
	})
	if err != nil {
		return "", err
	}
	return v.GetName(), nil
}
