package secrets_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets/secretstest"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateSecretName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  domain.StateKey
		want string
	}{
		{
			name: "all parts",
			key: domain.StateKey{
				ProjectID:        "ignored",
				TopicID:          "billing-alerts",
				BillingAccountID: "01D4EE-079462-DFD6EC",
				BudgetID:         "de72f49d",
			},
			want: "gcp-slack-notifier-state_billing-alerts_BILLING-01D4EE-079462-DFD6EC_BUDGET-de72f49d",
		},
		{
			name: "no parts",
			key:  domain.StateKey{},
			want: "gcp-slack-notifier-state",
		},
		{
			name: "topic only",
			key:  domain.StateKey{TopicID: "UNKNOWN"},
			want: "gcp-slack-notifier-state_UNKNOWN",
		},
		{
			name: "billing and budget without topic",
			key:  domain.StateKey{BillingAccountID: "A", BudgetID: "B"},
			want: "gcp-slack-notifier-state_BILLING-A_BUDGET-B",
		},
		{
			name: "budget only",
			key:  domain.StateKey{BudgetID: "B"},
			want: "gcp-slack-notifier-state_BUDGET-B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, secrets.StateSecretName(tt.key))
		})
	}
}

func TestRelativeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "projects/my-project/secrets/foo", want: "foo"},
		{input: "projects/123456789/secrets/foo_bar-1", want: "foo_bar-1"},
		{input: "projects/p/topics/foo", want: ""},
		{input: "foo", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, secrets.RelativeName(tt.input))
		})
	}
}

func TestManager_Open_FindsExisting(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	fake.Seed("projects/my-project/secrets/other")
	fake.Seed("projects/my-project/secrets/gcp-slack-notifier-state_t")

	m := secrets.NewManager(fake, discardLogger())
	s, err := m.Open(context.Background(), "my-project", "gcp-slack-notifier-state_t")
	require.NoError(t, err)

	assert.Equal(t, "projects/my-project/secrets/gcp-slack-notifier-state_t", s.Name())
	assert.Equal(t, "gcp-slack-notifier-state_t", s.ID())
	assert.Equal(t, 0, fake.CreateCalls)
}

func TestManager_Open_NoPrefixMatch(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	fake.Seed("projects/p/secrets/gcp-slack-notifier-state_t_BILLING-A")

	m := secrets.NewManager(fake, discardLogger())
	s, err := m.Open(context.Background(), "p", "gcp-slack-notifier-state_t")
	require.NoError(t, err)

	assert.Equal(t, "projects/p/secrets/gcp-slack-notifier-state_t", s.Name())
	assert.Equal(t, 1, fake.CreateCalls)
}

func TestManager_Open_CreatesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	m := secrets.NewManager(fake, discardLogger())
	ctx := context.Background()

	first, err := m.Open(ctx, "p", "state")
	require.NoError(t, err)
	assert.True(t, fake.Exists("projects/p/secrets/state"))

	second, err := m.Open(ctx, "p", "state")
	require.NoError(t, err)

	assert.Equal(t, first.Name(), second.Name())
	assert.Equal(t, 1, fake.CreateCalls)
	assert.Equal(t, 2, fake.ListCalls)
}

func TestManager_Open_CreateRace(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	fake.CreateErr = errors.Join(secrets.ErrAlreadyExists, errors.New("rpc error: code = AlreadyExists"))

	m := secrets.NewManager(fake, discardLogger())
	s, err := m.Open(context.Background(), "p", "state")
	require.NoError(t, err)
	assert.Equal(t, "projects/p/secrets/state", s.Name())
}

func TestManager_Open_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(f *secretstest.Fake)
		wantErr string
	}{
		{
			name:    "list fails",
			setup:   func(f *secretstest.Fake) { f.ListErr = errors.New("permission denied") },
			wantErr: "listing secrets in projects/p",
		},
		{
			name:    "create fails",
			setup:   func(f *secretstest.Fake) { f.CreateErr = errors.New("quota exceeded") },
			wantErr: "creating secret projects/p/state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := secretstest.New()
			tt.setup(fake)

			m := secrets.NewManager(fake, discardLogger())
			_, err := m.Open(context.Background(), "p", "state")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_LatestCachesUntilAdd(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	fake.Seed("projects/p/secrets/state", []byte("v1"))

	m := secrets.NewManager(fake, discardLogger())
	ctx := context.Background()

	s, err := m.Open(ctx, "p", "state")
	require.NoError(t, err)

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	// A second read is served from the handle.
	_, err = s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.AccessCalls)

	version, err := s.Add(ctx, []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, "projects/p/secrets/state/versions/2", version)

	got, err = s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
	assert.Equal(t, 1, fake.AccessCalls)
	assert.Len(t, fake.Versions("projects/p/secrets/state"), 2)
}

func TestSecret_LatestNoVersion(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	m := secrets.NewManager(fake, discardLogger())
	ctx := context.Background()

	s, err := m.Open(ctx, "p", "state")
	require.NoError(t, err)

	_, err = s.Latest(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, secrets.ErrNoVersion)

	// Failed reads are not cached.
	_, err = s.Latest(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, fake.AccessCalls)
}

func TestSecret_AddError(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	m := secrets.NewManager(fake, discardLogger())
	ctx := context.Background()

	s, err := m.Open(ctx, "p", "state")
	require.NoError(t, err)

	fake.AddErr = errors.New("unavailable")
	_, err = s.Add(ctx, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adding version to projects/p/secrets/state")
}

func TestManager_AccessString(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	fake.Seed("projects/p/secrets/token", []byte("  xoxb-123\n"))

	m := secrets.NewManager(fake, discardLogger())

	got, err := m.AccessString(context.Background(), "p", "token")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-123", got)

	_, err = m.AccessString(context.Background(), "p", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, secrets.ErrNoVersion)
}

func TestManager_AccessDoesNotCreate(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	m := secrets.NewManager(fake, discardLogger())

	_, err := m.Access(context.Background(), "p", "state")
	require.ErrorIs(t, err, secrets.ErrNoVersion)
	assert.False(t, fake.Exists("projects/p/secrets/state"))
	assert.Equal(t, 0, fake.CreateCalls)
}

func TestManager_Ping(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	m := secrets.NewManager(fake, discardLogger())
	require.NoError(t, m.Ping(context.Background(), "p"))

	fake.ListErr = errors.New("permission denied")
	err := m.Ping(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
