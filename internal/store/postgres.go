package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

const defaultPoolSize = 4

// PostgresStore implements Store using pgxpool. Each StateKey maps to a row
// in alert_state_records; saves append rows to alert_state_versions.
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// A poolSize of zero uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(poolSize) //nolint:gosec // validated pool size

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations and returns the versions
// applied.
func (s *PostgresStore) Migrate(ctx context.Context) ([]string, error) {
	return RunMigrations(ctx, s.pool)
}

// RecordName returns the record name used for key. It mirrors the Secret
// Manager layout so both backends name a budget the same way.
func RecordName(key domain.StateKey) string {
	return secrets.SecretPath(key.ProjectID, secrets.StateSecretName(key))
}

// Open inserts the record for key if it is missing.
func (s *PostgresStore) Open(ctx context.Context, key domain.StateKey) (Record, error) {
	name := RecordName(key)

	_, err := s.pool.Exec(ctx, queryOpenRecord, pgx.NamedArgs{
		"name":               name,
		"project_id":         key.ProjectID,
		"topic_id":           key.TopicID,
		"billing_account_id": key.BillingAccountID,
		"budget_id":          key.BudgetID,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state record %s: %w", name, err)
	}

	return &postgresRecord{pool: s.pool, name: name}, nil
}

// Get reads the latest state for key.
func (s *PostgresStore) Get(ctx context.Context, key domain.StateKey) (*domain.AlertState, error) {
	return latestState(ctx, s.pool, RecordName(key))
}

type postgresRecord struct {
	pool *pgxpool.Pool
	name string
}

func (r *postgresRecord) Name() string { return r.name }

func (r *postgresRecord) Load(ctx context.Context) (*domain.AlertState, error) {
	return latestState(ctx, r.pool, r.name)
}

// Save appends state while holding the record row lock, so concurrent
// saves from other instances are ordered and a lower threshold for the
// interval already stored is refused with ErrStale.
func (r *postgresRecord) Save(ctx context.Context, state *domain.AlertState) (string, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, queryLockRecord, r.name).Scan(&locked); err != nil {
			return fmt.Errorf("locking state record: %w", err)
		}

		latest, err := latestState(ctx, tx, r.name)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case supersedes(latest, state):
			return fmt.Errorf("%w: %s holds %.0f%% for %s", ErrStale, r.name,
				latest.LastThreshold, latest.LastInterval.Format(time.RFC3339))
		}

		return tx.QueryRow(ctx, queryAppendState,
			r.name, state.LastInterval, state.LastThreshold,
		).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, ErrStale) {
			return "", err
		}
		return "", fmt.Errorf("saving state to %s: %w", r.name, err)
	}
	return fmt.Sprintf("%s/versions/%d", r.name, id), nil
}

// supersedes reports whether stored already covers next: same interval and
// a threshold at least as high.
func supersedes(stored, next *domain.AlertState) bool {
	return stored.LastInterval.Equal(next.LastInterval) && stored.LastThreshold >= next.LastThreshold
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func latestState(ctx context.Context, q querier, name string) (*domain.AlertState, error) {
	var (
		interval  time.Time
		threshold float64
	)

	err := q.QueryRow(ctx, queryLatestState, name).Scan(&interval, &threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading state from %s: %w", name, err)
	}

	return &domain.AlertState{LastInterval: interval, LastThreshold: threshold}, nil
}
