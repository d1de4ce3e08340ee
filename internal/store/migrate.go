package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey serializes migrations across instances starting at once.
const migrationLockKey int64 = 0x6263_6e6f_7469_6679

var migrationName = regexp.MustCompile(`^\d{3}_[a-z0-9_]+\.sql$`)

// migrationVersions lists the embedded migrations in apply order.
func migrationVersions() ([]string, error) {
	paths, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	versions := make([]string, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if !migrationName.MatchString(name) {
			return nil, fmt.Errorf("migration %s: name must look like 001_description.sql", name)
		}
		versions = append(versions, name)
	}
	return versions, nil
}

// RunMigrations applies pending SQL migrations in order and returns the
// versions it applied. Each migration runs in its own transaction together
// with its schema_migrations row, under a session advisory lock. There are
// no down migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) (applied []string, err error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return nil, fmt.Errorf("taking migration lock: %w", err)
	}
	defer func() {
		_, unlockErr := conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockKey)
		if unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("releasing migration lock: %w", unlockErr))
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	versions, err := migrationVersions()
	if err != nil {
		return nil, err
	}

	for _, version := range versions {
		ok, err := applyMigration(ctx, conn.Conn(), version)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, version)
		}
	}

	return applied, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, version string) (bool, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning migration %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
		version,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking migration %s: %w", version, err)
	}
	if exists {
		return false, nil
	}

	sql, err := migrationsFS.ReadFile(path.Join("migrations", version))
	if err != nil {
		return false, fmt.Errorf("reading migration %s: %w", version, err)
	}

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return false, fmt.Errorf("applying migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return false, fmt.Errorf("recording migration %s: %w", version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing migration %s: %w", version, err)
	}
	return true, nil
}
