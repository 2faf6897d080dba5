package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbook/schoolbook/core"
	migrations "github.com/schoolbook/schoolbook/migrations/postgres"
)

// PostgresStore implements CredentialStore and SchoolStore on a pgx pool.
//
// The two concurrency-sensitive operations lean on the database rather than
// application locks: ConsumeChallenge is a single conditional UPDATE and
// UpsertIdentity an ON CONFLICT insert against the unique email index.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate applies the embedded schema migrations in lexical order. The
// statements are idempotent, so running it on every start is fine.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("store: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("store: read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("store: apply migration %s: %w", name, err)
		}
	}
	return nil
}

// CreateChallenge inserts a new unconsumed challenge row. It does not touch
// earlier challenges for the same email.
func (s *PostgresStore) CreateChallenge(ctx context.Context, email, code string, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO challenges (email, code, expires_at) VALUES ($1, $2, now() + $3)`,
		email, code, ttl,
	)
	if err != nil {
		return fmt.Errorf("store: create challenge: %w", err)
	}
	return nil
}

// ConsumeChallenge flips consumed on the newest valid matching row. The
// locked subquery makes duplicate submissions of one valid code race to a
// single winner; the loser sees zero rows updated.
func (s *PostgresStore) ConsumeChallenge(ctx context.Context, email, code string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE challenges SET consumed = TRUE
		WHERE id = (
			SELECT id FROM challenges
			WHERE email = $1 AND code = $2 AND NOT consumed AND expires_at > now()
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)`,
		email, code,
	)
	if err != nil {
		return false, fmt.Errorf("store: consume challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertIdentity returns the identity id for email, creating it on first
// sight. The conflict clause rewrites the email to itself so RETURNING works
// for both branches, and the unique index guarantees concurrent first-time
// calls converge on one row.
func (s *PostgresStore) UpsertIdentity(ctx context.Context, email string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO identities (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`,
		email,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upsert identity: %w", err)
	}
	return id, nil
}

// CreateSession inserts a session row.
func (s *PostgresStore) CreateSession(ctx context.Context, identityID int64, token string, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (identity_id, token, expires_at) VALUES ($1, $2, now() + $3)`,
		identityID, token, ttl,
	)
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// ResolveSession returns the owning identity iff an unexpired row exists.
// "never existed", "expired" and "revoked" are indistinguishable here, all
// reported as absent.
func (s *PostgresStore) ResolveSession(ctx context.Context, token string) (int64, bool, error) {
	var identityID int64
	err := s.pool.QueryRow(ctx,
		`SELECT identity_id FROM sessions WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&identityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: resolve session: %w", err)
	}
	return identityID, true, nil
}

// RevokeSession deletes the session row; deleting nothing is not an error.
func (s *PostgresStore) RevokeSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("store: revoke session: %w", err)
	}
	return nil
}

// CreateSchool inserts a school record and returns its id.
func (s *PostgresStore) CreateSchool(ctx context.Context, sc *core.School) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO schools (name, address, city, state, contact, image, email_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		sc.Name, sc.Address, sc.City, sc.State, sc.Contact, sc.Image, sc.Email,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: create school: %w", err)
	}
	return id, nil
}

// ListSchools returns the browse listing, newest first.
func (s *PostgresStore) ListSchools(ctx context.Context) ([]core.School, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, city, image FROM schools ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list schools: %w", err)
	}
	defer rows.Close()

	var out []core.School
	for rows.Next() {
		var sc core.School
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Address, &sc.City, &sc.Image); err != nil {
			return nil, fmt.Errorf("store: scan school: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list schools: %w", err)
	}
	return out, nil
}
