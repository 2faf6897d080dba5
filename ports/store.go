package ports

import (
	"context"
	"time"

	"github.com/schoolbook/schoolbook/core"
)

// CredentialStore persists OTP challenges, identities and sessions.
//
// ConsumeChallenge and UpsertIdentity are the two correctness-critical
// operations: both must be atomic against the backing store so that
// concurrent submissions of the same valid code yield exactly one success,
// and concurrent first-time logins for one email never create duplicate
// identities.
type CredentialStore interface {
	// CreateChallenge inserts a new unconsumed challenge expiring at now+ttl.
	// It does not invalidate earlier challenges for the same email.
	CreateChallenge(ctx context.Context, email, code string, ttl time.Duration) error

	// ConsumeChallenge atomically marks the matching unconsumed, unexpired
	// challenge as consumed. It reports false when no such row exists; an
	// error is a persistence failure, not a rejection.
	ConsumeChallenge(ctx context.Context, email, code string) (bool, error)

	// UpsertIdentity returns the identity id for email, creating the
	// identity if it does not exist yet.
	UpsertIdentity(ctx context.Context, email string) (int64, error)

	// CreateSession inserts a session row expiring at now+ttl.
	CreateSession(ctx context.Context, identityID int64, token string, ttl time.Duration) error

	// ResolveSession returns the owning identity iff a session row exists
	// for token and has not expired. The second return is false both when
	// the session never existed and when it expired or was revoked.
	ResolveSession(ctx context.Context, token string) (int64, bool, error)

	// RevokeSession deletes the session row for token. Revoking an unknown
	// token is a no-op.
	RevokeSession(ctx context.Context, token string) error
}

// SchoolStore persists school records.
type SchoolStore interface {
	// CreateSchool inserts a school and returns its id.
	CreateSchool(ctx context.Context, s *core.School) (int64, error)

	// ListSchools returns the browse listing (id, name, address, city,
	// image), newest first.
	ListSchools(ctx context.Context) ([]core.School, error)
}
