package store

import (
	"context"
	"sync"
	"time"

	"github.com/schoolbook/schoolbook/core"
)

// MemoryStore is an in-memory implementation of CredentialStore and
// SchoolStore, used by tests and single-node development. All mutations run
// under one mutex, which gives the same atomicity the postgres adapter gets
// from conditional updates and unique constraints.
type MemoryStore struct {
	mu sync.Mutex

	challenges []*core.Challenge
	identities map[string]int64 // email -> id
	sessions   map[string]*core.Session
	schools    []core.School

	nextChallengeID int64
	nextIdentityID  int64
	nextSessionID   int64
	nextSchoolID    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: make(map[string]int64),
		sessions:   make(map[string]*core.Session),
	}
}

// CreateChallenge inserts a new unconsumed challenge. Earlier challenges for
// the same email stay valid until they expire or are consumed.
func (s *MemoryStore) CreateChallenge(ctx context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextChallengeID++
	now := time.Now()
	s.challenges = append(s.challenges, &core.Challenge{
		ID:        s.nextChallengeID,
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	return nil
}

// ConsumeChallenge marks the newest matching valid challenge as consumed.
// The whole find-and-mark runs under the lock, so duplicate submissions of
// one valid code yield exactly one success.
func (s *MemoryStore) ConsumeChallenge(ctx context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := len(s.challenges) - 1; i >= 0; i-- {
		c := s.challenges[i]
		if c.Email == email && c.Code == code && !c.Consumed && c.ExpiresAt.After(now) {
			c.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

// UpsertIdentity returns the id for email, creating the identity on first
// call. The map lookup and insert share the lock, so concurrent first-time
// calls agree on one id.
func (s *MemoryStore) UpsertIdentity(ctx context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.identities[email]; ok {
		return id, nil
	}
	s.nextIdentityID++
	s.identities[email] = s.nextIdentityID
	return s.nextIdentityID, nil
}

// CreateSession inserts a session row.
func (s *MemoryStore) CreateSession(ctx context.Context, identityID int64, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessionID++
	now := time.Now()
	s.sessions[token] = &core.Session{
		ID:         s.nextSessionID,
		IdentityID: identityID,
		Token:      token,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	return nil
}

// ResolveSession returns the owning identity iff the session exists and has
// not expired.
func (s *MemoryStore) ResolveSession(ctx context.Context, token string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return 0, false, nil
	}
	return sess.IdentityID, true, nil
}

// RevokeSession deletes the session row; unknown tokens are a no-op.
func (s *MemoryStore) RevokeSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// CreateSchool inserts a school and returns its id.
func (s *MemoryStore) CreateSchool(ctx context.Context, sc *core.School) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSchoolID++
	rec := *sc
	rec.ID = s.nextSchoolID
	rec.CreatedAt = time.Now()
	s.schools = append(s.schools, rec)
	return rec.ID, nil
}

// ListSchools returns the browse listing, newest first.
func (s *MemoryStore) ListSchools(ctx context.Context) ([]core.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.School, 0, len(s.schools))
	for i := len(s.schools) - 1; i >= 0; i-- {
		sc := s.schools[i]
		out = append(out, core.School{
			ID:      sc.ID,
			Name:    sc.Name,
			Address: sc.Address,
			City:    sc.City,
			Image:   sc.Image,
		})
	}
	return out, nil
}
