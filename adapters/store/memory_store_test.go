package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolbook/schoolbook/core"
)

func expireChallenges(s *MemoryStore, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	past := time.Now().Add(-time.Second)
	for _, c := range s.challenges {
		if c.Email == email {
			c.ExpiresAt = past
		}
	}
}

func expireSessions(s *MemoryStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	past := time.Now().Add(-time.Second)
	for _, sess := range s.sessions {
		sess.ExpiresAt = past
	}
}

func TestConsumeChallenge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateChallenge(ctx, "a@x.com", "482913", 10*time.Minute))

	ok, err := s.ConsumeChallenge(ctx, "a@x.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code must not consume")

	ok, err = s.ConsumeChallenge(ctx, "a@x.com", "482913")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ConsumeChallenge(ctx, "a@x.com", "482913")
	require.NoError(t, err)
	assert.False(t, ok, "a consumed challenge must not verify again")
}

func TestConsumeChallengeExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateChallenge(ctx, "a@x.com", "482913", 10*time.Minute))
	expireChallenges(s, "a@x.com")

	ok, err := s.ConsumeChallenge(ctx, "a@x.com", "482913")
	require.NoError(t, err)
	assert.False(t, ok, "expired challenge must not verify even with the right code")
}

func TestConsumeChallengeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateChallenge(ctx, "a@x.com", "482913", 10*time.Minute))

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConsumeChallenge(ctx, "a@x.com", "482913")
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "duplicate submissions must yield exactly one success")
}

func TestMultipleOutstandingChallenges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// A fresh request does not invalidate the previous code; any still-valid
	// pair verifies.
	require.NoError(t, s.CreateChallenge(ctx, "a@x.com", "111111", 10*time.Minute))
	require.NoError(t, s.CreateChallenge(ctx, "a@x.com", "222222", 10*time.Minute))

	ok, err := s.ConsumeChallenge(ctx, "a@x.com", "111111")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ConsumeChallenge(ctx, "a@x.com", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpsertIdentityIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.UpsertIdentity(ctx, "a@x.com")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		id, err := s.UpsertIdentity(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}

	other, err := s.UpsertIdentity(ctx, "b@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestUpsertIdentityConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const callers = 16
	ids := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.UpsertIdentity(ctx, "new@x.com")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1, "concurrent first-time logins must not create duplicate identities")
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateSession(ctx, 7, "tok-1", 24*time.Hour))

	id, ok, err := s.ResolveSession(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok, err = s.ResolveSession(ctx, "tok-unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RevokeSession(ctx, "tok-1"))
	_, ok, err = s.ResolveSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok, "revoked session must not resolve")

	// Revoking again is a no-op.
	require.NoError(t, s.RevokeSession(ctx, "tok-1"))
}

func TestResolveSessionExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateSession(ctx, 7, "tok-1", 24*time.Hour))
	expireSessions(s)

	_, ok, err := s.ResolveSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSchools(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.CreateSchool(ctx, &core.School{
		Name: "Springdale High", Address: "12 Hill Rd", City: "Pune",
		State: "MH", Contact: "9876543210", Image: "https://img.example/1.png",
		Email: "office@springdale.example",
	})
	require.NoError(t, err)
	_, err = s.CreateSchool(ctx, &core.School{
		Name: "Oakwood", Address: "3 Lake St", City: "Mumbai",
		Image: "https://img.example/2.png",
	})
	require.NoError(t, err)

	list, err := s.ListSchools(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Oakwood", list[0].Name, "newest first")
	assert.Equal(t, "Springdale High", list[1].Name)
	assert.Empty(t, list[0].Contact, "listing carries only the browse columns")
}
