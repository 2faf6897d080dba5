package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schoolbook/schoolbook/core"
	"github.com/schoolbook/schoolbook/internal/logger"
	"github.com/schoolbook/schoolbook/internal/otp"
	"github.com/schoolbook/schoolbook/internal/rate"
	"github.com/schoolbook/schoolbook/ports"
)

const (
	// DefaultChallengeTTL is how long an issued code stays valid.
	DefaultChallengeTTL = 10 * time.Minute

	// DefaultSessionTTL is the session lifetime, embedded in the token and
	// stored alongside it.
	DefaultSessionTTL = 24 * time.Hour
)

// AuthService orchestrates the OTP login flow: request a challenge, verify
// it, mint a session, validate and revoke sessions.
type AuthService struct {
	store     ports.CredentialStore
	tokenizer ports.Tokenizer
	notifier  ports.Notifier
	generator otp.Generator
	eventPub  ports.EventPublisher
	limiter   rate.Limiter

	challengeTTL time.Duration
	sessionTTL   time.Duration

	log *zap.Logger
}

// Option tweaks an AuthService at construction time.
type Option func(*AuthService)

// WithGenerator substitutes the code generator (tests use a fixed sequence).
func WithGenerator(g otp.Generator) Option {
	return func(s *AuthService) { s.generator = g }
}

// WithEvents attaches a best-effort event publisher.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *AuthService) { s.eventPub = p }
}

// WithLimiter attaches a per-email limiter for RequestOTP.
func WithLimiter(l rate.Limiter) Option {
	return func(s *AuthService) { s.limiter = l }
}

// WithChallengeTTL overrides the challenge lifetime.
func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *AuthService) { s.challengeTTL = ttl }
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *AuthService) { s.sessionTTL = ttl }
}

// NewAuthService creates an authentication service.
func NewAuthService(store ports.CredentialStore, tokenizer ports.Tokenizer, notifier ports.Notifier, opts ...Option) *AuthService {
	s := &AuthService{
		store:        store,
		tokenizer:    tokenizer,
		notifier:     notifier,
		generator:    otp.CryptoGenerator{},
		challengeTTL: DefaultChallengeTTL,
		sessionTTL:   DefaultSessionTTL,
		log:          logger.Named("auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestOTP issues a fresh challenge for email and delivers the code.
// Earlier still-valid challenges for the same email are left intact; any of
// them verifies until consumed or expired.
//
// Failure semantics: if persisting the challenge fails the code was never
// issued. If delivery fails the challenge row persists anyway, so the caller
// may simply request again (at-least-one-attempt, not exactly-once-delivery).
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			// Fail open: abuse control must not take the login flow down.
			s.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return core.ErrRateLimited
		}
	}

	code, err := s.generator.Generate()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	if err := s.store.CreateChallenge(ctx, email, code, s.challengeTTL); err != nil {
		s.log.Error("failed to persist challenge", zap.Error(err))
		return core.ErrStoreFailed
	}

	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		s.log.Warn("failed to deliver code", zap.String("email", email), zap.Error(err))
		return core.ErrDeliveryFailed
	}

	return nil
}

// VerifyOTP consumes the challenge and, on success, provisions the identity
// and mints a stored session. It returns the signed bearer token.
//
// A failed consume (unknown, expired or already-used code) returns
// ErrChallengeInvalid; the caller retries RequestOTP for a fresh code. Any
// persistence failure after a successful consume is fail-closed: the
// challenge stays burned and no session exists, so the caller must request a
// new code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", core.ErrInvalidInput
	}

	ok, err := s.store.ConsumeChallenge(ctx, email, code)
	if err != nil {
		s.log.Error("failed to consume challenge", zap.Error(err))
		return "", core.ErrStoreFailed
	}
	if !ok {
		return "", core.ErrChallengeInvalid
	}

	identityID, err := s.store.UpsertIdentity(ctx, email)
	if err != nil {
		s.log.Error("failed to upsert identity", zap.Error(err))
		return "", core.ErrStoreFailed
	}

	now := time.Now()
	session := &core.Session{
		IdentityID: identityID,
		TokenID:    uuid.New().String(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", fmt.Errorf("minting session token: %w", err)
	}

	if err := s.store.CreateSession(ctx, identityID, token, s.sessionTTL); err != nil {
		s.log.Error("failed to persist session", zap.Error(err))
		return "", core.ErrStoreFailed
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, identityID, session.TokenID); err != nil {
			s.log.Warn("failed to publish login event", zap.Error(err))
		}
	}

	return token, nil
}

// Logout revokes the session for token. It always succeeds: revoking an
// unknown, expired or already-revoked token is a no-op, and a store failure
// is logged rather than surfaced so logout stays idempotent for callers.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if err := s.store.RevokeSession(ctx, token); err != nil {
		s.log.Error("failed to revoke session", zap.Error(err))
		return
	}

	if s.eventPub != nil {
		// Best effort: the parse only feeds the event payload.
		if sess, err := s.tokenizer.TokenToSession(token); err == nil {
			if err := s.eventPub.PublishLogout(ctx, sess.IdentityID, sess.TokenID); err != nil {
				s.log.Warn("failed to publish logout event", zap.Error(err))
			}
		}
	}
}

// Authenticate resolves a presented token to its identity. Absent,
// malformed, tampered, expired and revoked tokens are all the same normal
// negative outcome. The stored session is authoritative: a valid signature
// alone is never enough, which is what makes Logout effective before the
// token's embedded expiry.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	if _, err := s.tokenizer.TokenToSession(token); err != nil {
		return 0, false
	}

	identityID, ok, err := s.store.ResolveSession(ctx, token)
	if err != nil {
		// Fail closed on store trouble.
		s.log.Error("failed to resolve session", zap.Error(err))
		return 0, false
	}
	return identityID, ok
}

// normalizeEmail lower-cases and trims the address and applies the
// syntactic check: non-empty with a domain separator.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", core.ErrInvalidEmail
	}
	return email, nil
}
