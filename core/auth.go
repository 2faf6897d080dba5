package core

import "time"

// Identity is the durable record for a verified email address.
// It is created lazily on the first successful OTP verification and is
// never deleted by this service.
type Identity struct {
	ID        int64     // Unique identifier
	Email     string    // Verified email, lower-cased, unique
	CreatedAt time.Time // When the identity was first created
}

// Challenge is one outstanding or historical OTP verification attempt.
// A challenge is valid while it is unconsumed and unexpired; it is consumed
// exactly once, atomically with the success check.
type Challenge struct {
	ID        int64     // Unique identifier for the challenge
	Email     string    // Email the code was issued for
	Code      string    // 6-digit numeric one-time code
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
	Consumed  bool      // Set once, on successful verification
}

// Session is a bearer grant tied to one Identity. The stored record is
// authoritative: revocation deletes the row and takes effect before the
// token's own embedded expiry.
type Session struct {
	ID         int64     // Unique session identifier
	IdentityID int64     // Owning identity
	TokenID    string    // Unique token identifier (jti)
	Token      string    // Signed bearer token as presented by callers
	IssuedAt   time.Time // When the session was created
	ExpiresAt  time.Time // When the session expires
}
