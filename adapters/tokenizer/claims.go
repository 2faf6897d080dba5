package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the registered claims carried by a session token.
// Subject holds the identity id, ID the token's jti.
type SessionClaims struct {
	jwt.RegisteredClaims
}
