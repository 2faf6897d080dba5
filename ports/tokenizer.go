package ports

import "github.com/schoolbook/schoolbook/core"

// Tokenizer converts between session records and signed bearer tokens.
//
// A token carries its own identity id and expiry, but holders of a parsed
// token must still resolve it through the CredentialStore: the stored row is
// what makes revocation effective before the embedded expiry.
type Tokenizer interface {
	// SessionToToken signs a bearer token for the session.
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession parses and verifies a presented token. Malformed input
	// and failed signature checks return an error; they are normal negative
	// outcomes for the caller, not faults.
	TokenToSession(token string) (*core.Session, error)
}
