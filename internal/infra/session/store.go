// Package session holds in-flight payment data between the confirmation page
// and the commit, bound to a content hash and a hard expiry. A session is
// single use: Commit consumes it atomically, so a replayed commit observes a
// missing session. Expired and missing sessions are indistinguishable.
package session

import "context"

// DefaultTTL matches the five-minute payment window of the redirect flow.
const DefaultTTL = 5 * 60 // seconds

type Store interface {
	// Create stores payload under a fresh opaque token and returns the token
	// together with the content hash the commit must present.
	Create(ctx context.Context, payload []byte) (token string, hash string, err error)

	// Peek returns the payload and hash without consuming the session.
	// Missing or expired sessions yield domain.ErrSessionInvalid.
	Peek(ctx context.Context, token string) (payload []byte, hash string, err error)

	// Commit consumes the session if claimedHash matches the stored hash.
	// At most one concurrent commit per token can succeed; the loser sees
	// domain.ErrSessionInvalid. A hash mismatch leaves the session in place.
	Commit(ctx context.Context, token, claimedHash string) ([]byte, error)
}
