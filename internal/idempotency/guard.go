// Package idempotency suppresses accidental rapid-fire duplicates of
// session actions. A fingerprint of (session, user, action) is claimed in a
// shared store for a short TTL; a second claim inside the window is
// reported as a duplicate. The guard fails open: if the store is
// unreachable the action is allowed through rather than blocking exams on
// a cache outage.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store claims fingerprints for a TTL. Claim returns true when the
// fingerprint was not present and is now claimed, false when it was
// already claimed inside its TTL.
type Store interface {
	Claim(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
}

// Guard is the duplicate-action check placed in front of session mutations.
type Guard struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewGuard creates a Guard with the given claim window.
func NewGuard(store Store, ttl time.Duration, log zerolog.Logger) *Guard {
	return &Guard{
		store: store,
		ttl:   ttl,
		log:   log.With().Str("component", "idempotency_guard").Logger(),
	}
}

// Fingerprint derives the dedup key for one logical action of one user on
// one session.
func Fingerprint(sessionID, userID int64, action string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d:%s", sessionID, userID, action)))
	return hex.EncodeToString(sum[:])
}

// Allow reports whether the action may proceed. It returns false only when
// the store positively confirms a duplicate inside the window; store errors
// are logged and the action is allowed.
func (g *Guard) Allow(ctx context.Context, sessionID, userID int64, action string) bool {
	ok, err := g.store.Claim(ctx, Fingerprint(sessionID, userID, action), g.ttl)
	if err != nil {
		g.log.Warn().Err(err).Str("action", action).Msg("Dedup store unavailable, allowing action")
		return true
	}
	return ok
}
