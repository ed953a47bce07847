package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMemoryStoreClaimWindow(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	ok, err := store.Claim(context.Background(), "fp", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v, want claimed", ok, err)
	}

	ok, _ = store.Claim(context.Background(), "fp", 5*time.Second)
	if ok {
		t.Error("second claim inside the window must be rejected")
	}

	now = now.Add(6 * time.Second)
	ok, _ = store.Claim(context.Background(), "fp", 5*time.Second)
	if !ok {
		t.Error("claim after the window must succeed")
	}
}

func TestMemoryStoreIndependentFingerprints(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := store.Claim(ctx, "a", time.Minute); !ok {
		t.Fatal("claim a")
	}
	if ok, _ := store.Claim(ctx, "b", time.Minute); !ok {
		t.Error("a distinct fingerprint must not be blocked")
	}
}

func TestFingerprintDistinguishesActions(t *testing.T) {
	base := Fingerprint(1, 2, "submit")
	if Fingerprint(1, 2, "autosave") == base {
		t.Error("different actions must fingerprint differently")
	}
	if Fingerprint(1, 3, "submit") == base {
		t.Error("different users must fingerprint differently")
	}
	if Fingerprint(2, 2, "submit") == base {
		t.Error("different sessions must fingerprint differently")
	}
	if Fingerprint(1, 2, "submit") != base {
		t.Error("identical inputs must fingerprint identically")
	}
}

type failingStore struct{}

func (failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func TestGuardFailsOpen(t *testing.T) {
	guard := NewGuard(failingStore{}, 5*time.Second, zerolog.Nop())
	if !guard.Allow(context.Background(), 1, 1, "submit") {
		t.Error("store errors must not block the action")
	}
}

func TestGuardBlocksDuplicates(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	if !guard.Allow(ctx, 1, 1, "submit") {
		t.Fatal("first action must pass")
	}
	if guard.Allow(ctx, 1, 1, "submit") {
		t.Error("duplicate inside the window must be blocked")
	}
	if !guard.Allow(ctx, 1, 1, "answer:7") {
		t.Error("a different action must pass")
	}
}
