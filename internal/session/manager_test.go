package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { _ = rdb.Close() })

	return NewManager(rdb, "test-secret", time.Hour, 24*time.Hour, nil), mr
}

func TestCreateThenResolve(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if token == "" {
		t.Fatal("Create returned an empty token")
	}

	userID, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("Resolve returned %q, want user-1", userID)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Resolve(context.Background(), "no-such-token")
	if err != ErrSessionNotFound {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestDestroyInvalidatesImmediately(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if _, err := m.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Fatalf("Resolve after Destroy: got %v, want ErrSessionNotFound", err)
	}

	// Repeated logout is a no-op, not an error.
	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("second Destroy failed: %v", err)
	}
	if err := m.Destroy(ctx, ""); err != nil {
		t.Fatalf("Destroy with empty token failed: %v", err)
	}
}

func TestRememberExtendsTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	short, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	long, err := m.Create(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("Create(remember) failed: %v", err)
	}

	shortTTL := mr.TTL(m.key(short))
	longTTL := mr.TTL(m.key(long))

	if shortTTL != time.Hour {
		t.Fatalf("default TTL = %v, want 1h", shortTTL)
	}
	if longTTL != 24*time.Hour {
		t.Fatalf("remember TTL = %v, want 24h", longTTL)
	}
}

func TestSessionExpiry(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := m.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Fatalf("Resolve after expiry: got %v, want ErrSessionNotFound", err)
	}
}

func TestTokensAreOpaqueAndUnique(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := m.Create(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a == b {
		t.Fatal("two sessions for the same user produced the same token")
	}

	// The raw token must not appear as a key in the store.
	for _, key := range mr.Keys() {
		if key == keyPrefix+a || key == keyPrefix+b {
			t.Fatalf("raw token stored unhashed: %s", key)
		}
	}
}
