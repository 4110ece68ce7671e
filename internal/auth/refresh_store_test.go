package auth

import (
	"testing"
	"time"
)

func TestMemoryRefreshTokenStoreRoundTrip(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti1", "op1", time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected jti to exist")
	}

	if err := store.Revoke("jti1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = store.Exists("jti1")
	if err != nil {
		t.Fatalf("exists after revoke: %v", err)
	}
	if ok {
		t.Fatalf("expected jti to be gone after revoke")
	}
}

func TestMemoryRefreshTokenStoreExpires(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	if err := store.Store("jti1", "op1", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("expected already-expired jti to report absent")
	}
}

func TestMemoryRefreshTokenStoreIgnoresEmptyJTI(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	if err := store.Store("", "op1", time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("expected empty jti to never exist")
	}
}
