package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := NewFileStore(path)
	if _, err := first.Get(ctx, KeyToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any write, got %v", err)
	}
	if err := first.Set(ctx, KeyToken, "tok-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := first.Set(ctx, KeySidebar, "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	second := NewFileStore(path)
	if v, err := second.Get(ctx, KeyToken); err != nil || v != "tok-1" {
		t.Errorf("expected persisted token, got %q, %v", v, err)
	}

	if err := second.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := first.Get(ctx, KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected token deleted, got %v", err)
	}
	if v, _ := first.Get(ctx, KeySidebar); v != "true" {
		t.Errorf("unrelated key lost: %q", v)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Get(context.Background(), KeyToken); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestSessionOverFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s := New(NewFileStore(path))
	if token, err := s.Token(ctx); err != nil || token != "" {
		t.Fatalf("expected signed out, got %q, %v", token, err)
	}

	if err := s.Store().Set(ctx, KeyToken, "tok-2"); err != nil {
		t.Fatal(err)
	}
	if token, _ := New(NewFileStore(path)).Token(ctx); token != "tok-2" {
		t.Errorf("expected token from file, got %q", token)
	}
}
