package session

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingSession(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	sess, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected no session, got %+v", sess)
	}
}

func TestSaveLoadClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	want := &Session{
		User:       "registrar@acme.edu",
		APIBaseURL: "http://localhost:9000",
		LoggedInAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.User != want.User || got.APIBaseURL != want.APIBaseURL || !got.LoggedInAt.Equal(want.LoggedInAt) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = store.Load()
	if err != nil || got != nil {
		t.Fatalf("expected cleared session, got %+v (%v)", got, err)
	}
	// Clearing twice must stay quiet.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
