// Package session persists the CLI user session across invocations. The
// store is an explicit capability injected into commands, loaded once at
// startup and written back on every change.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session is the saved login state. APIBaseURL, when set, overrides the
// default server address for subsequent commands.
type Session struct {
	User       string    `json:"user"`
	APIBaseURL string    `json:"api_base_url,omitempty"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Store reads and writes the session file.
type Store struct {
	path string
}

// NewStore builds a Store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath places the session under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "certvault", "session.json"), nil
}

// Load reads the saved session. A missing file is not an error; it simply
// means nobody is logged in.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session, creating the parent directory as needed. The file
// is user-only since it identifies the logged-in account.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file; clearing an absent session is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
