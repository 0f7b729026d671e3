// Package session persists the authenticated actor and bearer token between
// runs as a single JSON record under ~/.projectflow.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/projectflow/projectflow/internal/model"
)

// Record is the persisted actor/credential pair. It is written on successful
// login or register and erased on logout.
type Record struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	AvatarURL string     `json:"avatar,omitempty"`
	Token     string     `json:"token"`
}

// User returns the actor described by the record
func (r *Record) User() model.User {
	return model.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		AvatarURL: r.AvatarURL,
	}
}

// Store reads and writes the session record
type Store struct {
	path string
}

// NewStore creates a store at the default location ~/.projectflow/session.json
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(home, ".projectflow", "session.json")), nil
}

// NewStoreAt creates a store backed by the given file path
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load restores the persisted record. A missing file means no session. A
// malformed or incomplete record is cleared on the spot and reported as no
// session: corrupt persisted state must never break startup.
func (s *Store) Load() *Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = s.Clear()
		return nil
	}
	if rec.ID == "" || rec.Token == "" {
		_ = s.Clear()
		return nil
	}
	return &rec
}

// Save writes the record, creating the directory if needed
func (s *Store) Save(rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

// Clear erases the persisted record
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
