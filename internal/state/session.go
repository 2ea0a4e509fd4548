package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"portfolio-backend-go/internal/models"
)

// SessionRepository persists the auth slice across restarts.
type SessionRepository interface {
	Load() (*models.Session, error)
	Save(session models.Session) error
	Clear() error
}

// FileSessionRepository keeps the session as a JSON file.
type FileSessionRepository struct {
	Path string
}

func (r FileSessionRepository) Load() (*models.Session, error) {
	raw, err := os.ReadFile(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

func (r FileSessionRepository) Save(session models.Session) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	tmp := r.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.Path)
}

func (r FileSessionRepository) Clear() error {
	err := os.Remove(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type MemorySessionRepository struct {
	mu      sync.Mutex
	session *models.Session
}

func (r *MemorySessionRepository) Load() (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil, nil
	}
	copied := *r.session
	return &copied, nil
}

func (r *MemorySessionRepository) Save(session models.Session) error {
	r.mu.Lock()
	r.session = &session
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Clear() error {
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
	return nil
}
