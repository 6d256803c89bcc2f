package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserRecord is one persisted account
type UserRecord struct {
	Username  string    `json:"username"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login,omitempty"`
}

// userDatabase represents the on-disk JSON structure
type userDatabase struct {
	Users map[string]*UserRecord `json:"users"`
}

// FileStore persists accounts as a JSON document, rewritten on every change
type FileStore struct {
	path string
	cost int
	mu   sync.Mutex
	db   *userDatabase
}

// NewFileStore opens (or creates) the JSON user database at path
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		cost: bcrypt.DefaultCost,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the database, creating an empty one if the file does not exist
func (s *FileStore) load() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.db = &userDatabase{Users: make(map[string]*UserRecord)}
		return s.save()
	}
	if err != nil {
		return fmt.Errorf("failed to read users file: %w", err)
	}

	s.db = &userDatabase{}
	if err := json.Unmarshal(data, s.db); err != nil {
		return fmt.Errorf("failed to parse users JSON: %w", err)
	}
	if s.db.Users == nil {
		s.db.Users = make(map[string]*UserRecord)
	}
	return nil
}

// save writes through a temp file so a crash never leaves a truncated database
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user data: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace users file: %w", err)
	}
	return nil
}

func (s *FileStore) Register(username, secret string) error {
	if err := ValidateCredentials(username, secret); err != nil {
		return err
	}

	digest, err := hashSecret(secret, s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.db.Users[username]; exists {
		return ErrUserExists
	}

	s.db.Users[username] = &UserRecord{
		Username:  username,
		Digest:    digest,
		CreatedAt: time.Now(),
	}
	if err := s.save(); err != nil {
		delete(s.db.Users, username)
		return fmt.Errorf("failed to save new user: %w", err)
	}
	return nil
}

func (s *FileStore) Verify(username, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.db.Users[username]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := checkSecret(record.Digest, secret); err != nil {
		return err
	}

	record.LastLogin = time.Now()
	if err := s.save(); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
