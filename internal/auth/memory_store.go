package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MemoryStore keeps digests in process memory. It uses the minimum bcrypt cost
// and is meant for tests and throwaway servers.
type MemoryStore struct {
	mu      sync.RWMutex
	digests map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{digests: make(map[string]string)}
}

func (s *MemoryStore) Register(username, secret string) error {
	if err := ValidateCredentials(username, secret); err != nil {
		return err
	}

	digest, err := hashSecret(secret, bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.digests[username]; exists {
		return ErrUserExists
	}
	s.digests[username] = digest
	return nil
}

func (s *MemoryStore) Verify(username, secret string) error {
	s.mu.RLock()
	digest, ok := s.digests[username]
	s.mu.RUnlock()

	if !ok {
		return ErrInvalidCredentials
	}
	return checkSecret(digest, secret)
}

func (s *MemoryStore) Close() error { return nil }
