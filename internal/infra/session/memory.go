package session

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	payload   []byte
	hash      string
	expiresAt time.Time
}

// NewMemoryStore is the no-redis session store. now is injectable for tests;
// nil means time.Now.
func NewMemoryStore(ttl time.Duration, now func() time.Time) Store {
	if ttl <= 0 {
		ttl = DefaultTTL * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (s *memoryStore) Create(ctx context.Context, payload []byte) (string, string, error) {
	token := uuid.NewString()
	hash := crypto.HashHex(payload)
	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.entries[token] = memoryEntry{
		payload:   stored,
		hash:      hash,
		expiresAt: s.now().Add(s.ttl),
	}
	return token, hash, nil
}

func (s *memoryStore) Peek(ctx context.Context, token string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, token)
		return nil, "", domain.ErrSessionInvalid
	}
	payload := make([]byte, len(entry.payload))
	copy(payload, entry.payload)
	return payload, entry.hash, nil
}

func (s *memoryStore) Commit(ctx context.Context, token, claimedHash string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, token)
		return nil, domain.ErrSessionInvalid
	}
	if subtle.ConstantTimeCompare([]byte(entry.hash), []byte(claimedHash)) != 1 {
		return nil, domain.ErrSessionInvalid
	}
	delete(s.entries, token)
	return entry.payload, nil
}

func (s *memoryStore) pruneLocked() {
	now := s.now()
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}
