package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryConfig contains in-memory store configuration
type MemoryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// MemoryStore is an in-process session mapping store with TTL eviction.
type MemoryStore struct {
	config MemoryConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*memorySession

	stop chan struct{}
	done chan struct{}
}

type memorySession struct {
	mapping   map[string]string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory session store. A TTL of zero
// disables expiry entirely.
func NewMemoryStore(config MemoryConfig, logger *zap.Logger) *MemoryStore {
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}

	store := &MemoryStore{
		config:   config,
		logger:   logger,
		sessions: make(map[string]*memorySession),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if config.TTL > 0 {
		go store.sweep()
	} else {
		close(store.done)
	}

	return store
}

// Record inserts one placeholder entry, creating the session if absent.
// Writes refresh the session's expiry.
func (s *MemoryStore) Record(ctx context.Context, sessionID, placeholder, original string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		sess = &memorySession{mapping: make(map[string]string)}
		s.sessions[sessionID] = sess
	}

	sess.mapping[placeholder] = original
	if s.config.TTL > 0 {
		sess.expiresAt = time.Now().Add(s.config.TTL)
	}

	return nil
}

// Mapping returns a copy of the session's mapping, or ok=false when the
// session is unknown or has expired.
func (s *MemoryStore) Mapping(ctx context.Context, sessionID string) (map[string]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return nil, false, nil
	}
	if s.config.TTL > 0 && time.Now().After(sess.expiresAt) {
		return nil, false, nil
	}

	mapping := make(map[string]string, len(sess.mapping))
	for placeholder, original := range sess.mapping {
		mapping[placeholder] = original
	}

	return mapping, true, nil
}

// Delete removes a session and its mapping.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Close stops the eviction sweeper.
func (s *MemoryStore) Close() error {
	if s.config.TTL > 0 {
		close(s.stop)
		<-s.done
	}
	return nil
}

// sweep evicts expired sessions on the configured interval.
func (s *MemoryStore) sweep() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for sessionID, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, sessionID)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Debug("Expired sessions evicted",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(s.sessions)),
		)
	}
}
