package idempotency

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/teamsite/roster-api/internal/ports/out/idempotency"
)

// Store keeps idempotency scopes in process memory.
// Entries do not expire; the store lives as long as the server does.
type Store struct {
	mu      sync.Mutex
	entries map[idempotency.Scope]idempotency.Entry
}

var _ idempotency.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{entries: make(map[idempotency.Scope]idempotency.Entry)}
}

func (s *Store) Claim(_ context.Context, scope idempotency.Scope, bodyHash string, at time.Time) (idempotency.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[scope]; ok {
		e.Response = bytes.Clone(e.Response)
		return e, false, nil
	}
	s.entries[scope] = idempotency.Entry{BodyHash: bodyHash, CreatedAt: at.UTC().Truncate(time.Microsecond)}
	return idempotency.Entry{}, true, nil
}

func (s *Store) Complete(_ context.Context, scope idempotency.Scope, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[scope]
	if !ok {
		return idempotency.ErrNotClaimed
	}
	e.Response = bytes.Clone(response)
	s.entries[scope] = e
	return nil
}

func (s *Store) Release(_ context.Context, scope idempotency.Scope, claimedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[scope]
	if ok && !e.Completed() && e.CreatedAt.Equal(claimedAt.Truncate(time.Microsecond)) {
		delete(s.entries, scope)
	}
	return nil
}
