package paymentinfra

import (
	"context"
	"sync"

	"github.com/Abraxas-365/workgate/pkg/payment"
)

// MemoryUnmatchedStore is an in-memory payment.UnmatchedStore for tests and
// local development.
type MemoryUnmatchedStore struct {
	mu     sync.Mutex
	events []payment.UnmatchedEvent
}

// NewMemoryUnmatchedStore creates an empty in-memory store.
func NewMemoryUnmatchedStore() *MemoryUnmatchedStore {
	return &MemoryUnmatchedStore{}
}

func (s *MemoryUnmatchedStore) Record(ctx context.Context, ev payment.UnmatchedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryUnmatchedStore) List(ctx context.Context, limit int) ([]payment.UnmatchedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}

	// Newest first, matching the SQL store.
	out := make([]payment.UnmatchedEvent, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
