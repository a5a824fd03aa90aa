// Package guard serialises per-shop admin actions (carrier-service creation and
// product seeding) so two concurrent requests cannot run the same action at once.
package guard

import (
	"context"
	"errors"
	"sync"
)

var ErrInFlight = errors.New("operation already in progress")

type Guard interface {
	// Acquire takes the lock for key or returns ErrInFlight. release must be called
	// exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is a process-local Guard, used by the dev server and tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: map[string]struct{}{}}
}

func (m *Memory) Acquire(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return nil, ErrInFlight
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}
