package oauthstate

import (
	"context"
	"sync"
	"time"
)

// MemStore keeps state tokens in process memory. It serves single-instance
// development runs and handler tests.
type MemStore struct {
	mu     sync.Mutex
	states map[string]State
	now    func() time.Time
}

var _ States = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		states: make(map[string]State),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemStore) Save(_ context.Context, state, returnURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = State{State: state, ReturnURL: returnURL, ExpiresAt: expiresAt, CreatedAt: m.now()}
	return nil
}

func (m *MemStore) Validate(_ context.Context, state string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[state]
	if !ok {
		return "", false, nil
	}
	delete(m.states, state)
	if !st.ExpiresAt.After(m.now()) {
		return "", false, nil
	}
	return st.ReturnURL, true, nil
}

func (m *MemStore) CleanupExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for k, st := range m.states {
		if st.ExpiresAt.Before(now) {
			delete(m.states, k)
			n++
		}
	}
	return n, nil
}

// Len reports how many tokens are held.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
