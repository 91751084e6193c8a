// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

func init() {
	RegisterBackend("memory", func(_ string) (SecretStore, error) {
		return NewMemoryStore(), nil
	})
}

// MemoryStore is an in-memory SecretStore used by tests and the "memory"
// storage backend. Rows are keyed by (userID, service) so the upsert
// invariant holds by construction.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]*Secret // key: userID + "\x00" + service
}

// Compile-time interface check.
var _ SecretStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*Secret)}
}

func rowKey(userID, service string) string {
	return userID + "\x00" + service
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]*Secret, error) {
	if userID == "" {
		return nil, fmt.Errorf("list secrets: user id: %w", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Secret
	for _, s := range m.rows {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, userID, service string) (*Secret, error) {
	if userID == "" || service == "" {
		return nil, fmt.Errorf("get secret: user id and service required: %w", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.rows[rowKey(userID, service)]
	if !ok {
		return nil, fmt.Errorf("secret for service %q: %w", service, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, userID, service, value string) (*Secret, error) {
	if userID == "" || service == "" || value == "" {
		return nil, fmt.Errorf("save secret: user id, service, and value required: %w", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(userID, service)
	if existing, ok := m.rows[key]; ok {
		existing.Value = value
		cp := *existing
		return &cp, nil
	}

	s := &Secret{
		ID:        uuid.NewString(),
		UserID:    userID,
		Service:   service,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	m.rows[key] = s
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("delete secret: user id and secret id required: %w", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, s := range m.rows {
		if s.ID == id && s.UserID == userID {
			delete(m.rows, key)
			return nil
		}
	}
	return fmt.Errorf("secret %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) Close() error {
	return nil
}
