// Package session holds the per-terminal key/value cache that plays the role
// of a browser's sessionStorage.
package session

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownBackend = errors.New("unknown session backend")

// Store is a string-keyed value store scoped to one session.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	// Put writes all values together; readers never observe a partial write.
	Put(values map[string]string) error
}

// Memory is a Store that lives as long as the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Put(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Options selects and configures a backend for New.
type Options struct {
	Backend   string // "sqlite" (default) or "memory"
	Path      string
	SessionID string
}

// New opens the configured backend. The returned close func is never nil.
func New(opts Options) (Store, func() error, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "", "sqlite":
		db, err := Open(opts.Path, opts.SessionID)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
