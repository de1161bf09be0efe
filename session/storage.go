package session

import (
	"context"
	"errors"
	"sync"
)

// ErrStorageUnavailable wraps every backend failure of a [Storage].
var ErrStorageUnavailable = errors.New("session storage unavailable")

// Storage is the durable client-side key/value mirror.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStorage is a process-local [Storage].
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string, len(values))
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Mirror writes the three identifiers of sess to storage as one group.
func Mirror(ctx context.Context, storage Storage, sess Session) error {
	if storage == nil {
		return nil
	}
	if !sess.Complete() {
		return ErrPartialSession
	}
	return storage.Set(ctx, sess.values())
}

// Forget removes the three mirrored identifiers.
func Forget(ctx context.Context, storage Storage) error {
	if storage == nil {
		return nil
	}
	return storage.Delete(ctx, Keys...)
}

// Load reads the mirrored identifiers. It reports ok=false unless all three
// keys are present and non-empty; partial mirrors are never returned.
func Load(ctx context.Context, storage Storage) (Session, bool, error) {
	if storage == nil {
		return Session{}, false, nil
	}

	vals := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, ok, err := storage.Get(ctx, k)
		if err != nil {
			return Session{}, false, err
		}
		if !ok || v == "" {
			return Session{}, false, nil
		}
		vals[k] = v
	}

	sess, err := New(vals[KeyUserID], vals[KeySessionID], vals[KeyAuthToken])
	if err != nil {
		return Session{}, false, nil
	}
	return sess, true, nil
}
