package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage keeps objects in process memory. It is used when
// STORAGE_DRIVER=memory and as the base of test doubles.
type MemoryStorage struct {
	mu         sync.RWMutex
	objects    map[string][]byte
	publicBase string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage(publicBase string) *MemoryStorage {
	return &MemoryStorage{
		objects:    make(map[string][]byte),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Upload stores the full content of reader under key.
func (s *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, _ string, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read object %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok && !overwrite {
		return fmt.Errorf("put object %q: %w", key, ErrExists)
	}
	s.objects[key] = data
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *MemoryStorage) Delete(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

// PublicURL returns publicBase joined with key.
func (s *MemoryStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Exists reports whether key is present.
func (s *MemoryStorage) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Open returns the stored content of key.
func (s *MemoryStorage) Open(key string) (io.Reader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return bytes.NewReader(data), true
}

// Keys lists all stored keys in sorted order.
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
