// Package storage defines the persistence boundary the key abstraction writes
// through. Backends must apply each Set atomically per key with last-write-wins
// semantics; the key core never assumes a particular backing technology.
package storage

import (
	"errors"
	"strings"
	"sync"
)

var ErrKeyNotFound = errors.New("storage key not found")

// Storage is the sole persistence contract consumed by the key core.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	RemoveAll() error
	FindKey(substring string) ([]string, error)
	AllKeys() ([]string, error)
}

// InMemory keeps records in a mutex-guarded map. Intended for tests and
// ephemeral sessions.
type InMemory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string][]byte)}
}

func (s *InMemory) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *InMemory) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *InMemory) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *InMemory) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]byte)
	return nil
}

func (s *InMemory) FindKey(substring string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.records {
		if strings.Contains(k, substring) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *InMemory) AllKeys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys, nil
}
