package storage

import (
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const recordExt = ".keyrecord"

// File persists each record as one file under a root directory. Writes go
// through a temp file plus rename so a record is either the old or the new
// value, never a torn mix.
type File struct {
	mu   sync.Mutex
	root string
}

func NewFile(root string) (*File, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, err
	}
	return &File{root: root}, nil
}

func (s *File) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (s *File) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *File) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *File) RemoveAll() error {
	keys, err := s.AllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *File) FindKey(substring string) ([]string, error) {
	keys, err := s.AllKeys()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		if strings.Contains(k, substring) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *File) AllKeys() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		keys = append(keys, string(decoded))
	}
	return keys, nil
}

// path maps an arbitrary record key to a flat, filesystem-safe filename.
func (s *File) path(key string) string {
	return filepath.Join(s.root, base64.RawURLEncoding.EncodeToString([]byte(key))+recordExt)
}
