package storefront

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Keys of the locally persisted state.
const (
	KeyCart      = "cartItems"
	KeyShipping  = "shippingInfo"
	KeyOrderInfo = "orderInfo"
	KeyToken     = "token"
)

// Storage is durable key/value storage for client state. Values are JSON.
type Storage interface {
	// Load decodes the value at key into v and reports whether it existed.
	Load(key string, v interface{}) (bool, error)
	Save(key string, v interface{}) error
	Delete(key string) error
}

// FileStorage keeps one JSON file per key in a directory.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStorage) Load(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read %s", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// Save writes through a temp file so a crash never leaves a half-written value.
func (s *FileStorage) Save(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path(key)), "commit %s", key)
}

func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// MemoryStorage is a Storage that lives only as long as the process.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (s *MemoryStorage) Save(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
