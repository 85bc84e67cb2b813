package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName = "session"
	tokenKey   = "pfa-token"
)

// Store persists the bearer token between runs.
type Store interface {
	// Load returns the saved token, or "" when there is none.
	Load() (string, error)

	// Save replaces the saved token.
	Save(token string) error

	// Clear removes the saved token.
	Clear() error
}

// BoltStore implements Store on a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if needed) the token file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating token directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening token store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns the saved token.
func (b *BoltStore) Load() (string, error) {
	var token string
	err := b.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(tokenKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, err
}

// Save replaces the saved token.
func (b *BoltStore) Save(token string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(tokenKey), []byte(token))
	})
}

// Clear removes the saved token.
func (b *BoltStore) Clear() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(tokenKey))
	})
}

// Close closes the underlying file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a MemoryStore holding token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
