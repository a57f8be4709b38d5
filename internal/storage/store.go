// Package storage keeps the small amount of state that survives a restart:
// the snapshot of the last authenticated user.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/fwrdcast/internal/model"
)

var ErrNotFound = errors.New("not found")

var (
	sessionBucket = []byte("session")
	userKey       = []byte("user")
)

type snapshot struct {
	User    model.User `json:"user"`
	SavedAt time.Time  `json:"saved_at"`
}

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(sessionBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveUser(user *model.User) error {
	if user == nil {
		return s.ClearUser()
	}
	data, err := json.Marshal(snapshot{User: *user, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(userKey, data)
	})
}

// LoadUser returns the last saved user, or ErrNotFound.
func (s *Store) LoadUser() (*model.User, error) {
	var snap snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(userKey)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &snap.User, nil
}

func (s *Store) ClearUser() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(userKey)
	})
}
