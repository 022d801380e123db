package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("session")
	userKey    = []byte("user")
)

// BoltStorage persists the identity in a single-file bbolt database.
type BoltStorage struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: create bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) Load(_ context.Context) (*User, error) {
	var u *User
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get(userKey)
		if raw == nil {
			return nil
		}
		u = &User{}
		return json.Unmarshal(raw, u)
	})
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return u, nil
}

func (s *BoltStorage) Save(_ context.Context, u *User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(userKey, raw)
	})
}

func (s *BoltStorage) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(userKey)
	})
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}
