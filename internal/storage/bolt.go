package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var prefsBucket = []byte("prefs")

// Bolt is a Store backed by a single bbolt bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates a bbolt database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

// Get returns a copy of the stored value, or ErrNotFound.
func (b *Bolt) Get(key string) (r []byte, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(prefsBucket)
		if bk == nil {
			return ErrNotFound
		}
		v := bk.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		r = make([]byte, len(v))
		copy(r, v)
		return nil
	})
	return
}

// Set stores value under key, creating the bucket on first use.
func (b *Bolt) Set(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(prefsBucket)
		if err != nil {
			return err
		}
		return bk.Put([]byte(key), value)
	})
}

// Delete removes key. Missing keys are not an error.
func (b *Bolt) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(prefsBucket)
		if bk == nil {
			return nil
		}
		return bk.Delete([]byte(key))
	})
}

func (b *Bolt) Close() error { return b.db.Close() }
