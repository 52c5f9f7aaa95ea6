package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

var bucketState = []byte("state")

// BoltSlot stores keys in a single bbolt bucket.
type BoltSlot struct {
	db  *bolt.DB
	log pslog.Logger
}

// NewBoltSlot opens (or creates) the database at path.
func NewBoltSlot(path string, logger pslog.Logger) (*BoltSlot, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrLocked
		}
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_db", path, "backend", BackendBolt)
	}
	return &BoltSlot{db: db, log: logger}, nil
}

// Read implements Slot.
func (s *BoltSlot) Read(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return schema.ErrSlotEmpty
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return schema.ErrSlotEmpty
		}
		data = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		if s.log != nil {
			if errors.Is(err, schema.ErrSlotEmpty) {
				s.log.Debug("state read miss", "key", key)
			} else {
				s.log.Warn("state read failed", "key", key, "err", err)
			}
		}
		return nil, err
	}
	return data, nil
}

// Write implements Slot. Each write is a single bbolt transaction.
func (s *BoltSlot) Write(key string, data []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketState)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		if s.log != nil {
			s.log.Warn("state write failed", "key", key, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state write ok", "key", key, "bytes", len(data))
	}
	return nil
}

// Close implements Slot.
func (s *BoltSlot) Close() error {
	return s.db.Close()
}
