package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltPersister keeps settled cache snapshots in a BoltDB file.
type BoltPersister struct {
	db     *bolt.DB
	bucket []byte
}

type snapshot struct {
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"saved_at"`
}

// OpenBolt initializes the BoltDB file and ensures the bucket exists.
func OpenBolt(path, bucket string) (*BoltPersister, error) {
	if bucket == "" {
		bucket = "query_cache"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltPersister{db: db, bucket: []byte(bucket)}, nil
}

func (p *BoltPersister) Save(key string, data []byte, at time.Time) error {
	if p == nil || p.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(snapshot{Data: data, SavedAt: at})
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), payload)
	})
}

func (p *BoltPersister) Load(key string) ([]byte, time.Time, bool, error) {
	if p == nil || p.db == nil {
		return nil, time.Time{}, false, bolt.ErrDatabaseNotOpen
	}
	var (
		snap  snapshot
		found bool
	)
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &snap)
	})
	if err != nil || !found {
		return nil, time.Time{}, false, err
	}
	return snap.Data, snap.SavedAt, true, nil
}

func (p *BoltPersister) Delete(key string) error {
	if p == nil || p.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

// Cleanup removes snapshots saved before olderThan.
func (p *BoltPersister) Cleanup(olderThan time.Time) error {
	if p == nil || p.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		var expired [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var snap snapshot
			if err := json.Unmarshal(v, &snap); err != nil || snap.SavedAt.Before(olderThan) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		// Keys are deleted after the scan; deleting under a live cursor skips entries.
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Size returns the number of stored snapshots.
func (p *BoltPersister) Size() (int, error) {
	if p == nil || p.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := p.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(p.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (p *BoltPersister) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
