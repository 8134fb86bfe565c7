// Package metadata reads the chunk metadata artifact produced by the
// offline ingestion run.
// Clean Architecture: Adapter implementing ports.MetadataStore.
package metadata

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

var bucketChunks = []byte("chunks")

// BoltStore is a read-only view over the bbolt metadata artifact.
// Record i holds the text and source url for the vector at ordinal i.
type BoltStore struct {
	db    *bbolt.DB
	count int
}

// Open opens the artifact read-only and caches its record count for the
// startup alignment check against the vector index.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening metadata artifact: %w", err)
	}

	var count int
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return fmt.Errorf("metadata artifact %s has no chunks bucket", path)
		}
		count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, count: count}, nil
}

// Get returns the metadata record for a chunk ordinal.
func (s *BoltStore) Get(id int64) (entities.ChunkMeta, error) {
	var meta entities.ChunkMeta
	if id < 0 || id >= int64(s.count) {
		return meta, fmt.Errorf("chunk id %d out of range [0, %d)", id, s.count)
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get(ordinalKey(id))
		if data == nil {
			return fmt.Errorf("chunk %d missing from metadata artifact", id)
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return entities.ChunkMeta{}, err
	}
	return meta, nil
}

// Len reports the number of metadata records.
func (s *BoltStore) Len() int { return s.count }

// Close closes the underlying bolt file.
func (s *BoltStore) Close() error { return s.db.Close() }

// ordinalKey encodes ordinals big-endian so bolt's key order matches
// ingestion order.
func ordinalKey(id int64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}
