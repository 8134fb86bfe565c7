package metadata

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

// writeArtifact builds a metadata artifact the way the offline ingestion
// run does: one JSON record per ordinal under the chunks bucket.
func writeArtifact(t *testing.T, records []entities.ChunkMeta) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "meta.db")
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("creating artifact: %v", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		for i, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(ordinalKey(int64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("populating artifact: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing artifact: %v", err)
	}
	return path
}

func TestBoltStore_GetAndLen(t *testing.T) {
	path := writeArtifact(t, []entities.ChunkMeta{
		{Text: "first chunk", URL: "https://kpu.ca/a"},
		{Text: "second chunk"},
	})

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if store.Len() != 2 {
		t.Errorf("expected 2 records, got %d", store.Len())
	}

	meta, err := store.Get(0)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if meta.Text != "first chunk" || meta.URL != "https://kpu.ca/a" {
		t.Errorf("unexpected record: %+v", meta)
	}

	meta, err = store.Get(1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if meta.URL != "" {
		t.Errorf("expected empty url, got %q", meta.URL)
	}
}

func TestBoltStore_OutOfRange(t *testing.T) {
	path := writeArtifact(t, []entities.ChunkMeta{{Text: "only"}})

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(-1); err == nil {
		t.Error("negative ordinal should error")
	}
	if _, err := store.Get(1); err == nil {
		t.Error("past-the-end ordinal should error")
	}
}

func TestBoltStore_MissingBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	db.Close()

	if _, err := Open(path); err == nil {
		t.Error("artifact without a chunks bucket should fail to open")
	}
}
