package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/interfaces"
	"github.com/growthops/adpulse/internal/models"
)

// SnapshotStorage implements the SnapshotStorage interface on a raw
// Badger database so entries carry a native TTL. Writes to the same
// key are last-write-wins.
type SnapshotStorage struct {
	db     *badgerdb.DB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *badgerdb.DB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SetSnapshot stores a JSON-serialized snapshot under key with a TTL
func (s *SnapshotStorage) SetSnapshot(ctx context.Context, key string, snapshot *models.CacheSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Msg("Cache snapshot written")
	return nil
}

// GetSnapshot retrieves a snapshot by key. Expired or missing entries
// return ErrSnapshotNotFound.
func (s *SnapshotStorage) GetSnapshot(ctx context.Context, key string) (*models.CacheSnapshot, error) {
	var snapshot models.CacheSnapshot
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return &snapshot, nil
}
