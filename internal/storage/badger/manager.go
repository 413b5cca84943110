package badger

import (
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
)

// Manager aggregates the Badger-backed storage implementations
type Manager struct {
	db      *BadgerDB
	cacheDB *badgerdb.DB
	logger  arbor.ILogger

	kvStorage       interfaces.KeyValueStorage
	reportStorage   interfaces.ReportStorage
	alertStorage    interfaces.AlertStorage
	snapshotStorage interfaces.SnapshotStorage
}

// NewManager opens the persistent store and the TTL cache store and
// wires the storage implementations on top of them.
func NewManager(logger arbor.ILogger, storageCfg *common.StorageConfig, cacheCfg *common.CacheConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, &storageCfg.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	cacheDB, err := NewCacheDB(logger, cacheCfg.Path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	return &Manager{
		db:              db,
		cacheDB:         cacheDB,
		logger:          logger,
		kvStorage:       NewKVStorage(db, logger),
		reportStorage:   NewReportStorage(db, logger),
		alertStorage:    NewAlertStorage(db, logger),
		snapshotStorage: NewSnapshotStorage(cacheDB, logger),
	}, nil
}

// KVStorage returns the key/value storage
func (m *Manager) KVStorage() interfaces.KeyValueStorage {
	return m.kvStorage
}

// ReportStorage returns the report run storage
func (m *Manager) ReportStorage() interfaces.ReportStorage {
	return m.reportStorage
}

// AlertStorage returns the alert event storage
func (m *Manager) AlertStorage() interfaces.AlertStorage {
	return m.alertStorage
}

// SnapshotStorage returns the report snapshot cache
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshotStorage
}

// Close closes both databases
func (m *Manager) Close() error {
	var firstErr error
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			firstErr = err
		}
	}
	if m.cacheDB != nil {
		if err := m.cacheDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ interfaces.StorageManager = (*Manager)(nil)
