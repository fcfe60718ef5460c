package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/log"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/utils"
)

const (
	dashboardKeyPrefix = "dash:"       // Normalized dashboard copies
	scanKeyPrefix      = "scan:"       // Last scan record per appliance
	observerDBDir      = "observer_db" // Subdirectory of the state dir holding Badger files
)

// BadgerStore implements ObserverStore using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64
}

var _ ObserverStore = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) the store under stateDir
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, observerDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}
	store := &BadgerStore{db: db, log: logger}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing records: %v", err)
	} else {
		store.keyCount.Store(int64(count))
	}
	logger.WithFields(logrus.Fields{"path": dbPath, "records": count}).Info("Observer state database opened")
	return store, nil
}

func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate retries db.Update on badger.ErrConflict
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// put stores value as JSON under key, counting new keys.
// When skip is non-nil it sees the current value and may veto the write.
func (s *BadgerStore) put(key []byte, value any, skip func(current []byte) bool) (written bool, err error) {
	if s.db == nil || s.db.IsClosed() {
		return false, fmt.Errorf("%w: store not open", utils.ErrDatabase)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%w: marshal record for key '%s': %w", utils.ErrParsing, key, err)
	}

	isNew := false
	err = s.dbUpdate(func(txn *badger.Txn) error {
		written, isNew = false, false
		item, errGet := txn.Get(key)
		switch {
		case errors.Is(errGet, badger.ErrKeyNotFound):
			isNew = true
		case errGet != nil:
			return errGet
		case skip != nil:
			var vetoed bool
			if errVal := item.Value(func(cur []byte) error {
				vetoed = skip(cur)
				return nil
			}); errVal != nil {
				return errVal
			}
			if vetoed {
				return nil
			}
		}
		written = true
		return txn.SetEntry(badger.NewEntry(key, data))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB update failed: %v", err)
		return false, fmt.Errorf("%w: writing key '%s': %w", utils.ErrDatabase, key, err)
	}
	if isNew && written {
		s.keyCount.Add(1)
	}
	return written, nil
}

// get decodes the JSON value under key into out. found is false for a missing key.
func (s *BadgerStore) get(key []byte, out any) (found bool, err error) {
	if s.db == nil || s.db.IsClosed() {
		return false, fmt.Errorf("%w: store not open", utils.ErrDatabase)
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: getting key '%s': %w", utils.ErrDatabase, key, errGet)
		}
		return item.Value(func(val []byte) error {
			if errJSON := json.Unmarshal(val, out); errJSON != nil {
				s.log.Warnf("Undecodable record under key '%s', ignoring: %v", key, errJSON)
				return nil
			}
			found = true
			return nil
		})
	})
	return found, err
}

// SaveDashboard implements DashboardStore
func (s *BadgerStore) SaveDashboard(rec *models.DashboardRecord) (bool, error) {
	if rec.ContentHash == "" {
		rec.ContentHash = utils.CalculateStringSHA256(rec.HTML)
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	key := []byte(dashboardKeyPrefix + rec.VRMID)

	changed, err := s.put(key, rec, func(cur []byte) bool {
		var stored models.DashboardRecord
		return json.Unmarshal(cur, &stored) == nil && stored.ContentHash == rec.ContentHash
	})
	if err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"vrm": rec.VRMID, "changed": changed}).Debug("Dashboard copy stored")
	return changed, nil
}

// GetDashboard implements DashboardStore
func (s *BadgerStore) GetDashboard(vrmID string) (*models.DashboardRecord, error) {
	var rec models.DashboardRecord
	found, err := s.get([]byte(dashboardKeyPrefix+vrmID), &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

// CheckScanStatus implements ScanStore
func (s *BadgerStore) CheckScanStatus(vrmID string) (models.ScanStatus, *models.ScanRecord, error) {
	var rec models.ScanRecord
	found, err := s.get([]byte(scanKeyPrefix+vrmID), &rec)
	if err != nil {
		s.log.Errorf("DB view error in CheckScanStatus for '%s': %v", vrmID, err)
		return models.ScanStatusDBError, nil, err
	}
	if !found {
		return models.ScanStatusNotFound, nil, nil
	}
	return rec.Status, &rec, nil
}

// UpdateScanRecord implements ScanStore
func (s *BadgerStore) UpdateScanRecord(rec *models.ScanRecord) error {
	if rec.LastAttempt.IsZero() {
		rec.LastAttempt = time.Now().UTC()
	}
	_, err := s.put([]byte(scanKeyPrefix+rec.VRMID), rec, nil)
	return err
}

// ListScanRecords implements ScanStore
func (s *BadgerStore) ListScanRecords(ctx context.Context) ([]models.ScanRecord, error) {
	records := []models.ScanRecord{}
	prefix := []byte(scanKeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			errVal := item.Value(func(val []byte) error {
				var rec models.ScanRecord
				if errJSON := json.Unmarshal(val, &rec); errJSON != nil {
					s.log.Errorf("Skipping undecodable scan record '%s': %v", item.Key(), errJSON)
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return records, err
		}
		return records, fmt.Errorf("%w: listing scan records: %w", utils.ErrDatabase, err)
	}
	return records, nil
}

// Count implements StoreAdmin
func (s *BadgerStore) Count() int {
	return int(s.keyCount.Load())
}

// RunGC runs BadgerDB's value log garbage collection every interval
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}
			var err error
			for err == nil {
				err = s.db.RunValueLogGC(0.5)
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}
		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB GC: %v", ctx.Err())
			return
		}
	}
}

// Close implements StoreAdmin. Closing twice is a no-op.
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing observer DB: %v", err)
		return err
	}
	s.log.Debug("Observer DB closed")
	return nil
}
