package repositories

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repository owns the badger database that backs the ledger.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	isTestDB bool
}

func NewRepository(path string) (*Repository, error) {
	isTest := false
	if path == "" || path == "test_db" {
		// If no path is provided or if "test_db" is explicitly used,
		// create a unique temporary directory for testing to ensure isolation.
		tempPath, err := os.MkdirTemp("", "moviereview_test_db_")
		if err != nil {
			return nil, fmt.Errorf("Error creating temp dir: %v", err)
		}
		path = tempPath
		isTest = true
	}
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1).
		WithNumGoroutines(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Repository{
		db:       db,
		dbPath:   path,
		isTestDB: isTest,
	}, nil
}

// NewInMemoryRepository opens a ledger that lives only as long as the process.
func NewInMemoryRepository() (*Repository, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	err := r.db.Close()
	if err != nil {
		return err
	}

	// Clean up test database
	if r.isTestDB {
		err = os.RemoveAll(r.dbPath)
		if err != nil {
			return fmt.Errorf("failed to cleanup test database: %v", err)
		}
	}
	return nil
}

// View runs fn against a read-only snapshot.
func (r *Repository) View(fn func(Ledger) error) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.db.View(func(txn *badger.Txn) error {
		return fn(NewBadgerLedger(txn))
	})
}

// Update runs fn in a read-write transaction. Nothing is written unless fn
// returns nil. Concurrent updates touching the same keys fail with
// badger.ErrConflict; callers that need ordering serialize above this layer.
func (r *Repository) Update(fn func(Ledger) error) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.db.Update(func(txn *badger.Txn) error {
		return fn(NewBadgerLedger(txn))
	})
}

// Backup streams a full backup of the ledger to w.
func (r *Repository) Backup(w io.Writer) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, err := r.db.Backup(w, 0)
	return err
}

// Load restores a backup produced by Backup.
func (r *Repository) Load(rd io.Reader) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.Load(rd, 4)
}

func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}
