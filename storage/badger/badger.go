/*
	Package badger implements a store backed by BadgerDB, either on disk or, for
	scratch work and tests, entirely in memory.
*/
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
)

func init() {
	ver, err := semver.Make("0.2.0")
	if err != nil {
		segvol.Errorf("Unable to make semver in badger: %v\n", err)
	}
	e := Engine{"badger", "BadgerDB", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore returns a badger. The passed Config must contain a "path" string unless
// "inmemory" is true.
func (e Engine) NewStore(config storage.StoreConfig) (storage.Store, bool, error) {
	return e.newDB(config)
}

func parseConfig(config storage.StoreConfig) (path string, inMemory bool, err error) {
	inMemory, _, err = config.GetBool("inmemory")
	if err != nil || inMemory {
		return
	}
	path, found, err := config.GetString("path")
	if err != nil {
		return
	}
	if !found {
		err = fmt.Errorf("%q must be specified for BadgerDB configuration", "path")
		return
	}
	testing, _, err := config.GetBool("testing")
	if err != nil {
		return
	}
	if testing {
		path = filepath.Join(os.TempDir(), path)
	}
	return
}

// Periodically sync to prevent too many writes from being buffered
// if the process crashes.
func syncPeriodically(db *BadgerDB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			segvol.Debugf("Stopping sync goroutine for badger @ %s\n", db.directory)
			return
		case <-ticker.C:
			db.bdp.Sync()
		}
	}
}

// newDB returns a Badger backend, creating one at path if it doesn't exist.
func (e Engine) newDB(config storage.StoreConfig) (*BadgerDB, bool, error) {
	path, inMemory, err := parseConfig(config)
	if err != nil {
		return nil, false, err
	}

	created := inMemory
	if !inMemory {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			segvol.Infof("Database not already at path (%s). Creating directory...\n", path)
			created = true
			if err := os.MkdirAll(path, 0744); err != nil {
				return nil, true, fmt.Errorf("can't make directory at %s: %v", path, err)
			}
		} else {
			segvol.Debugf("Found directory at %s (err = %v)\n", path, err)
		}
	}

	opts, err := getOptions(path, inMemory, config.Config)
	if err != nil {
		return nil, false, err
	}
	opts.NumVersionsToKeep = 1
	opts.SyncWrites = false

	db := &BadgerDB{
		directory: path,
		inMemory:  inMemory,
		options:   opts,
	}
	if inMemory {
		db.directory = "memory"
	}

	segvol.Debugf("Opening badger @ %s\n", db.directory)
	bdp, err := badger.Open(*opts)
	if err != nil {
		return nil, false, err
	}
	db.bdp = bdp

	if !inMemory {
		db.stopSyncCh = make(chan bool)
		go syncPeriodically(db)
	}
	return db, created, nil
}

// BadgerDB is a store where each name is a key of a Badger database.
type BadgerDB struct {
	// Directory of datastore
	directory string
	inMemory  bool

	options *badger.Options
	bdp     *badger.DB

	// stopSyncCh is used to signal the sync goroutine to stop.
	stopSyncCh chan bool
}

func (db *BadgerDB) String() string {
	return fmt.Sprintf("badger @ %s", db.directory)
}

// Close closes the BadgerDB
func (db *BadgerDB) Close() error {
	if db == nil || db.bdp == nil {
		return nil
	}
	if db.stopSyncCh != nil {
		db.stopSyncCh <- true
	}
	err := db.bdp.Close()
	segvol.Debugf("Closed Badger DB @ %s\n", db.directory)
	db.bdp = nil
	db.options = nil
	return err
}

func (db *BadgerDB) Put(ctx context.Context, name string, data []byte) error {
	if db == nil || db.bdp == nil {
		return fmt.Errorf("can't call Put on nil BadgerDB")
	}
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
}

func (db *BadgerDB) Get(ctx context.Context, name string) ([]byte, error) {
	if db == nil || db.bdp == nil {
		return nil, fmt.Errorf("can't call Get on nil BadgerDB")
	}
	var data []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%q in %s: %w", name, db, storage.ErrNotFound)
	}
	return data, err
}

func (db *BadgerDB) Exists(ctx context.Context, name string) (bool, error) {
	if db == nil || db.bdp == nil {
		return false, fmt.Errorf("can't call Exists on nil BadgerDB")
	}
	err := db.bdp.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (db *BadgerDB) Delete(ctx context.Context, name string) error {
	if db == nil || db.bdp == nil {
		return fmt.Errorf("can't call Delete on nil BadgerDB")
	}
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
}

// Names returns keys with the given prefix in lexicographic order.
func (db *BadgerDB) Names(ctx context.Context, prefix string) ([]string, error) {
	if db == nil || db.bdp == nil {
		return nil, fmt.Errorf("can't call Names on nil BadgerDB")
	}
	var names []string
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // key only
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return names, err
}
