/*
	Package storage provides a unified interface to a number of storage engines.
	Each engine stores named blobs, e.g., the header and payload files of a volume
	block, and registers itself from its package init() so a store can be opened
	from a configuration that names the engine.

	Values are simply []byte at this level.  Serialization and compression occur
	above the storage level.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/blang/semver"
)

// ErrNotFound is returned by every engine when a named value is absent.
var ErrNotFound = errors.New("not found")

// Store holds named values.  Names are slash-separated relative paths.
type Store interface {
	fmt.Stringer

	// Put writes the value under the given name, replacing any previous value.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the value for a name or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists returns true if a value is stored under the name.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the named value.  Deleting an absent name is not an error.
	Delete(ctx context.Context, name string) error

	// Names returns the sorted names beginning with prefix.
	Names(ctx context.Context, prefix string) ([]string, error)

	// Close releases the store.
	Close() error
}

// Config is a map of keyword to arbitrary data to specify configurations via keyword.
type Config map[string]interface{}

// GetString returns a string setting.  If the setting is absent, found is false.
func (c Config) GetString(key string) (s string, found bool, err error) {
	v, found := c[key]
	if !found {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("%q setting must be a string (%v)", key, v)
	}
	return s, true, nil
}

// GetBool returns a bool setting.  If the setting is absent, found is false.
func (c Config) GetBool(key string) (b bool, found bool, err error) {
	v, found := c[key]
	if !found {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, fmt.Errorf("%q setting must be a bool (%v)", key, v)
	}
	return b, true, nil
}

// GetInt returns an integer setting, accepting any numeric type a TOML or JSON decoder
// produces.  If the setting is absent, found is false.
func (c Config) GetInt(key string) (i int, found bool, err error) {
	v, found := c[key]
	if !found {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != float64(int(n)) {
			return 0, true, fmt.Errorf("%q setting must be an integer (%v)", key, v)
		}
		return int(n), true, nil
	default:
		return 0, true, fmt.Errorf("%q setting must be an integer (%v)", key, v)
	}
}

// StoreConfig is a store-specific configuration where each store implementation
// defines the types of parameters it accepts.
type StoreConfig struct {
	Config

	// Engine is a simple name describing the engine, e.g., "filestore"
	Engine string
}

// Engine implementations can open stores.
type Engine interface {
	fmt.Stringer
	GetName() string
	GetDescription() string
	GetSemVer() semver.Version

	// NewStore returns a store and true if it was newly created.
	NewStore(StoreConfig) (Store, bool, error)
}

var (
	enginesMu        sync.RWMutex
	availableEngines = map[string]Engine{}
)

// RegisterEngine registers an Engine for use.  Engines call this from their init().
func RegisterEngine(e Engine) {
	enginesMu.Lock()
	availableEngines[e.GetName()] = e
	enginesMu.Unlock()
}

// GetEngine returns the registered engine with the given name.
func GetEngine(name string) (Engine, bool) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, found := availableEngines[name]
	return e, found
}

// EnginesAvailable returns a description of the available storage engines.
func EnginesAvailable() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	var engines []string
	for _, e := range availableEngines {
		engines = append(engines, fmt.Sprintf("%s: %s", e, e.GetDescription()))
	}
	sort.Strings(engines)
	return engines
}

// Open returns a store from the engine named in the configuration.
func Open(config StoreConfig) (Store, bool, error) {
	e, found := GetEngine(config.Engine)
	if !found {
		return nil, false, fmt.Errorf("storage engine %q is not available", config.Engine)
	}
	return e.NewStore(config)
}
