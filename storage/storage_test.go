package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/blang/semver"
)

type mapStore struct {
	sync.Mutex
	values map[string][]byte
}

func (m *mapStore) String() string { return "map store" }
func (m *mapStore) Close() error   { return nil }

func (m *mapStore) Put(ctx context.Context, name string, data []byte) error {
	m.Lock()
	defer m.Unlock()
	if strings.Contains(name, "fail") {
		return fmt.Errorf("refusing %q", name)
	}
	m.values[name] = data
	return nil
}

func (m *mapStore) Get(ctx context.Context, name string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	data, found := m.values[name]
	if !found {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *mapStore) Exists(ctx context.Context, name string) (bool, error) {
	m.Lock()
	defer m.Unlock()
	_, found := m.values[name]
	return found, nil
}

func (m *mapStore) Delete(ctx context.Context, name string) error {
	m.Lock()
	defer m.Unlock()
	delete(m.values, name)
	return nil
}

func (m *mapStore) Names(ctx context.Context, prefix string) ([]string, error) {
	m.Lock()
	defer m.Unlock()
	var names []string
	for name := range m.values {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type mapEngine struct{}

func (mapEngine) String() string            { return "mapstore [1.0.0]" }
func (mapEngine) GetName() string           { return "mapstore" }
func (mapEngine) GetDescription() string    { return "in-process map" }
func (mapEngine) GetSemVer() semver.Version { return semver.MustParse("1.0.0") }
func (mapEngine) NewStore(StoreConfig) (Store, bool, error) {
	return &mapStore{values: map[string][]byte{}}, true, nil
}

func TestEngineRegistry(t *testing.T) {
	RegisterEngine(mapEngine{})
	e, found := GetEngine("mapstore")
	if !found {
		t.Fatalf("registered engine not found\n")
	}
	if e.GetSemVer().Major != 1 {
		t.Errorf("bad semver for registered engine: %s\n", e.GetSemVer())
	}
	var listed bool
	for _, desc := range EnginesAvailable() {
		if strings.HasPrefix(desc, "mapstore") {
			listed = true
		}
	}
	if !listed {
		t.Errorf("registered engine not listed in %v\n", EnginesAvailable())
	}

	s, created, err := Open(StoreConfig{Engine: "mapstore"})
	if err != nil {
		t.Fatalf("unable to open registered engine: %v\n", err)
	}
	if !created {
		t.Errorf("expected new map store to be reported as created\n")
	}
	s.Close()

	if _, _, err := Open(StoreConfig{Engine: "nosuchengine"}); err == nil {
		t.Errorf("expected error opening unknown engine\n")
	}
}

func TestConfigSettings(t *testing.T) {
	c := Config{"path": "/tmp/x", "testing": true, "size": int64(12), "ratio": 1.5, "count": 3.0}
	if s, found, err := c.GetString("path"); err != nil || !found || s != "/tmp/x" {
		t.Errorf("bad GetString: %q %t %v\n", s, found, err)
	}
	if _, found, _ := c.GetString("missing"); found {
		t.Errorf("missing setting reported found\n")
	}
	if _, _, err := c.GetString("testing"); err == nil {
		t.Errorf("expected error reading bool as string\n")
	}
	if b, found, err := c.GetBool("testing"); err != nil || !found || !b {
		t.Errorf("bad GetBool: %t %t %v\n", b, found, err)
	}
	if i, _, err := c.GetInt("size"); err != nil || i != 12 {
		t.Errorf("bad GetInt for int64: %d %v\n", i, err)
	}
	if i, _, err := c.GetInt("count"); err != nil || i != 3 {
		t.Errorf("bad GetInt for float64: %d %v\n", i, err)
	}
	if _, _, err := c.GetInt("ratio"); err == nil {
		t.Errorf("expected error reading fractional value as int\n")
	}
}

func TestSnapshotWrite(t *testing.T) {
	store := &mapStore{values: map[string][]byte{}}
	snap := Snapshot{
		{Name: "a", Data: []byte("12345")},
		{Name: "b", Data: []byte("678")},
		{Name: "c", Data: nil},
	}
	if snap.Size() != 8 {
		t.Errorf("expected snapshot size 8, got %d\n", snap.Size())
	}
	if names := snap.Names(); len(names) != 3 || names[1] != "b" {
		t.Errorf("bad snapshot names: %v\n", names)
	}
	if err := snap.Write(context.Background(), store, 2); err != nil {
		t.Fatalf("unable to write snapshot: %v\n", err)
	}
	if data, err := store.Get(context.Background(), "a"); err != nil || string(data) != "12345" {
		t.Errorf("bad value after snapshot write: %q %v\n", data, err)
	}

	bad := Snapshot{{Name: "ok", Data: []byte("1")}, {Name: "fail", Data: []byte("2")}}
	if err := bad.Write(context.Background(), store, 1); err == nil {
		t.Errorf("expected error from failing write\n")
	}
}
