package badger

import (
	"testing"

	"github.com/janelia-flyem/segvol/storage"
	"github.com/janelia-flyem/segvol/storage/storetest"
)

func TestInMemory(t *testing.T) {
	s, created, err := storage.Open(storage.StoreConfig{
		Config: storage.Config{"inmemory": true},
		Engine: "badger",
	})
	if err != nil {
		t.Fatalf("unable to open in-memory badger: %v\n", err)
	}
	if !created {
		t.Errorf("in-memory badger should always be new\n")
	}
	defer s.Close()
	storetest.Exercise(t, s)
}

func TestOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, _, err := storage.Open(storage.StoreConfig{
		Config: storage.Config{"path": dir},
		Engine: "badger",
	})
	if err != nil {
		t.Fatalf("unable to open badger at %s: %v\n", dir, err)
	}
	storetest.Exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("unable to close badger: %v\n", err)
	}
}
