// Package storetest checks that a storage.Store implementation behaves as the rest of
// segvol expects.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/janelia-flyem/segvol/storage"
)

// Exercise runs put, get, exists, list and delete operations against an empty store.
func Exercise(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "seg_VolumetricData_0.mhd"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent name in %s, got %v\n", s, err)
	}
	found, err := s.Exists(ctx, "seg_VolumetricData_0.mhd")
	if err != nil {
		t.Fatalf("Exists on %s: %v\n", s, err)
	}
	if found {
		t.Fatalf("empty store %s reports a stored value\n", s)
	}

	values := map[string][]byte{
		"seg_VolumetricData_0.mhd": []byte("ObjectType = Image\n"),
		"seg_VolumetricData_0.raw": bytes.Repeat([]byte{0, 255}, 1000),
		"seg_VolumetricData_1.mhd": []byte("NDims = 3\n"),
		"other/seg_MeshData.glb":   []byte("glTF"),
	}
	for name, data := range values {
		if err := s.Put(ctx, name, data); err != nil {
			t.Fatalf("Put %q on %s: %v\n", name, s, err)
		}
	}
	for name, data := range values {
		got, err := s.Get(ctx, name)
		if err != nil {
			t.Fatalf("Get %q on %s: %v\n", name, s, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Get %q on %s returned %d bytes, expected %d\n", name, s, len(got), len(data))
		}
		if found, err := s.Exists(ctx, name); err != nil || !found {
			t.Errorf("Exists %q on %s: found %t, err %v\n", name, s, found, err)
		}
	}

	// Overwrite replaces the value.
	if err := s.Put(ctx, "seg_VolumetricData_1.mhd", []byte("NDims = 2\n")); err != nil {
		t.Fatalf("overwrite on %s: %v\n", s, err)
	}
	if got, _ := s.Get(ctx, "seg_VolumetricData_1.mhd"); string(got) != "NDims = 2\n" {
		t.Errorf("overwrite on %s not visible, got %q\n", s, got)
	}

	names, err := s.Names(ctx, "seg_")
	if err != nil {
		t.Fatalf("Names on %s: %v\n", s, err)
	}
	expected := []string{"seg_VolumetricData_0.mhd", "seg_VolumetricData_0.raw", "seg_VolumetricData_1.mhd"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Names on %s returned %v, expected %v\n", s, names, expected)
	}

	if err := s.Delete(ctx, "seg_VolumetricData_0.raw"); err != nil {
		t.Fatalf("Delete on %s: %v\n", s, err)
	}
	if found, _ := s.Exists(ctx, "seg_VolumetricData_0.raw"); found {
		t.Errorf("deleted value still present in %s\n", s)
	}
	if err := s.Delete(ctx, "seg_VolumetricData_0.raw"); err != nil {
		t.Errorf("deleting absent name on %s should not fail: %v\n", s, err)
	}
}
