/*
	This file provides the highest-level view of the data kinds a segmentation carries.
*/

package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"
)

const (
	Version = "0.1"
)

var (
	// ErrMissingDependency is returned when data depends on a kind the output lacks.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrDependencyCycle is returned when data kinds depend on each other.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrIncomplete is returned when stored data could not be fully loaded.
	ErrIncomplete = errors.New("incomplete data")
)

// Data is implemented by every kind of data a segmentation carries.
type Data interface {
	Kind() segvol.Kind

	// Dependencies returns the kinds this data is computed from.
	Dependencies() []segvol.Kind

	IsValid() bool
	LastModified() segvol.Timestamp
}

// Persister is data stored as a whole under an id.
type Persister interface {
	Data
	Snapshot(ctx context.Context, prefix, id string) (storage.Snapshot, error)
	Fetch(ctx context.Context, store storage.Store, prefix, id string) bool
}

// VolumeData is block-stored data that can also persist only the regions edited since
// it was last saved in full.
type VolumeData interface {
	Data
	Bounds() segvol.VolumeBounds
	Save(ctx context.Context, store storage.Store, prefix, id string) error
	Fetch(ctx context.Context, store storage.Store, prefix, id string, expected segvol.VolumeBounds) bool
	EditedRegions() segvol.VolumeBoundsList
	ClearEditedRegions()
	EditedRegionsSnapshot(ctx context.Context, prefix, id string) (storage.Snapshot, error)
	RestoreEditedRegions(ctx context.Context, store storage.Store, prefix, id string, regions segvol.VolumeBoundsList) error
}

// Versions returns a chart of version identifiers for the datastore and the storage
// engines compiled into this executable.
func Versions() string {
	var text strings.Builder
	text.WriteString("\nCompile-time version information for this segvol executable:\n\n")
	writeLine := func(name, version string) {
		fmt.Fprintf(&text, "%-20s   %s\n", name, version)
	}
	writeLine("Name", "Version")
	writeLine("segvol datastore", Version)
	for _, engine := range storage.EnginesAvailable() {
		writeLine("Storage engine", engine)
	}
	for _, kind := range []segvol.Kind{segvol.VolumetricData, segvol.MeshData, segvol.MarchingCubesMesh} {
		writeLine("Data kind", string(kind))
	}
	return text.String()
}
