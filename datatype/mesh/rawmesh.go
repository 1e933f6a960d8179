package mesh

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"
)

// RawMeshName returns the stored name of a mesh.
func RawMeshName(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s.glb", id, segvol.MeshData))
}

// RawMesh is a stored mesh that does not depend on other data.
type RawMesh struct {
	mu           sync.RWMutex
	mesh         *PolyData
	lastModified segvol.Timestamp
}

// NewRawMesh returns a stored mesh holding a copy of p, which may be nil.
func NewRawMesh(p *PolyData) *RawMesh {
	return &RawMesh{mesh: p.Clone(), lastModified: segvol.NextTimestamp()}
}

func (r *RawMesh) Kind() segvol.Kind {
	return segvol.MeshData
}

func (r *RawMesh) Dependencies() []segvol.Kind {
	return nil
}

func (r *RawMesh) IsValid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mesh != nil
}

func (r *RawMesh) LastModified() segvol.Timestamp {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastModified
}

// Mesh returns a copy of the mesh.
func (r *RawMesh) Mesh() *PolyData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mesh.Clone()
}

// SetMesh replaces the mesh with a copy of p.
func (r *RawMesh) SetMesh(p *PolyData) {
	r.mu.Lock()
	r.mesh = p.Clone()
	r.lastModified = segvol.NextTimestamp()
	r.mu.Unlock()
}

func (r *RawMesh) Bounds() segvol.Bounds {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mesh.Bounds()
}

// Snapshot returns the mesh as a single GLB entry, or nothing if no mesh is set.
func (r *RawMesh) Snapshot(ctx context.Context, prefix, id string) (storage.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mesh == nil {
		return nil, nil
	}
	data, err := EncodeGLB(r.mesh)
	if err != nil {
		return nil, err
	}
	return storage.Snapshot{{Name: RawMeshName(prefix, id), Data: data}}, nil
}

// Fetch loads a stored mesh, returning false if none is stored or it can't be read.
func (r *RawMesh) Fetch(ctx context.Context, store storage.Store, prefix, id string) bool {
	name := RawMeshName(prefix, id)
	data, err := store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			segvol.Warningf("Unable to read mesh %q from %s: %v\n", name, store, err)
		}
		return false
	}
	p, err := DecodeGLB(data)
	if err != nil {
		segvol.Warningf("Unable to decode mesh %q from %s: %v\n", name, store, err)
		return false
	}
	r.SetMesh(p)
	return true
}
