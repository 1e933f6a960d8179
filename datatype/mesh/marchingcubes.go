package mesh

import (
	"errors"
	"fmt"
	"sync"

	"github.com/janelia-flyem/segvol/datatype/sparsevolume"
	"github.com/janelia-flyem/segvol/segvol"
)

// ErrInvalidSource is returned when a mesh is computed from a volume without valid bounds.
var ErrInvalidSource = errors.New("invalid mesh source")

// Source is the volume a derived mesh is computed from.
type Source[T segvol.Voxel] interface {
	LastModified() segvol.Timestamp
	Background() T
	BeginRead() *sparsevolume.ReadGuard[T]
	Update() error
}

// State is the state of a derived mesh cache.
type State uint8

const (
	// Empty means no mesh has been computed.
	Empty State = iota

	// Fresh means the cached mesh was computed from the current source.
	Fresh

	// Stale means the source changed since the cached mesh was computed.
	Stale
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

type options struct {
	foreground uint64
	policy     segvol.UpdatePolicy
	maxCells   int
}

// Option configures a MarchingCubesMesh.
type Option func(*options)

// WithForeground sets the voxel value whose surface is extracted.
func WithForeground(value uint64) Option {
	return func(o *options) {
		o.foreground = value
	}
}

// WithUpdatePolicy sets whether the source is asked to update before each recompute.
func WithUpdatePolicy(p segvol.UpdatePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithMaxCells caps the marching cubes resolution along the longest axis.
func WithMaxCells(n int) Option {
	return func(o *options) {
		o.maxCells = n
	}
}

// MarchingCubesMesh caches the surface of a sparse volume's foreground and recomputes it
// lazily, on first access after the volume's timestamp changes.
type MarchingCubesMesh[T segvol.Voxel] struct {
	source     Source[T]
	foreground T
	policy     segvol.UpdatePolicy
	maxCells   int

	// computeMu serializes recomputes.
	computeMu sync.Mutex

	// mu guards the cached state and is never held while the source is locked.
	mu           sync.Mutex
	mesh         *PolyData
	sourceStamp  segvol.Timestamp
	invalidated  bool
	lastModified segvol.Timestamp
}

// NewMarchingCubesMesh returns an empty cache over the source.
func NewMarchingCubesMesh[T segvol.Voxel](source Source[T], opts ...Option) *MarchingCubesMesh[T] {
	o := options{
		foreground: uint64(segvol.SegVoxelValue),
		policy:     segvol.Ignore,
		maxCells:   DefaultMaxCells,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &MarchingCubesMesh[T]{
		source:     source,
		foreground: T(o.foreground),
		policy:     o.policy,
		maxCells:   o.maxCells,
	}
}

func (m *MarchingCubesMesh[T]) Kind() segvol.Kind {
	return segvol.MarchingCubesMesh
}

// Dependencies returns the kinds the mesh is derived from.
func (m *MarchingCubesMesh[T]) Dependencies() []segvol.Kind {
	return []segvol.Kind{segvol.VolumetricData}
}

// NeedsUpdate returns true if the cached mesh does not reflect the source's current
// timestamp.
func (m *MarchingCubesMesh[T]) NeedsUpdate() bool {
	stamp := m.source.LastModified()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated || m.sourceStamp != stamp
}

// State returns the state of the cache.
func (m *MarchingCubesMesh[T]) State() State {
	stale := m.NeedsUpdate()
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.mesh == nil:
		return Empty
	case stale:
		return Stale
	default:
		return Fresh
	}
}

// Invalidate marks the cached mesh stale so the next access recomputes it.
func (m *MarchingCubesMesh[T]) Invalidate() {
	m.mu.Lock()
	m.invalidated = true
	m.mu.Unlock()
}

// Update recomputes the mesh if the source changed.  On failure the cached mesh is kept
// and the cache stays stale.
func (m *MarchingCubesMesh[T]) Update() error {
	m.computeMu.Lock()
	defer m.computeMu.Unlock()
	if !m.NeedsUpdate() {
		return nil
	}
	if m.policy == segvol.Request {
		if err := m.source.Update(); err != nil {
			return fmt.Errorf("updating mesh source: %w", err)
		}
	}

	g := m.source.BeginRead()
	stamp := g.LastModified()
	if !g.IsValid() {
		g.End()
		return fmt.Errorf("volume %s: %w", g.Bounds(), ErrInvalidSource)
	}
	img, err := g.MaterializeAll()
	g.End()
	if err != nil {
		return err
	}

	timedLog := segvol.NewTimeLog()
	poly := Extract(img.Pad(1, m.source.Background()), m.foreground, m.maxCells)
	timedLog.Debugf("Computed mesh of %s with %s", img.Bounds(), poly)

	m.mu.Lock()
	m.mesh = poly
	m.sourceStamp = stamp
	m.invalidated = false
	m.lastModified = segvol.NextTimestamp()
	m.mu.Unlock()
	return nil
}

// resolve recomputes a stale mesh, logging rather than returning failures.
func (m *MarchingCubesMesh[T]) resolve() {
	if !m.NeedsUpdate() {
		return
	}
	if err := m.Update(); err != nil {
		segvol.Warningf("Unable to compute marching cubes mesh: %v\n", err)
	}
}

// Mesh returns a copy of the up to date mesh, or the previously cached mesh if it can't
// be computed.  It returns nil if no mesh was ever computed.
func (m *MarchingCubesMesh[T]) Mesh() *PolyData {
	m.resolve()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mesh.Clone()
}

// Bounds returns the closed bounds of the up to date mesh.
func (m *MarchingCubesMesh[T]) Bounds() segvol.Bounds {
	m.resolve()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mesh.Bounds()
}

// LastModified returns the timestamp of the last recompute of the up to date mesh.
func (m *MarchingCubesMesh[T]) LastModified() segvol.Timestamp {
	m.resolve()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastModified
}

// IsValid returns true if a mesh is cached.
func (m *MarchingCubesMesh[T]) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mesh != nil
}
