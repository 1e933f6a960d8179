package sparsevolume

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/janelia-flyem/segvol/segvol"

	humanize "github.com/dustin/go-humanize"
)

// DefaultBlockSize is the edge length in voxels of a volume block.
const DefaultBlockSize = 25

// ErrCorruptBlock is returned when a persisted block cannot be decoded.
var ErrCorruptBlock = errors.New("corrupt block")

type options struct {
	blockSize   int32
	background  uint64
	compression segvol.Compression
	checksum    bool
	workers     int
}

// Option configures a new Volume.
type Option func(*options)

// WithBlockSize sets the block edge length in voxels.
func WithBlockSize(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// WithBackground sets the background value, converted to the voxel type.
func WithBackground(value uint64) Option {
	return func(o *options) {
		o.background = value
	}
}

// WithCompression sets the compression of persisted block payloads.
func WithCompression(c segvol.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChecksum sets whether persisted block payloads carry a checksum.
func WithChecksum(on bool) Option {
	return func(o *options) {
		o.checksum = on
	}
}

// WithWorkers sets the number of goroutines used to encode and write blocks.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Volume is a sparse map from block index to dense block over a logical voxel region.
// Voxels outside the logical bounds or in unallocated blocks are background.
type Volume[T segvol.Voxel] struct {
	mu sync.RWMutex

	geom       segvol.VolumeBounds
	blockSize  int32
	background T
	blocks     map[segvol.ChunkPoint3d]*block[T]
	edited     segvol.VolumeBoundsList

	compression segvol.Compression
	checksum    bool
	workers     int

	lastModified atomic.Uint64

	updaterMu sync.Mutex
	updater   segvol.Updater
}

// New returns an empty volume with the given logical bounds.
func New[T segvol.Voxel](geom segvol.VolumeBounds, opts ...Option) *Volume[T] {
	o := options{
		blockSize:   DefaultBlockSize,
		compression: segvol.Zstd,
		checksum:    true,
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	v := &Volume[T]{
		geom:        geom,
		blockSize:   o.blockSize,
		background:  T(o.background),
		blocks:      make(map[segvol.ChunkPoint3d]*block[T]),
		compression: o.compression,
		checksum:    o.checksum,
		workers:     o.workers,
	}
	v.touch()
	return v
}

// NewFromBounds returns an empty volume over the voxels of a grid whose centres lie in b.
func NewFromBounds[T segvol.Voxel](b segvol.Bounds, spacing, origin segvol.NmVector3, opts ...Option) *Volume[T] {
	return New[T](segvol.NewVolumeBounds(b, spacing, origin), opts...)
}

// NewFromImage returns a sparse copy of a dense image.  The copy starts with no
// edited regions.
func NewFromImage[T segvol.Voxel](img *segvol.Image[T], opts ...Option) *Volume[T] {
	v := New[T](img.Bounds(), opts...)
	v.drawImage(img, v.clip(img.Bounds().Region()), segvol.Point3d{})
	v.edited = nil
	return v
}

func (v *Volume[T]) touch() {
	v.lastModified.Store(uint64(segvol.NextTimestamp()))
}

// LastModified returns the timestamp of the most recent mutation.
func (v *Volume[T]) LastModified() segvol.Timestamp {
	return segvol.Timestamp(v.lastModified.Load())
}

// Kind returns the data kind of sparse volumes.
func (v *Volume[T]) Kind() segvol.Kind {
	return segvol.VolumetricData
}

// Dependencies returns the data kinds a volume depends on, which is none.
func (v *Volume[T]) Dependencies() []segvol.Kind {
	return nil
}

// Bounds returns the logical bounds.
func (v *Volume[T]) Bounds() segvol.VolumeBounds {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.geom
}

// IsValid returns true if the logical bounds hold at least one voxel.
func (v *Volume[T]) IsValid() bool {
	return v.Bounds().IsValid()
}

// IsEmpty returns true if the logical bounds are invalid or no block is allocated.
func (v *Volume[T]) IsEmpty() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.geom.IsValid() || len(v.blocks) == 0
}

func (v *Volume[T]) Spacing() segvol.NmVector3 {
	return v.Bounds().Spacing()
}

func (v *Volume[T]) Origin() segvol.NmVector3 {
	return v.Bounds().Origin()
}

func (v *Volume[T]) BlockSize() int32 {
	return v.blockSize
}

func (v *Volume[T]) Background() T {
	return v.background
}

// BlockCount returns the number of allocated blocks.
func (v *Volume[T]) BlockCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.blocks)
}

// MemoryUsage returns the bytes held by allocated blocks.
func (v *Volume[T]) MemoryUsage() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.memoryUsage()
}

func (v *Volume[T]) memoryUsage() uint64 {
	n := uint64(v.blockSize)
	return n * n * n * uint64(segvol.VoxelSize[T]()) * uint64(len(v.blocks))
}

// BlockIndices returns the indices of allocated blocks in ZYX order.
func (v *Volume[T]) BlockIndices() []segvol.ChunkPoint3d {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.blockIndices()
}

func (v *Volume[T]) blockIndices() []segvol.ChunkPoint3d {
	indices := make([]segvol.ChunkPoint3d, 0, len(v.blocks))
	for idx := range v.blocks {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Less(indices[j]) })
	return indices
}

// Stats summarizes the allocation of a volume.
type Stats struct {
	Bounds      segvol.VolumeBounds
	BlockSize   int32
	Blocks      int
	Foreground  int64
	MemoryUsage uint64
	Edits       int
}

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d blocks of %d^3 (%s), %d foreground voxels, %d edited regions",
		s.Bounds, s.Blocks, s.BlockSize, humanize.Bytes(s.MemoryUsage), s.Foreground, s.Edits)
}

// Stats returns a summary of the volume's allocation.
func (v *Volume[T]) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := Stats{
		Bounds:      v.geom,
		BlockSize:   v.blockSize,
		Blocks:      len(v.blocks),
		MemoryUsage: v.memoryUsage(),
		Edits:       len(v.edited),
	}
	for _, b := range v.blocks {
		s.Foreground += b.foreground
	}
	return s
}

// EditedRegions returns a copy of the regions edited since the list was last cleared.
func (v *Volume[T]) EditedRegions() segvol.VolumeBoundsList {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append(segvol.VolumeBoundsList(nil), v.edited...)
}

// SetEditedRegions replaces the edited-region list.
func (v *Volume[T]) SetEditedRegions(regions segvol.VolumeBoundsList) {
	v.mu.Lock()
	v.edited = append(segvol.VolumeBoundsList(nil), regions...)
	v.mu.Unlock()
}

// ClearEditedRegions empties the edited-region list.
func (v *Volume[T]) ClearEditedRegions() {
	v.mu.Lock()
	v.edited = nil
	v.mu.Unlock()
}

// SetSpacing changes the physical size of voxels.  The voxel grid is not resampled:
// blocks, the logical bounds and the edited regions keep their voxel indices while
// origins are rescaled in proportion.
func (v *Volume[T]) SetSpacing(spacing segvol.NmVector3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.geom.Spacing().Equal(spacing) {
		return
	}
	v.geom = v.geom.ChangeSpacing(spacing)
	for _, b := range v.blocks {
		b.img.Regrid(v.geom.Spacing(), v.geom.Origin())
	}
	for i := range v.edited {
		v.edited[i] = v.edited[i].ChangeSpacing(spacing)
	}
	v.touch()
}

// SetOrigin moves the volume in physical space without changing voxel indices.
func (v *Volume[T]) SetOrigin(origin segvol.NmVector3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.geom.Origin().Equal(origin) {
		return
	}
	v.geom = v.geom.WithOrigin(origin)
	for _, b := range v.blocks {
		b.img.Regrid(v.geom.Spacing(), origin)
	}
	for i := range v.edited {
		v.edited[i] = v.edited[i].WithOrigin(origin)
	}
	v.touch()
}

// SetUpdater sets the data that recomputes this volume on request.
func (v *Volume[T]) SetUpdater(u segvol.Updater) {
	v.updaterMu.Lock()
	v.updater = u
	v.updaterMu.Unlock()
}

// Update asks the volume's updater, if any, to bring the volume up to date.
func (v *Volume[T]) Update() error {
	v.updaterMu.Lock()
	u := v.updater
	v.updaterMu.Unlock()
	if u == nil {
		return nil
	}
	return u.Update()
}

// blockExtents returns the voxel extents of a block index.
func (v *Volume[T]) blockExtents(idx segvol.ChunkPoint3d) segvol.Extents3d {
	return idx.Extents(v.blockSize)
}

// blockGeometry returns the bounds of a block index on the volume grid.
func (v *Volume[T]) blockGeometry(idx segvol.ChunkPoint3d) segvol.VolumeBounds {
	return v.geom.WithRegion(v.blockExtents(idx))
}

// editRegion records an edit of the region and advances the timestamp.
func (v *Volume[T]) editRegion(region segvol.Extents3d) {
	v.edited = append(v.edited, v.geom.WithRegion(region))
	v.touch()
}
