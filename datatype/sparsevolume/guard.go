package sparsevolume

import (
	"sync"

	"github.com/janelia-flyem/segvol/segvol"

	"github.com/deadsy/sdfx/sdf"
)

// ReadGuard holds a volume's shared lock until End is called.  Readers holding a guard
// see a consistent volume across several calls.
type ReadGuard[T segvol.Voxel] struct {
	v    *Volume[T]
	once sync.Once
}

// BeginRead acquires the volume's shared lock.
func (v *Volume[T]) BeginRead() *ReadGuard[T] {
	v.mu.RLock()
	return &ReadGuard[T]{v: v}
}

// End releases the lock.  Calling End more than once has no effect.
func (g *ReadGuard[T]) End() {
	g.once.Do(g.v.mu.RUnlock)
}

func (g *ReadGuard[T]) Bounds() segvol.VolumeBounds {
	return g.v.geom
}

func (g *ReadGuard[T]) IsValid() bool {
	return g.v.geom.IsValid()
}

func (g *ReadGuard[T]) BlockCount() int {
	return len(g.v.blocks)
}

func (g *ReadGuard[T]) LastModified() segvol.Timestamp {
	return g.v.LastModified()
}

func (g *ReadGuard[T]) Materialize(b segvol.Bounds) (*segvol.Image[T], error) {
	return g.v.materialize(g.v.geom.WithRegion(g.v.geom.Resolve(b)))
}

// MaterializeAll returns a dense image of the whole logical region.
func (g *ReadGuard[T]) MaterializeAll() (*segvol.Image[T], error) {
	return g.v.materialize(g.v.geom)
}

// WriteGuard holds a volume's exclusive lock until End is called, so a caller can resize
// and draw as one step.
type WriteGuard[T segvol.Voxel] struct {
	v    *Volume[T]
	once sync.Once
}

// BeginWrite acquires the volume's exclusive lock.
func (v *Volume[T]) BeginWrite() *WriteGuard[T] {
	v.mu.Lock()
	return &WriteGuard[T]{v: v}
}

// End releases the lock.  Calling End more than once has no effect.
func (g *WriteGuard[T]) End() {
	g.once.Do(g.v.mu.Unlock)
}

func (g *WriteGuard[T]) Bounds() segvol.VolumeBounds {
	return g.v.geom
}

func (g *WriteGuard[T]) Materialize(b segvol.Bounds) (*segvol.Image[T], error) {
	return g.v.materialize(g.v.geom.WithRegion(g.v.geom.Resolve(b)))
}

func (g *WriteGuard[T]) Resize(vb segvol.VolumeBounds) {
	g.v.resize(vb)
}

func (g *WriteGuard[T]) ResizeBounds(b segvol.Bounds) {
	g.v.resize(g.v.geom.WithRegion(g.v.geom.Resolve(b)))
}

func (g *WriteGuard[T]) DrawBounds(b segvol.Bounds, value T) {
	g.v.drawBounds(b, value)
}

func (g *WriteGuard[T]) DrawVoxel(p segvol.NmVector3, value T) {
	g.v.drawBounds(segvol.PointBounds(p), value)
}

func (g *WriteGuard[T]) DrawImplicit(brush sdf.SDF3, b segvol.Bounds, value T) {
	g.v.drawImplicit(brush, b, value)
}

func (g *WriteGuard[T]) DrawImage(img *segvol.Image[T]) {
	g.v.drawImageBounds(img, img.Bounds().Bounds())
}

func (g *WriteGuard[T]) DrawImageBounds(img *segvol.Image[T], b segvol.Bounds) {
	g.v.drawImageBounds(img, b)
}

func (g *WriteGuard[T]) DrawMask(mask *segvol.BinaryMask, value T) {
	g.v.drawMask(mask, value)
}

func (g *WriteGuard[T]) ExpandAndDraw(img *segvol.Image[T]) {
	g.v.expandAndDraw(img)
}
