package sparsevolume

import (
	"github.com/janelia-flyem/segvol/segvol"
)

// block is one allocated cell of a volume's block grid.  It tracks how many of its
// voxels differ from the background so an emptied block can be freed without a scan.
type block[T segvol.Voxel] struct {
	img        *segvol.Image[T]
	foreground int64
}

func newBlock[T segvol.Voxel](geom segvol.VolumeBounds, background T) *block[T] {
	return &block[T]{img: segvol.NewImage[T](geom, background)}
}

// blockFromImage adopts a block-sized image, counting its foreground voxels.
func blockFromImage[T segvol.Voxel](img *segvol.Image[T], background T) *block[T] {
	b := &block[T]{img: img}
	b.foreground = img.CountNot(img.Bounds().Region(), background)
	return b
}

func (b *block[T]) empty() bool {
	return b.foreground == 0
}

// set writes one voxel given by its offset into the block data.
func (b *block[T]) set(i int, value, background T) {
	data := b.img.Data()
	old := data[i]
	if old == value {
		return
	}
	switch {
	case old == background:
		b.foreground++
	case value == background:
		b.foreground--
	}
	data[i] = value
}

// fill sets every voxel of region, which must lie within the block.
func (b *block[T]) fill(region segvol.Extents3d, value, background T) {
	n := int(region.MaxPoint[0] - region.MinPoint[0] + 1)
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			i := b.img.Offset(segvol.Point3d{region.MinPoint[0], y, z})
			for x := 0; x < n; x++ {
				b.set(i+x, value, background)
			}
		}
	}
}

// paint visits every voxel of region, which must lie within the block, writing the
// value returned by f when f reports it should be written.
func (b *block[T]) paint(region segvol.Extents3d, background T, f func(p segvol.Point3d) (T, bool)) {
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			p := segvol.Point3d{region.MinPoint[0], y, z}
			i := b.img.Offset(p)
			for x := region.MinPoint[0]; x <= region.MaxPoint[0]; x++ {
				p[0] = x
				if value, ok := f(p); ok {
					b.set(i, value, background)
				}
				i++
			}
		}
	}
}

// clearOutside resets to background every voxel of the block outside keep.
func (b *block[T]) clearOutside(keep segvol.Extents3d, background T) {
	ext := b.img.Bounds().Region()
	if keep.Contains(ext) {
		return
	}
	b.paint(ext, background, func(p segvol.Point3d) (T, bool) {
		return background, !keep.ContainsPoint(p)
	})
}
