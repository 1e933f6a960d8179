package sparsevolume

import (
	"fmt"

	"github.com/janelia-flyem/segvol/segvol"
)

// Materialize returns a dense image of the voxels whose centres lie in b.  The region
// must be valid and lie within the logical bounds.
func (v *Volume[T]) Materialize(b segvol.Bounds) (*segvol.Image[T], error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.materialize(v.geom.WithRegion(v.geom.Resolve(b)))
}

// MaterializeVolume returns a dense image of a region given on a grid compatible with
// the volume's.
func (v *Volume[T]) MaterializeVolume(vb segvol.VolumeBounds) (*segvol.Image[T], error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !segvol.IsCompatible(v.geom, vb) {
		return nil, fmt.Errorf("materialize %s from volume %s: %w", vb, v.geom, segvol.ErrIncompatibleBounds)
	}
	return v.materialize(v.geom.WithRegion(v.geom.InGrid(vb)))
}

// materialize overlays every allocated block on a background image of the region, given
// on the volume grid.
func (v *Volume[T]) materialize(geom segvol.VolumeBounds) (*segvol.Image[T], error) {
	region := geom.Region()
	if !geom.IsValid() || !v.geom.IsValid() || !v.geom.Region().Contains(region) {
		return nil, fmt.Errorf("materialize %s from volume %s: %w", geom, v.geom, segvol.ErrInvalidRegion)
	}
	img := segvol.NewImage[T](geom, v.background)
	if len(v.blocks) == 0 {
		return img, nil
	}
	for _, idx := range region.Chunks(v.blockSize) {
		if b, found := v.blocks[idx]; found {
			img.CopyFrom(b.img, region)
		}
	}
	return img, nil
}

// Value returns the voxel value at the physical point, or background outside the
// logical bounds.
func (v *Volume[T]) Value(p segvol.NmVector3) T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !segvol.VolumeContainsPoint(v.geom, p) {
		return v.background
	}
	voxel := v.geom.VoxelAt(p)
	b, found := v.blocks[voxel.Chunk(v.blockSize)]
	if !found {
		return v.background
	}
	return b.img.At(voxel)
}

// ContentBounds returns the smallest region holding every non-background voxel.  The
// result is invalid if the volume is empty.
func (v *Volume[T]) ContentBounds() segvol.VolumeBounds {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.contentBounds()
}

func (v *Volume[T]) contentBounds() segvol.VolumeBounds {
	content := segvol.EmptyExtents3d()
	for _, b := range v.blocks {
		content = content.Union(foregroundExtents(b.img, v.background))
	}
	return v.geom.WithRegion(content.Intersect(v.geom.Region()))
}

// foregroundExtents returns the extents of the voxels of img that differ from background.
func foregroundExtents[T segvol.Voxel](img *segvol.Image[T], background T) segvol.Extents3d {
	ext := segvol.EmptyExtents3d()
	region := img.Bounds().Region()
	data := img.Data()
	i := 0
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			for x := region.MinPoint[0]; x <= region.MaxPoint[0]; x++ {
				if data[i] != background {
					p := segvol.Point3d{x, y, z}
					ext = ext.Union(segvol.Extents3d{MinPoint: p, MaxPoint: p})
				}
				i++
			}
		}
	}
	return ext
}
