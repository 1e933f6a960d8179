package sparsevolume

import (
	"github.com/janelia-flyem/segvol/segvol"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DrawBounds sets every voxel whose centre lies in b to value.
func (v *Volume[T]) DrawBounds(b segvol.Bounds, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawBounds(b, value)
}

// DrawVoxel sets the voxel containing the physical point p to value.
func (v *Volume[T]) DrawVoxel(p segvol.NmVector3, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawBounds(segvol.PointBounds(p), value)
}

// DrawIndex sets the voxel with grid index p to value.  Indices outside the logical bounds
// are ignored.
func (v *Volume[T]) DrawIndex(p segvol.Point3d, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawRegion(v.clip(segvol.Extents3d{MinPoint: p, MaxPoint: p}), value)
}

// DrawImplicit sets to value the voxels within b whose centre is inside the brush, i.e.,
// where the brush's signed distance is not positive.
func (v *Volume[T]) DrawImplicit(brush sdf.SDF3, b segvol.Bounds, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawImplicit(brush, b, value)
}

// DrawImage copies every voxel of img into the volume.  The image must lie on a grid
// compatible with the volume's.
func (v *Volume[T]) DrawImage(img *segvol.Image[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawImageBounds(img, img.Bounds().Bounds())
}

// DrawImageBounds copies the voxels of img whose centres lie in b.
func (v *Volume[T]) DrawImageBounds(img *segvol.Image[T], b segvol.Bounds) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawImageBounds(img, b)
}

// DrawMask sets to value every voxel whose mask bit is set.
func (v *Volume[T]) DrawMask(mask *segvol.BinaryMask, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawMask(mask, value)
}

// clip returns the part of a region, given on the volume grid, that lies within the
// logical bounds.
func (v *Volume[T]) clip(region segvol.Extents3d) segvol.Extents3d {
	if !v.geom.IsValid() {
		return segvol.EmptyExtents3d()
	}
	return region.Intersect(v.geom.Region())
}

// apply runs the shared draw algorithm over region, already clipped to the logical
// bounds.  For each overlapped block, skip reports whether a missing block can be left
// unallocated and paint mutates the block within the given sub-region.  Blocks left
// without foreground are freed.
func (v *Volume[T]) apply(region segvol.Extents3d, skip func(sub segvol.Extents3d) bool, paint func(b *block[T], sub segvol.Extents3d)) {
	if region.Empty() {
		return
	}
	for _, idx := range region.Chunks(v.blockSize) {
		sub := region.Intersect(v.blockExtents(idx))
		if sub.Empty() {
			continue
		}
		b, found := v.blocks[idx]
		if !found {
			if skip(sub) {
				continue
			}
			b = newBlock(v.blockGeometry(idx), v.background)
			v.blocks[idx] = b
		}
		paint(b, sub)
		if b.empty() {
			delete(v.blocks, idx)
		}
	}
	v.editRegion(region)
}

func (v *Volume[T]) drawBounds(b segvol.Bounds, value T) {
	region := v.clip(v.geom.Resolve(b))
	v.drawRegion(region, value)
}

func (v *Volume[T]) drawRegion(region segvol.Extents3d, value T) {
	skip := func(segvol.Extents3d) bool { return value == v.background }
	v.apply(region, skip, func(b *block[T], sub segvol.Extents3d) {
		b.fill(sub, value, v.background)
	})
}

func (v *Volume[T]) drawImplicit(brush sdf.SDF3, b segvol.Bounds, value T) {
	if brush == nil {
		return
	}
	region := v.clip(v.geom.Resolve(b))
	skip := func(segvol.Extents3d) bool { return value == v.background }
	v.apply(region, skip, func(blk *block[T], sub segvol.Extents3d) {
		blk.paint(sub, v.background, func(p segvol.Point3d) (T, bool) {
			c := v.geom.VoxelCenter(p)
			return value, brush.Evaluate(v3.Vec{X: c[0], Y: c[1], Z: c[2]}) <= 0
		})
	})
}

// imageOffset returns the translation from an image's voxel coordinates to the volume
// grid, or false if the image grid is incompatible.
func (v *Volume[T]) imageOffset(geom segvol.VolumeBounds) (segvol.Point3d, bool) {
	if !segvol.IsCompatible(v.geom, geom) {
		segvol.Warningf("Ignoring draw of %s into volume %s: incompatible grids\n", geom, v.geom)
		return segvol.Point3d{}, false
	}
	return v.geom.InGrid(geom).MinPoint.Sub(geom.Region().MinPoint), true
}

func (v *Volume[T]) drawImageBounds(img *segvol.Image[T], b segvol.Bounds) {
	geom := img.Bounds()
	if !geom.IsValid() {
		return
	}
	off, ok := v.imageOffset(geom)
	if !ok {
		return
	}
	region := v.clip(v.geom.Resolve(b).Intersect(v.geom.InGrid(geom)))
	v.drawImage(img, region, off)
}

// drawImage copies img voxels into region, given on the volume grid.  Voxel p of the
// volume takes the image voxel p - off.
func (v *Volume[T]) drawImage(img *segvol.Image[T], region segvol.Extents3d, off segvol.Point3d) {
	neg := segvol.Point3d{-off[0], -off[1], -off[2]}
	skip := func(sub segvol.Extents3d) bool {
		return img.CountNot(sub.Offset(neg), v.background) == 0
	}
	v.apply(region, skip, func(b *block[T], sub segvol.Extents3d) {
		b.paint(sub, v.background, func(p segvol.Point3d) (T, bool) {
			return img.At(p.Sub(off)), true
		})
	})
}

func (v *Volume[T]) drawMask(mask *segvol.BinaryMask, value T) {
	geom := mask.Bounds()
	if !geom.IsValid() {
		return
	}
	off, ok := v.imageOffset(geom)
	if !ok {
		return
	}
	region := v.clip(v.geom.InGrid(geom))
	skip := func(segvol.Extents3d) bool { return value == v.background }
	v.apply(region, skip, func(b *block[T], sub segvol.Extents3d) {
		b.paint(sub, v.background, func(p segvol.Point3d) (T, bool) {
			return value, mask.IsSet(p.Sub(off))
		})
	})
}
