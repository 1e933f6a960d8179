package sparsevolume

import (
	"fmt"

	"github.com/janelia-flyem/segvol/segvol"
)

// Resize sets the logical bounds.  Blocks outside the new bounds are freed and voxels of
// surviving blocks that fall outside are reset to background.  Invalid bounds are
// ignored.  Resizing does not record an edit.
func (v *Volume[T]) Resize(vb segvol.VolumeBounds) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resize(vb)
}

// ResizeBounds sets the logical bounds to the voxels of the volume grid whose centres
// lie in b.
func (v *Volume[T]) ResizeBounds(b segvol.Bounds) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resize(v.geom.WithRegion(v.geom.Resolve(b)))
}

func (v *Volume[T]) resize(vb segvol.VolumeBounds) {
	if !vb.IsValid() {
		return
	}
	switch {
	case segvol.IsCompatible(v.geom, vb):
		vb = v.geom.WithRegion(v.geom.InGrid(vb))
	case len(v.blocks) > 0:
		segvol.Warningf("Resizing volume %s onto incompatible grid %s drops %d blocks\n", v.geom, vb, len(v.blocks))
		v.blocks = make(map[segvol.ChunkPoint3d]*block[T])
	}
	if v.geom.Equal(vb) {
		return
	}
	v.geom = vb
	keep := vb.Region()
	for idx, b := range v.blocks {
		ext := v.blockExtents(idx)
		switch {
		case keep.Contains(ext):
		case keep.Intersect(ext).Empty():
			delete(v.blocks, idx)
		default:
			b.clearOutside(keep, v.background)
			if b.empty() {
				delete(v.blocks, idx)
			}
		}
	}
	v.touch()
}

// expand grows the logical bounds to hold geom, adopting its grid if the volume has none.
// It returns false if the grids are incompatible.
func (v *Volume[T]) expand(geom segvol.VolumeBounds) bool {
	if !v.geom.IsValid() && len(v.blocks) == 0 {
		if segvol.IsCompatible(v.geom, geom) {
			v.resize(v.geom.WithRegion(v.geom.InGrid(geom)))
		} else {
			v.resize(geom)
		}
		return true
	}
	if !segvol.IsCompatible(v.geom, geom) {
		segvol.Warningf("Can't expand volume %s to hold %s: incompatible grids\n", v.geom, geom)
		return false
	}
	v.resize(segvol.VolumeBoundingBox(v.geom, geom))
	return true
}

// ExpandAndDraw grows the logical bounds to hold the image, then draws it.
func (v *Volume[T]) ExpandAndDraw(img *segvol.Image[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expandAndDraw(img)
}

func (v *Volume[T]) expandAndDraw(img *segvol.Image[T]) {
	if !img.Bounds().IsValid() || !v.expand(img.Bounds()) {
		return
	}
	v.drawImageBounds(img, img.Bounds().Bounds())
}

// ExpandAndDrawMask grows the logical bounds to hold the mask, then draws it.
func (v *Volume[T]) ExpandAndDrawMask(mask *segvol.BinaryMask, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !mask.Bounds().IsValid() || !v.expand(mask.Bounds()) {
		return
	}
	v.drawMask(mask, value)
}

// FitToContents shrinks the logical bounds to the smallest region holding every
// non-background voxel.
func (v *Volume[T]) FitToContents() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	content := v.contentBounds()
	if !content.IsValid() {
		return fmt.Errorf("fit volume %s to contents: %w", v.geom, segvol.ErrInvalidRegion)
	}
	v.resize(content)
	return nil
}
