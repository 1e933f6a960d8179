package segvol

import (
	"fmt"
	"math"
)

// gridTolerance is the fraction of a voxel under which two grid positions are the same.
const gridTolerance = 1e-6

// VolumeBounds is a region of a voxel grid.  The grid is given by a spacing and an
// origin: voxel i along an axis spans [origin + i*spacing, origin + (i+1)*spacing).
// The region is kept as inclusive voxel extents, so physical bounds derived from a
// VolumeBounds are always lower-inclusive and upper-exclusive and aligned to the grid.
type VolumeBounds struct {
	region  Extents3d
	spacing NmVector3
	origin  NmVector3
}

// NewVolumeBounds returns the voxels of the grid given by spacing and origin whose
// centres lie within the given bounds.
func NewVolumeBounds(b Bounds, spacing, origin NmVector3) VolumeBounds {
	vb := VolumeBounds{spacing: spacing, origin: origin}
	if !b.AreValid() || !validSpacing(spacing) {
		vb.region = EmptyExtents3d()
		return vb
	}
	vb.region = ResolveBounds(b, spacing, origin)
	return vb
}

// NewVolumeBoundsFromExtents returns a VolumeBounds for an explicit voxel region.
func NewVolumeBoundsFromExtents(region Extents3d, spacing, origin NmVector3) VolumeBounds {
	return VolumeBounds{region: region, spacing: spacing, origin: origin}
}

func validSpacing(spacing NmVector3) bool {
	for i := 0; i < 3; i++ {
		if !(spacing[i] > 0) || math.IsInf(spacing[i], 0) {
			return false
		}
	}
	return true
}

// ResolveBounds returns the inclusive voxel extents whose voxel centres lie in b.  A
// degenerate interval that includes its single value resolves to the voxel containing it.
func ResolveBounds(b Bounds, spacing, origin NmVector3) Extents3d {
	var ext Extents3d
	for axis := 0; axis < 3; axis++ {
		s, o := spacing[axis], origin[axis]
		lo, hi := b.Min(axis), b.Max(axis)
		if areEqual(lo, hi, s) {
			if !b.LowerIncluded(axis) && !b.UpperIncluded(axis) {
				return EmptyExtents3d()
			}
			v := voxelFloor((lo - o) / s)
			ext.MinPoint[axis] = v
			ext.MaxPoint[axis] = v
			continue
		}
		t := (lo-o)/s - 0.5
		r := math.Round(t)
		if math.Abs(t-r) < gridTolerance {
			ext.MinPoint[axis] = clampInt32(r)
			if !b.LowerIncluded(axis) {
				ext.MinPoint[axis]++
			}
		} else {
			ext.MinPoint[axis] = clampInt32(math.Ceil(t))
		}
		t = (hi-o)/s - 0.5
		r = math.Round(t)
		if math.Abs(t-r) < gridTolerance {
			ext.MaxPoint[axis] = clampInt32(r)
			if !b.UpperIncluded(axis) {
				ext.MaxPoint[axis]--
			}
		} else {
			ext.MaxPoint[axis] = clampInt32(math.Floor(t))
		}
	}
	if ext.Empty() {
		return EmptyExtents3d()
	}
	return ext
}

func voxelFloor(t float64) int32 {
	r := math.Round(t)
	if math.Abs(t-r) < gridTolerance {
		return clampInt32(r)
	}
	return clampInt32(math.Floor(t))
}

func clampInt32(f float64) int32 {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// IsValid returns true if the bounds hold at least one voxel on a well-formed grid.
func (vb VolumeBounds) IsValid() bool {
	return validSpacing(vb.spacing) && !vb.region.Empty()
}

// Region returns the inclusive voxel extents.
func (vb VolumeBounds) Region() Extents3d {
	return vb.region
}

func (vb VolumeBounds) Spacing() NmVector3 {
	return vb.spacing
}

func (vb VolumeBounds) Origin() NmVector3 {
	return vb.origin
}

// Dimensions returns the number of voxels along each axis.
func (vb VolumeBounds) Dimensions() Point3d {
	return vb.region.Size()
}

func (vb VolumeBounds) NumVoxels() int64 {
	return vb.region.NumVoxels()
}

// Bounds returns the physical extents, lower-inclusive and upper-exclusive.
func (vb VolumeBounds) Bounds() Bounds {
	if vb.region.Empty() {
		return Bounds{}
	}
	var b Bounds
	for axis := 0; axis < 3; axis++ {
		b.b[2*axis] = vb.origin[axis] + float64(vb.region.MinPoint[axis])*vb.spacing[axis]
		b.b[2*axis+1] = vb.origin[axis] + float64(vb.region.MaxPoint[axis]+1)*vb.spacing[axis]
		b.lowerIncluded[axis] = true
	}
	return b
}

// At returns the i-th physical extent value, i in [0,6).
func (vb VolumeBounds) At(i int) float64 {
	return vb.Bounds().At(i)
}

// Length returns the physical length along an axis.
func (vb VolumeBounds) Length(axis int) float64 {
	return float64(vb.region.Size()[axis]) * vb.spacing[axis]
}

func (vb VolumeBounds) String() string {
	return fmt.Sprintf("%s spacing %s origin %s", vb.Bounds(), vb.spacing, vb.origin)
}

// Equal returns true if both bounds cover the same voxels of the same grid.
func (vb VolumeBounds) Equal(vb2 VolumeBounds) bool {
	if vb.region.Empty() && vb2.region.Empty() {
		return vb.spacing.Equal(vb2.spacing)
	}
	return vb.region == vb2.region && vb.spacing.Equal(vb2.spacing) && vb.origin.Equal(vb2.origin)
}

// VoxelAt returns the voxel containing the physical point.
func (vb VolumeBounds) VoxelAt(p NmVector3) Point3d {
	var v Point3d
	for axis := 0; axis < 3; axis++ {
		v[axis] = voxelFloor((p[axis] - vb.origin[axis]) / vb.spacing[axis])
	}
	return v
}

// VoxelCenter returns the physical centre of a voxel of the grid.
func (vb VolumeBounds) VoxelCenter(v Point3d) NmVector3 {
	var c NmVector3
	for axis := 0; axis < 3; axis++ {
		c[axis] = vb.origin[axis] + (float64(v[axis])+0.5)*vb.spacing[axis]
	}
	return c
}

// VoxelBounds returns the physical bounds of a voxel region of the grid.
func (vb VolumeBounds) VoxelBounds(region Extents3d) Bounds {
	return vb.WithRegion(region).Bounds()
}

// Resolve returns the voxels of this grid whose centres lie in b.
func (vb VolumeBounds) Resolve(b Bounds) Extents3d {
	if !b.AreValid() {
		return EmptyExtents3d()
	}
	return ResolveBounds(b, vb.spacing, vb.origin)
}

// WithRegion returns bounds on the same grid over another voxel region.
func (vb VolumeBounds) WithRegion(region Extents3d) VolumeBounds {
	return VolumeBounds{region: region, spacing: vb.spacing, origin: vb.origin}
}

// WithOrigin returns the same voxel region with a different origin.
func (vb VolumeBounds) WithOrigin(origin NmVector3) VolumeBounds {
	return VolumeBounds{region: vb.region, spacing: vb.spacing, origin: origin}
}

// ChangeSpacing returns the same voxel region on a grid with the new spacing, the origin
// rescaled in proportion.
func (vb VolumeBounds) ChangeSpacing(spacing NmVector3) VolumeBounds {
	res := VolumeBounds{region: vb.region, spacing: spacing}
	for axis := 0; axis < 3; axis++ {
		if vb.spacing[axis] != 0 {
			res.origin[axis] = vb.origin[axis] / vb.spacing[axis] * spacing[axis]
		}
	}
	return res
}

// gridOffset returns the voxel offset that maps grid positions of vb2 onto vb's grid.
func (vb VolumeBounds) gridOffset(vb2 VolumeBounds) Point3d {
	var off Point3d
	for axis := 0; axis < 3; axis++ {
		off[axis] = clampInt32(math.Round((vb2.origin[axis] - vb.origin[axis]) / vb.spacing[axis]))
	}
	return off
}

// InGrid returns vb2's voxel region expressed in the voxel coordinates of vb's grid.
// The grids must be compatible.
func (vb VolumeBounds) InGrid(vb2 VolumeBounds) Extents3d {
	if vb2.region.Empty() {
		return EmptyExtents3d()
	}
	return vb2.region.Offset(vb.gridOffset(vb2))
}

// IsCompatible returns true if both bounds use the same spacing and their grids are
// congruent, i.e., the origins differ by a whole number of voxels.
func IsCompatible(vb1, vb2 VolumeBounds) bool {
	if !vb1.spacing.Equal(vb2.spacing) || !validSpacing(vb1.spacing) {
		return false
	}
	for axis := 0; axis < 3; axis++ {
		delta := (vb2.origin[axis] - vb1.origin[axis]) / vb1.spacing[axis]
		if math.Abs(delta-math.Round(delta)) > gridTolerance {
			return false
		}
	}
	return true
}

// IsEquivalent returns true if both bounds resolve to the same physical voxel region,
// regardless of the origin used to index it.
func IsEquivalent(vb1, vb2 VolumeBounds) bool {
	if !IsCompatible(vb1, vb2) {
		return false
	}
	return vb1.region == vb1.InGrid(vb2) || (vb1.region.Empty() && vb2.region.Empty())
}

// IntersectVolumes returns true if both bounds are compatible and share a voxel.
func IntersectVolumes(vb1, vb2 VolumeBounds) bool {
	if !vb1.IsValid() || !vb2.IsValid() || !IsCompatible(vb1, vb2) {
		return false
	}
	return !vb1.region.Intersect(vb1.InGrid(vb2)).Empty()
}

// VolumeIntersection returns the voxels common to both bounds on vb1's grid.  The result
// is invalid if the bounds are incompatible or disjoint.
func VolumeIntersection(vb1, vb2 VolumeBounds) VolumeBounds {
	if !IsCompatible(vb1, vb2) {
		return VolumeBounds{region: EmptyExtents3d(), spacing: vb1.spacing, origin: vb1.origin}
	}
	return vb1.WithRegion(vb1.region.Intersect(vb1.InGrid(vb2)))
}

// VolumeBoundingBox returns the smallest region of vb1's grid holding both bounds.  An
// invalid argument is ignored; incompatible bounds give an invalid result.
func VolumeBoundingBox(vb1, vb2 VolumeBounds) VolumeBounds {
	switch {
	case !vb1.IsValid():
		return vb2
	case !vb2.IsValid():
		return vb1
	case !IsCompatible(vb1, vb2):
		return VolumeBounds{region: EmptyExtents3d(), spacing: vb1.spacing, origin: vb1.origin}
	}
	return vb1.WithRegion(vb1.region.Union(vb1.InGrid(vb2)))
}

// VolumeContains returns true if every voxel of contained lies within container.
func VolumeContains(container, contained VolumeBounds) bool {
	if !IsCompatible(container, contained) {
		return false
	}
	return container.region.Contains(container.InGrid(contained))
}

// VolumeContainsPoint returns true if the physical point lies within the voxels of vb.
func VolumeContainsPoint(vb VolumeBounds, p NmVector3) bool {
	if !vb.IsValid() {
		return false
	}
	return vb.region.ContainsPoint(vb.VoxelAt(p))
}
