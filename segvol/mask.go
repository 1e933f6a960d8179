package segvol

import "math/bits"

// BinaryMask is a packed bit array over a VolumeBounds.  Set bits mark the voxels a
// mask draw will write.
type BinaryMask struct {
	geom VolumeBounds
	size Point3d
	bits []uint64
}

// NewBinaryMask returns a mask covering the bounds with every bit cleared.
func NewBinaryMask(geom VolumeBounds) *BinaryMask {
	n := geom.NumVoxels()
	return &BinaryMask{
		geom: geom,
		size: geom.Dimensions(),
		bits: make([]uint64, (n+63)/64),
	}
}

// NewBinaryMaskFromImage returns a mask with bits set wherever the image holds value.
func NewBinaryMaskFromImage[T Voxel](img *Image[T], value T) *BinaryMask {
	m := NewBinaryMask(img.Bounds())
	for i, v := range img.Data() {
		if v == value {
			m.bits[i>>6] |= 1 << (uint(i) & 63)
		}
	}
	return m
}

func (m *BinaryMask) Bounds() VolumeBounds {
	return m.geom
}

func (m *BinaryMask) offset(p Point3d) int {
	lo := m.geom.region.MinPoint
	return int(p[0]-lo[0]) + int(m.size[0])*(int(p[1]-lo[1])+int(m.size[1])*int(p[2]-lo[2]))
}

// IsSet returns true if the bit of the voxel is set.  Voxels outside the mask are unset.
func (m *BinaryMask) IsSet(p Point3d) bool {
	if !m.geom.region.ContainsPoint(p) {
		return false
	}
	i := m.offset(p)
	return m.bits[i>>6]&(1<<(uint(i)&63)) != 0
}

// Set sets or clears the bit of a voxel within the mask.
func (m *BinaryMask) Set(p Point3d, on bool) {
	if !m.geom.region.ContainsPoint(p) {
		return
	}
	i := m.offset(p)
	if on {
		m.bits[i>>6] |= 1 << (uint(i) & 63)
	} else {
		m.bits[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// Count returns the number of set bits.
func (m *BinaryMask) Count() int64 {
	var n int
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return int64(n)
}
