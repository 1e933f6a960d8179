package segvol

import (
	"fmt"
	"math"
)

// Point3d is a voxel coordinate: an ordered list of three 32-bit signed integers.
type Point3d [3]int32

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	if p[0] > p2[0] {
		p[0] = p2[0]
	}
	if p[1] > p2[1] {
		p[1] = p2[1]
	}
	if p[2] > p2[2] {
		p[2] = p2[2]
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	if p[0] < p2[0] {
		p[0] = p2[0]
	}
	if p[1] < p2[1] {
		p[1] = p2[1]
	}
	if p[2] < p2[2] {
		p[2] = p2[2]
	}
}

func (p Point3d) Add(x Point3d) Point3d {
	return Point3d{p[0] + x[0], p[1] + x[1], p[2] + x[2]}
}

func (p Point3d) Sub(x Point3d) Point3d {
	return Point3d{p[0] - x[0], p[1] - x[1], p[2] - x[2]}
}

func (p Point3d) AddScalar(value int32) Point3d {
	return Point3d{p[0] + value, p[1] + value, p[2] + value}
}

func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Chunk returns the chunk space coordinate of the chunk containing the point
// for cubic chunks of the given edge length.
func (p Point3d) Chunk(size int32) ChunkPoint3d {
	var c ChunkPoint3d
	for i := 0; i < 3; i++ {
		if p[i] < 0 {
			c[i] = (p[i] - size + 1) / size
		} else {
			c[i] = p[i] / size
		}
	}
	return c
}

// PointInChunk returns the offset of the point within its containing chunk.
func (p Point3d) PointInChunk(size int32) Point3d {
	var q Point3d
	for i := 0; i < 3; i++ {
		if p[i] < 0 {
			q[i] = size - ((p[i] + 1) % size) - 1
		} else {
			q[i] = p[i] % size
		}
	}
	return q
}

// ChunkPoint3d handles 3d signed chunk coordinates, i.e., block indices.
type ChunkPoint3d [3]int32

var (
	MaxChunkPoint3d = ChunkPoint3d{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	MinChunkPoint3d = ChunkPoint3d{math.MinInt32, math.MinInt32, math.MinInt32}
)

func (c ChunkPoint3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// Less orders chunk coordinates in ZYX order so block lists have a stable order.
func (c ChunkPoint3d) Less(c2 ChunkPoint3d) bool {
	if c[2] != c2[2] {
		return c[2] < c2[2]
	}
	if c[1] != c2[1] {
		return c[1] < c2[1]
	}
	return c[0] < c2[0]
}

// MinPoint returns the smallest voxel coordinate of the chunk.
func (c ChunkPoint3d) MinPoint(size int32) Point3d {
	return Point3d{c[0] * size, c[1] * size, c[2] * size}
}

// MaxPoint returns the maximum voxel coordinate of the chunk.
func (c ChunkPoint3d) MaxPoint(size int32) Point3d {
	return Point3d{
		(c[0]+1)*size - 1,
		(c[1]+1)*size - 1,
		(c[2]+1)*size - 1,
	}
}

// Extents returns the voxel extents covered by the chunk.
func (c ChunkPoint3d) Extents(size int32) Extents3d {
	return Extents3d{MinPoint: c.MinPoint(size), MaxPoint: c.MaxPoint(size)}
}

// NmVector3 is a physical (nanometer) 3-vector used for spacing, origin and positions.
type NmVector3 [3]float64

func (v NmVector3) String() string {
	return fmt.Sprintf("(%g,%g,%g)", v[0], v[1], v[2])
}

// Equal returns true if each component differs by less than a relative tolerance.
func (v NmVector3) Equal(v2 NmVector3) bool {
	for i := 0; i < 3; i++ {
		if !areEqual(v[i], v2[i], 0) {
			return false
		}
	}
	return true
}

// Div returns the component-wise quotient.
func (v NmVector3) Div(v2 NmVector3) NmVector3 {
	return NmVector3{v[0] / v2[0], v[1] / v2[1], v[2] / v2[2]}
}

// Mul returns the component-wise product.
func (v NmVector3) Mul(v2 NmVector3) NmVector3 {
	return NmVector3{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2]}
}

// Extents3d is an inclusive box of voxel coordinates.  An Extents3d with any
// MaxPoint element less than the MinPoint element is empty.
type Extents3d struct {
	MinPoint Point3d
	MaxPoint Point3d
}

// EmptyExtents3d returns an extents that contains no voxel.
func EmptyExtents3d() Extents3d {
	return Extents3d{MinPoint: Point3d{0, 0, 0}, MaxPoint: Point3d{-1, -1, -1}}
}

func (ext Extents3d) String() string {
	return fmt.Sprintf("%s -> %s", ext.MinPoint, ext.MaxPoint)
}

// Empty returns true if the extents hold no voxel.
func (ext Extents3d) Empty() bool {
	return ext.MaxPoint[0] < ext.MinPoint[0] ||
		ext.MaxPoint[1] < ext.MinPoint[1] ||
		ext.MaxPoint[2] < ext.MinPoint[2]
}

// Size returns the number of voxels along each axis.
func (ext Extents3d) Size() Point3d {
	if ext.Empty() {
		return Point3d{}
	}
	return ext.MaxPoint.Sub(ext.MinPoint).AddScalar(1)
}

// NumVoxels returns the number of voxels within the extents.
func (ext Extents3d) NumVoxels() int64 {
	return ext.Size().Prod()
}

// ContainsPoint returns true if the voxel lies within the extents.
func (ext Extents3d) ContainsPoint(p Point3d) bool {
	for i := 0; i < 3; i++ {
		if p[i] < ext.MinPoint[i] || p[i] > ext.MaxPoint[i] {
			return false
		}
	}
	return true
}

// Contains returns true if every voxel of ext2 lies within ext.  Empty extents
// are contained by anything.
func (ext Extents3d) Contains(ext2 Extents3d) bool {
	if ext2.Empty() {
		return true
	}
	return ext.ContainsPoint(ext2.MinPoint) && ext.ContainsPoint(ext2.MaxPoint)
}

// Intersect returns the voxels common to both extents, which may be empty.
func (ext Extents3d) Intersect(ext2 Extents3d) Extents3d {
	var result Extents3d
	for i := 0; i < 3; i++ {
		result.MinPoint[i] = max(ext.MinPoint[i], ext2.MinPoint[i])
		result.MaxPoint[i] = min(ext.MaxPoint[i], ext2.MaxPoint[i])
	}
	if result.Empty() {
		return EmptyExtents3d()
	}
	return result
}

// Union returns the smallest extents holding both extents.
func (ext Extents3d) Union(ext2 Extents3d) Extents3d {
	switch {
	case ext.Empty():
		return ext2
	case ext2.Empty():
		return ext
	}
	result := ext
	result.MinPoint.SetMinimum(ext2.MinPoint)
	result.MaxPoint.SetMaximum(ext2.MaxPoint)
	return result
}

// Offset returns the extents translated by the given voxel offset.
func (ext Extents3d) Offset(p Point3d) Extents3d {
	return Extents3d{MinPoint: ext.MinPoint.Add(p), MaxPoint: ext.MaxPoint.Add(p)}
}

// Chunks returns the coordinates of every cubic chunk of the given edge length that
// intersects the extents, in ZYX order.
func (ext Extents3d) Chunks(size int32) []ChunkPoint3d {
	if ext.Empty() {
		return nil
	}
	begChunk := ext.MinPoint.Chunk(size)
	endChunk := ext.MaxPoint.Chunk(size)
	n := int64(endChunk[0]-begChunk[0]+1) * int64(endChunk[1]-begChunk[1]+1) * int64(endChunk[2]-begChunk[2]+1)
	chunks := make([]ChunkPoint3d, 0, n)
	for z := begChunk[2]; z <= endChunk[2]; z++ {
		for y := begChunk[1]; y <= endChunk[1]; y++ {
			for x := begChunk[0]; x <= endChunk[0]; x++ {
				chunks = append(chunks, ChunkPoint3d{x, y, z})
			}
		}
	}
	return chunks
}

// BlockAligned returns true if the extents are exactly one chunk of the given size.
func (ext Extents3d) BlockAligned(size int32) bool {
	if ext.Size() != (Point3d{size, size, size}) {
		return false
	}
	for i := 0; i < 3; i++ {
		if ext.MinPoint[i]%size != 0 {
			return false
		}
	}
	return true
}
