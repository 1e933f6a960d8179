package segvol

import (
	"encoding/binary"
	"fmt"
)

// Voxel is the set of scalar types a segmentation voxel can hold.
type Voxel interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SegVoxelValue is the foreground value of a binary uint8 segmentation.
const SegVoxelValue uint8 = 255

// VoxelSize returns the number of bytes of a voxel of type T.
func VoxelSize[T Voxel]() int {
	switch uint64(^T(0)) {
	case 0xFF:
		return 1
	case 0xFFFF:
		return 2
	case 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// ElementType returns the MetaImage element type name of voxel type T.
func ElementType[T Voxel]() string {
	switch VoxelSize[T]() {
	case 1:
		return "MET_UCHAR"
	case 2:
		return "MET_USHORT"
	case 4:
		return "MET_UINT"
	default:
		return "MET_ULONG_LONG"
	}
}

// ElementTypeSize returns the byte size of a MetaImage element type name or 0 if unknown.
func ElementTypeSize(name string) int {
	switch name {
	case "MET_UCHAR", "MET_CHAR":
		return 1
	case "MET_USHORT", "MET_SHORT":
		return 2
	case "MET_UINT", "MET_INT":
		return 4
	case "MET_ULONG_LONG", "MET_LONG_LONG":
		return 8
	default:
		return 0
	}
}

// Image is a dense voxel array over a VolumeBounds, stored with x varying fastest.
type Image[T Voxel] struct {
	geom VolumeBounds
	size Point3d
	data []T
}

// NewImage returns an image covering the bounds with every voxel set to fill.
func NewImage[T Voxel](geom VolumeBounds, fill T) *Image[T] {
	img := &Image[T]{geom: geom, size: geom.Dimensions()}
	img.data = make([]T, geom.NumVoxels())
	if fill != 0 {
		for i := range img.data {
			img.data[i] = fill
		}
	}
	return img
}

// NewImageFromData wraps voxel data, which must hold exactly the voxels of the bounds.
func NewImageFromData[T Voxel](geom VolumeBounds, data []T) (*Image[T], error) {
	if int64(len(data)) != geom.NumVoxels() {
		return nil, fmt.Errorf("image data has %d voxels, bounds %s need %d", len(data), geom, geom.NumVoxels())
	}
	return &Image[T]{geom: geom, size: geom.Dimensions(), data: data}, nil
}

// Bounds returns the voxel region and grid of the image.
func (img *Image[T]) Bounds() VolumeBounds {
	return img.geom
}

// Regrid moves the image onto a grid with another spacing and origin, keeping its
// voxel region and data.
func (img *Image[T]) Regrid(spacing, origin NmVector3) {
	img.geom = NewVolumeBoundsFromExtents(img.geom.region, spacing, origin)
}

// Size returns the image dimensions in voxels.
func (img *Image[T]) Size() Point3d {
	return img.size
}

// Data returns the underlying voxel slice.
func (img *Image[T]) Data() []T {
	return img.data
}

// Offset returns the index into Data of a voxel given in grid coordinates.
func (img *Image[T]) Offset(p Point3d) int {
	lo := img.geom.region.MinPoint
	return int(p[0]-lo[0]) + int(img.size[0])*(int(p[1]-lo[1])+int(img.size[1])*int(p[2]-lo[2]))
}

// At returns the voxel at the grid coordinate, which must be within the image.
func (img *Image[T]) At(p Point3d) T {
	return img.data[img.Offset(p)]
}

// Set sets the voxel at the grid coordinate, which must be within the image.
func (img *Image[T]) Set(p Point3d, value T) {
	img.data[img.Offset(p)] = value
}

// Fill sets every voxel within the region to the value.
func (img *Image[T]) Fill(region Extents3d, value T) {
	region = region.Intersect(img.geom.region)
	if region.Empty() {
		return
	}
	n := int(region.MaxPoint[0] - region.MinPoint[0] + 1)
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			i := img.Offset(Point3d{region.MinPoint[0], y, z})
			row := img.data[i : i+n]
			for x := range row {
				row[x] = value
			}
		}
	}
}

// CopyFrom copies the voxels of src lying within both images and the given region.
// Both images must be indexed on the same grid.
func (img *Image[T]) CopyFrom(src *Image[T], region Extents3d) {
	region = region.Intersect(img.geom.region).Intersect(src.geom.region)
	if region.Empty() {
		return
	}
	n := int(region.MaxPoint[0] - region.MinPoint[0] + 1)
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			p := Point3d{region.MinPoint[0], y, z}
			di := img.Offset(p)
			si := src.Offset(p)
			copy(img.data[di:di+n], src.data[si:si+n])
		}
	}
}

// SubImage returns a copy of the image voxels within region.
func (img *Image[T]) SubImage(region Extents3d) *Image[T] {
	sub := NewImage[T](img.geom.WithRegion(region.Intersect(img.geom.region)), 0)
	sub.CopyFrom(img, sub.geom.region)
	return sub
}

// Pad returns a copy of the image grown by n voxels set to value on every face.
func (img *Image[T]) Pad(n int32, value T) *Image[T] {
	region := img.geom.region
	region.MinPoint = region.MinPoint.AddScalar(-n)
	region.MaxPoint = region.MaxPoint.AddScalar(n)
	padded := NewImage[T](img.geom.WithRegion(region), value)
	padded.CopyFrom(img, img.geom.region)
	return padded
}

// CountNot returns the number of voxels within region whose value differs from value.
func (img *Image[T]) CountNot(region Extents3d, value T) int64 {
	region = region.Intersect(img.geom.region)
	if region.Empty() {
		return 0
	}
	var count int64
	n := int(region.MaxPoint[0] - region.MinPoint[0] + 1)
	for z := region.MinPoint[2]; z <= region.MaxPoint[2]; z++ {
		for y := region.MinPoint[1]; y <= region.MaxPoint[1]; y++ {
			i := img.Offset(Point3d{region.MinPoint[0], y, z})
			for _, v := range img.data[i : i+n] {
				if v != value {
					count++
				}
			}
		}
	}
	return count
}

// Uniform returns true if every voxel equals value.
func (img *Image[T]) Uniform(value T) bool {
	for _, v := range img.data {
		if v != value {
			return false
		}
	}
	return true
}

// Equal returns true if both images cover the same grid region with the same voxels.
func (img *Image[T]) Equal(img2 *Image[T]) bool {
	if !img.geom.Equal(img2.geom) || len(img.data) != len(img2.data) {
		return false
	}
	for i := range img.data {
		if img.data[i] != img2.data[i] {
			return false
		}
	}
	return true
}

// Bytes returns the voxel data as little-endian bytes.
func (img *Image[T]) Bytes() []byte {
	return EncodeVoxels(img.data)
}

// EncodeVoxels returns voxels as little-endian bytes.
func EncodeVoxels[T Voxel](data []T) []byte {
	size := VoxelSize[T]()
	if size == 1 {
		buf := make([]byte, len(data))
		for i, v := range data {
			buf[i] = byte(v)
		}
		return buf
	}
	buf := make([]byte, len(data)*size)
	for i, v := range data {
		switch size {
		case 2:
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		default:
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
	}
	return buf
}

// DecodeVoxels converts little-endian bytes written by EncodeVoxels back into voxels.
func DecodeVoxels[T Voxel](buf []byte) ([]T, error) {
	size := VoxelSize[T]()
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("voxel payload of %d bytes is not a multiple of voxel size %d", len(buf), size)
	}
	data := make([]T, len(buf)/size)
	for i := range data {
		switch size {
		case 1:
			data[i] = T(buf[i])
		case 2:
			data[i] = T(binary.LittleEndian.Uint16(buf[i*2:]))
		case 4:
			data[i] = T(binary.LittleEndian.Uint32(buf[i*4:]))
		default:
			data[i] = T(binary.LittleEndian.Uint64(buf[i*8:]))
		}
	}
	return data, nil
}
