package segvol

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestVoxelTypes(c *C) {
	c.Assert(VoxelSize[uint8](), Equals, 1)
	c.Assert(VoxelSize[uint16](), Equals, 2)
	c.Assert(VoxelSize[uint32](), Equals, 4)
	c.Assert(VoxelSize[uint64](), Equals, 8)
	c.Assert(ElementType[uint8](), Equals, "MET_UCHAR")
	c.Assert(ElementType[uint64](), Equals, "MET_ULONG_LONG")
	c.Assert(ElementTypeSize("MET_USHORT"), Equals, 2)
	c.Assert(ElementTypeSize("MET_FLOAT"), Equals, 0)
}

func (s *DataSuite) TestImage(c *C) {
	geom := NewVolumeBoundsFromExtents(extents(-2, 0, 5, 7, 9, 14), unitSpacing, NmVector3{0, 0, 0})
	img := NewImage[uint16](geom, 7)
	c.Assert(img.Size(), Equals, Point3d{10, 10, 10})
	c.Assert(img.Data(), HasLen, 1000)
	c.Assert(img.Uniform(7), Equals, true)

	img.Set(Point3d{-2, 0, 5}, 1)
	img.Set(Point3d{7, 9, 14}, 2)
	c.Assert(img.At(Point3d{-2, 0, 5}), Equals, uint16(1))
	c.Assert(img.Data()[0], Equals, uint16(1))
	c.Assert(img.Data()[999], Equals, uint16(2))
	c.Assert(img.CountNot(geom.Region(), 7), Equals, int64(2))

	img.Fill(extents(0, 0, 5, 1, 1, 5), 9)
	c.Assert(img.CountNot(geom.Region(), 7), Equals, int64(6))

	sub := img.SubImage(extents(-10, -10, -10, 0, 0, 5))
	c.Assert(sub.Bounds().Region(), Equals, extents(-2, 0, 5, 0, 0, 5))
	c.Assert(sub.Data(), DeepEquals, []uint16{1, 7, 9})

	padded := img.Pad(1, 0)
	c.Assert(padded.Size(), Equals, Point3d{12, 12, 12})
	c.Assert(padded.At(Point3d{-3, -1, 4}), Equals, uint16(0))
	c.Assert(padded.At(Point3d{-2, 0, 5}), Equals, uint16(1))
	c.Assert(padded.CountNot(padded.Bounds().Region(), 0), Equals, int64(1000))

	copied := NewImage[uint16](geom, 0)
	copied.CopyFrom(img, geom.Region())
	c.Assert(copied.Equal(img), Equals, true)
	copied.Set(Point3d{3, 3, 10}, 100)
	c.Assert(copied.Equal(img), Equals, false)

	_, err := NewImageFromData(geom, []uint16{1, 2, 3})
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestVoxelEncoding(c *C) {
	data16 := []uint16{0, 1, 0xABCD, 0xFFFF}
	buf := EncodeVoxels(data16)
	c.Assert(buf, DeepEquals, []byte{0, 0, 1, 0, 0xCD, 0xAB, 0xFF, 0xFF})
	decoded, err := DecodeVoxels[uint16](buf)
	c.Assert(err, IsNil)
	c.Assert(decoded, DeepEquals, data16)

	data64 := []uint64{1 << 40, 3}
	decoded64, err := DecodeVoxels[uint64](EncodeVoxels(data64))
	c.Assert(err, IsNil)
	c.Assert(decoded64, DeepEquals, data64)

	_, err = DecodeVoxels[uint32]([]byte{1, 2, 3})
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestBinaryMask(c *C) {
	geom := NewVolumeBoundsFromExtents(extents(0, 0, 0, 9, 9, 9), unitSpacing, NmVector3{0, 0, 0})
	m := NewBinaryMask(geom)
	c.Assert(m.Count(), Equals, int64(0))
	m.Set(Point3d{1, 2, 3}, true)
	m.Set(Point3d{9, 9, 9}, true)
	m.Set(Point3d{10, 9, 9}, true)
	c.Assert(m.Count(), Equals, int64(2))
	c.Assert(m.IsSet(Point3d{1, 2, 3}), Equals, true)
	c.Assert(m.IsSet(Point3d{10, 9, 9}), Equals, false)
	m.Set(Point3d{1, 2, 3}, false)
	c.Assert(m.IsSet(Point3d{1, 2, 3}), Equals, false)

	img := NewImage[uint8](geom, 0)
	img.Fill(extents(0, 0, 0, 1, 1, 1), SegVoxelValue)
	fromImg := NewBinaryMaskFromImage(img, SegVoxelValue)
	c.Assert(fromImg.Count(), Equals, int64(8))
	c.Assert(fromImg.IsSet(Point3d{1, 1, 1}), Equals, true)
	c.Assert(fromImg.IsSet(Point3d{2, 1, 1}), Equals, false)
}
