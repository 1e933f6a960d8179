package segvol

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func extents(x0, y0, z0, x1, y1, z1 int32) Extents3d {
	return Extents3d{Point3d{x0, y0, z0}, Point3d{x1, y1, z1}}
}

func (s *DataSuite) TestVolumeBoundsResolution(c *C) {
	origin := NmVector3{0, 0, 0}
	vb := NewVolumeBounds(NewBounds(0, 20, 0, 20, 0, 20), unitSpacing, origin)
	c.Assert(vb.IsValid(), Equals, true)
	c.Assert(vb.Region(), Equals, extents(0, 0, 0, 19, 19, 19))
	c.Assert(vb.Bounds().Equal(NewBounds(0, 20, 0, 20, 0, 20)), Equals, true)
	c.Assert(vb.NumVoxels(), Equals, int64(8000))

	// Voxels are selected by their centres.
	vb = NewVolumeBounds(NewBounds(0.2, 3.7, 0, 1, 0, 1), unitSpacing, origin)
	c.Assert(vb.Region(), Equals, extents(0, 0, 0, 3, 0, 0))
	c.Assert(vb.Bounds().Equal(NewBounds(0, 4, 0, 1, 0, 1)), Equals, true)

	// A centre lying on a boundary follows the inclusion flags.
	vb = NewVolumeBounds(NewBounds(0.5, 2.5, 0, 1, 0, 1), unitSpacing, origin)
	c.Assert(vb.Region(), Equals, extents(0, 0, 0, 1, 0, 0))
	vb = NewVolumeBounds(NewClosedBounds(0.5, 2.5, 0, 1, 0, 1), unitSpacing, origin)
	c.Assert(vb.Region(), Equals, extents(0, 0, 0, 2, 0, 0))

	// A closed point resolves to the voxel holding it.
	vb = NewVolumeBounds(PointBounds(NmVector3{2.3, 0, 7.99}), unitSpacing, origin)
	c.Assert(vb.Region(), Equals, extents(2, 0, 7, 2, 0, 7))

	// Non-unit spacing and a shifted origin.
	spacing := NmVector3{2, 2, 2}
	vb = NewVolumeBounds(NewBounds(1, 11, 1, 11, 1, 11), spacing, NmVector3{1, 1, 1})
	c.Assert(vb.Region(), Equals, extents(0, 0, 0, 4, 4, 4))
	c.Assert(vb.VoxelCenter(Point3d{0, 0, 0}), Equals, NmVector3{2, 2, 2})
	c.Assert(vb.VoxelAt(NmVector3{10.9, 1, 1}), Equals, Point3d{4, 0, 0})
	c.Assert(vb.Length(AxisX), Equals, 10.0)

	// Invalid inputs give invalid volume bounds.
	c.Assert(NewVolumeBounds(Bounds{}, unitSpacing, origin).IsValid(), Equals, false)
	c.Assert(NewVolumeBounds(NewBounds(0, 1, 0, 1, 0, 1), NmVector3{0, 1, 1}, origin).IsValid(), Equals, false)
	c.Assert(NewVolumeBounds(NewBounds(0.1, 0.4, 0, 1, 0, 1), unitSpacing, origin).IsValid(), Equals, false)
	c.Assert(VolumeBounds{}.IsValid(), Equals, false)
}

func (s *DataSuite) TestVolumeBoundsCompatibility(c *C) {
	vb1 := NewVolumeBoundsFromExtents(extents(0, 0, 0, 9, 9, 9), unitSpacing, NmVector3{0, 0, 0})
	vb2 := NewVolumeBoundsFromExtents(extents(-2, -2, -2, 7, 7, 7), unitSpacing, NmVector3{2, 2, 2})
	c.Assert(IsCompatible(vb1, vb2), Equals, true)
	c.Assert(IsEquivalent(vb1, vb2), Equals, true)
	c.Assert(vb1.Equal(vb2), Equals, false)
	c.Assert(vb1.Bounds().Equal(vb2.Bounds()), Equals, true)

	shifted := vb1.WithOrigin(NmVector3{0.5, 0, 0})
	c.Assert(IsCompatible(vb1, shifted), Equals, false)
	c.Assert(IsEquivalent(vb1, shifted), Equals, false)
	c.Assert(VolumeIntersection(vb1, shifted).IsValid(), Equals, false)
	c.Assert(VolumeContains(vb1, shifted), Equals, false)

	coarse := NewVolumeBoundsFromExtents(vb1.Region(), NmVector3{2, 2, 2}, NmVector3{0, 0, 0})
	c.Assert(IsCompatible(vb1, coarse), Equals, false)
}

func (s *DataSuite) TestVolumeBoundsOperations(c *C) {
	vb1 := NewVolumeBoundsFromExtents(extents(0, 0, 0, 19, 19, 19), unitSpacing, NmVector3{0, 0, 0})
	vb2 := NewVolumeBoundsFromExtents(extents(0, 0, 0, 9, 9, 9), unitSpacing, NmVector3{15, 15, 15})

	c.Assert(IntersectVolumes(vb1, vb2), Equals, true)
	inter := VolumeIntersection(vb1, vb2)
	c.Assert(inter.Region(), Equals, extents(15, 15, 15, 19, 19, 19))
	c.Assert(inter.Origin(), Equals, vb1.Origin())

	bb := VolumeBoundingBox(vb1, vb2)
	c.Assert(bb.Region(), Equals, extents(0, 0, 0, 24, 24, 24))
	c.Assert(VolumeBoundingBox(VolumeBounds{}, vb2).Equal(vb2), Equals, true)

	c.Assert(VolumeContains(bb, vb1), Equals, true)
	c.Assert(VolumeContains(bb, vb2), Equals, true)
	c.Assert(VolumeContains(vb1, vb2), Equals, false)
	c.Assert(VolumeContainsPoint(vb1, NmVector3{19.5, 0, 0}), Equals, true)
	c.Assert(VolumeContainsPoint(vb1, NmVector3{20, 0, 0}), Equals, false)

	far := NewVolumeBoundsFromExtents(extents(50, 50, 50, 60, 60, 60), unitSpacing, NmVector3{0, 0, 0})
	c.Assert(IntersectVolumes(vb1, far), Equals, false)
	c.Assert(VolumeIntersection(vb1, far).IsValid(), Equals, false)
}

func (s *DataSuite) TestChangeSpacing(c *C) {
	vb := NewVolumeBoundsFromExtents(extents(0, 0, 0, 9, 9, 9), unitSpacing, NmVector3{2, 2, 2})
	rescaled := vb.ChangeSpacing(NmVector3{2, 3, 4})
	c.Assert(rescaled.Region(), Equals, vb.Region())
	c.Assert(rescaled.Origin(), Equals, NmVector3{4, 6, 8})
	c.Assert(rescaled.Bounds().Equal(NewBounds(4, 24, 6, 36, 8, 48)), Equals, true)
}

func (s *DataSuite) TestVolumeBoundsMsgpack(c *C) {
	list := VolumeBoundsList{
		NewVolumeBoundsFromExtents(extents(0, 0, 0, 9, 9, 9), unitSpacing, NmVector3{0, 0, 0}),
		NewVolumeBoundsFromExtents(extents(-5, 3, 100, 7, 8, 120), NmVector3{4, 4, 40}, NmVector3{1.5, 0, -3}),
	}
	buf, err := list.MarshalMsg(nil)
	c.Assert(err, IsNil)
	c.Assert(len(buf) <= list.Msgsize(), Equals, true)

	var decoded VolumeBoundsList
	left, err := decoded.UnmarshalMsg(buf)
	c.Assert(err, IsNil)
	c.Assert(left, HasLen, 0)
	c.Assert(decoded, HasLen, 2)
	for i := range list {
		c.Assert(decoded[i].Equal(list[i]), Equals, true)
	}

	_, err = decoded.UnmarshalMsg(buf[:len(buf)-3])
	c.Assert(err, NotNil)
}
