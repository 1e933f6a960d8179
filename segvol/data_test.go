package segvol

import (
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type DataSuite struct{}

var _ = Suite(&DataSuite{})

var unitSpacing = NmVector3{1, 1, 1}

func (s *DataSuite) TestPoint3d(c *C) {
	a := Point3d{10, 21, 837821}
	b := Point3d{78312, -200, 40123}
	c.Assert(a.Add(b), Equals, Point3d{78322, -179, 877944})
	c.Assert(a.Sub(b), Equals, Point3d{-78302, 221, 797698})
	c.Assert(a.String(), Equals, "(10,21,837821)")
	c.Assert(a.AddScalar(10), Equals, Point3d{20, 31, 837831})
	c.Assert(Point3d{2, 3, 4}.Prod(), Equals, int64(24))

	p := a
	p.SetMinimum(b)
	c.Assert(p, Equals, Point3d{10, -200, 40123})
	p = a
	p.SetMaximum(b)
	c.Assert(p, Equals, Point3d{78312, 21, 837821})
}

func (s *DataSuite) TestChunking(c *C) {
	p := Point3d{-1, 24, 25}
	c.Assert(p.Chunk(25), Equals, ChunkPoint3d{-1, 0, 1})
	c.Assert(p.PointInChunk(25), Equals, Point3d{24, 24, 0})
	c.Assert(Point3d{-25, -26, 0}.Chunk(25), Equals, ChunkPoint3d{-1, -2, 0})

	chunk := ChunkPoint3d{1, -1, 2}
	c.Assert(chunk.MinPoint(25), Equals, Point3d{25, -25, 50})
	c.Assert(chunk.MaxPoint(25), Equals, Point3d{49, -1, 74})
	c.Assert(chunk.Extents(25).BlockAligned(25), Equals, true)
	c.Assert(ChunkPoint3d{0, 0, 1}.Less(ChunkPoint3d{5, 5, 0}), Equals, false)
	c.Assert(ChunkPoint3d{5, 0, 0}.Less(ChunkPoint3d{0, 1, 0}), Equals, true)
}

func (s *DataSuite) TestExtents(c *C) {
	ext := Extents3d{Point3d{0, 0, 0}, Point3d{19, 19, 19}}
	c.Assert(ext.Empty(), Equals, false)
	c.Assert(ext.NumVoxels(), Equals, int64(8000))
	c.Assert(EmptyExtents3d().Empty(), Equals, true)
	c.Assert(EmptyExtents3d().NumVoxels(), Equals, int64(0))

	chunks := ext.Chunks(25)
	c.Assert(chunks, DeepEquals, []ChunkPoint3d{{0, 0, 0}})

	ext2 := Extents3d{Point3d{10, -5, 14}, Point3d{30, 5, 26}}
	c.Assert(ext2.Chunks(25), HasLen, 2*2*2)
	c.Assert(ext.Intersect(ext2), Equals, Extents3d{Point3d{10, 0, 14}, Point3d{19, 5, 19}})
	c.Assert(ext.Intersect(Extents3d{Point3d{20, 0, 0}, Point3d{30, 5, 5}}).Empty(), Equals, true)
	c.Assert(ext.Union(ext2), Equals, Extents3d{Point3d{0, -5, 0}, Point3d{30, 19, 26}})
	c.Assert(ext.Contains(Extents3d{Point3d{1, 1, 1}, Point3d{2, 2, 2}}), Equals, true)
	c.Assert(ext.Contains(ext2), Equals, false)
	c.Assert(ext.Contains(EmptyExtents3d()), Equals, true)
	c.Assert(ext.BlockAligned(25), Equals, false)
}

func (s *DataSuite) TestTimestamps(c *C) {
	t1 := NextTimestamp()
	t2 := NextTimestamp()
	c.Assert(t2 > t1, Equals, true)
	c.Assert(CurrentTimestamp() >= t2, Equals, true)
}

func (s *DataSuite) TestKinds(c *C) {
	c.Assert(VolumetricData.String(), Equals, "VolumetricData")
	c.Assert(Request.String(), Equals, "request")
	c.Assert(Ignore.String(), Equals, "ignore")
}
