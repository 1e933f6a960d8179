package segvol

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestBoundsValidity(c *C) {
	c.Assert(Bounds{}.AreValid(), Equals, false)
	c.Assert(NewBounds(0, 20, 0, 20, 0, 20).AreValid(), Equals, true)
	c.Assert(NewBounds(5, 4, 0, 1, 0, 1).AreValid(), Equals, false)

	b := NewBounds(3, 3, 0, 1, 0, 1)
	c.Assert(b.AreValid(), Equals, true)
	b.SetLowerInclusion(AxisX, false)
	c.Assert(b.AreValid(), Equals, false)
	b.SetUpperInclusion(AxisX, true)
	c.Assert(b.AreValid(), Equals, true)

	c.Assert(PointBounds(NmVector3{1, 2, 3}).AreValid(), Equals, true)
}

func (s *DataSuite) TestBoundsString(c *C) {
	b := NewBounds(0, 20, 0, 20, 0, 20)
	c.Assert(b.String(), Equals, "{[0,20),[0,20),[0,20)}")

	b.SetLowerInclusion(AxisZ, false)
	b.SetUpperInclusion(AxisZ, true)
	b.Set(4, 1.5)
	c.Assert(b.String(), Equals, "{[0,20),[0,20),(1.5,20]}")

	parsed, err := ParseBounds(b.String())
	c.Assert(err, IsNil)
	c.Assert(parsed.Equal(b), Equals, true)

	_, err = ParseBounds("[0,1),[0,1)")
	c.Assert(err, NotNil)
	_, err = ParseBounds("{[0,1),[0,1),<0,1)}")
	c.Assert(err, NotNil)
	_, err = ParseBounds("{[0,x),[0,1),[0,1)}")
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestBoundsEquality(c *C) {
	b1 := NewBounds(0, 10, 0, 10, 0, 10)
	b2 := NewBounds(0, 10, 0, 10, 0, 10)
	c.Assert(b1.Equal(b2), Equals, true)

	// Same numbers but different inclusion are different bounds.
	b2.SetUpperInclusion(AxisY, true)
	c.Assert(b1.Equal(b2), Equals, false)
	c.Assert(b1.Equal(NewClosedBounds(0, 10, 0, 10, 0, 10)), Equals, false)
}

func (s *DataSuite) TestBoundsIntersection(c *C) {
	b1 := NewBounds(0, 10, 0, 10, 0, 10)
	b2 := NewBounds(5, 20, 5, 20, 5, 20)
	c.Assert(Intersect(b1, b2, unitSpacing), Equals, true)
	c.Assert(Intersection(b1, b2, unitSpacing).Equal(NewBounds(5, 10, 5, 10, 5, 10)), Equals, true)

	// Touching bounds only intersect if the shared face is included by both.
	b3 := NewBounds(10, 20, 0, 10, 0, 10)
	c.Assert(Intersect(b1, b3, unitSpacing), Equals, false)
	c.Assert(Intersection(b1, b3, unitSpacing).AreValid(), Equals, false)
	closed := NewClosedBounds(0, 10, 0, 10, 0, 10)
	c.Assert(Intersect(closed, b3, unitSpacing), Equals, true)

	far := NewBounds(30, 40, 30, 40, 30, 40)
	c.Assert(Intersect(b1, far, unitSpacing), Equals, false)
	c.Assert(Intersect(b1, Bounds{}, unitSpacing), Equals, false)
}

func (s *DataSuite) TestBoundingBox(c *C) {
	b1 := NewBounds(0, 10, 0, 10, 0, 10)
	b2 := NewBounds(5, 20, -5, 5, 5, 20)
	bb := BoundingBox(b1, b2, unitSpacing)
	c.Assert(bb.Equal(NewBounds(0, 20, -5, 10, 0, 20)), Equals, true)
	c.Assert(BoundingBox(b1, Bounds{}, unitSpacing).Equal(b1), Equals, true)
	c.Assert(BoundingBox(Bounds{}, b2, unitSpacing).Equal(b2), Equals, true)
}

func (s *DataSuite) TestBoundsContainment(c *C) {
	container := NewBounds(0, 20, 0, 20, 0, 20)
	c.Assert(Contains(container, NewBounds(5, 10, 5, 10, 5, 10), unitSpacing), Equals, true)
	c.Assert(Contains(container, container, unitSpacing), Equals, true)
	c.Assert(Contains(container, NewClosedBounds(0, 20, 0, 20, 0, 20), unitSpacing), Equals, false)
	c.Assert(Contains(container, NewBounds(-1, 10, 0, 10, 0, 10), unitSpacing), Equals, false)

	c.Assert(ContainsPoint(container, NmVector3{0, 0, 0}, unitSpacing), Equals, true)
	c.Assert(ContainsPoint(container, NmVector3{19.9, 10, 10}, unitSpacing), Equals, true)
	c.Assert(ContainsPoint(container, NmVector3{20, 10, 10}, unitSpacing), Equals, false)
	c.Assert(ContainsPoint(container, NmVector3{-0.5, 10, 10}, unitSpacing), Equals, false)
}

func (s *DataSuite) TestAdjacency(c *C) {
	b1 := NewBounds(0, 10, 0, 10, 0, 10)
	c.Assert(AreAdjacent(b1, NewBounds(10, 20, 0, 10, 0, 10)), Equals, true)
	c.Assert(AreAdjacent(NewBounds(0, 10, -10, 0, 0, 10), b1), Equals, true)
	c.Assert(AreAdjacent(b1, NewBounds(10, 20, 10, 20, 0, 10)), Equals, false)
	c.Assert(AreAdjacent(b1, NewBounds(5, 15, 0, 10, 0, 10)), Equals, false)
}
