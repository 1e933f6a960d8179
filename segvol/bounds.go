package segvol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Axis names used when indexing Bounds values.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Bounds is an axis-aligned physical region given as {xmin, xmax, ymin, ymax, zmin, zmax}
// with a flag per axis and side telling whether the boundary value itself belongs to the
// region.  The zero Bounds is invalid.
type Bounds struct {
	b             [6]float64
	lowerIncluded [3]bool
	upperIncluded [3]bool
}

// NewBounds returns lower-inclusive, upper-exclusive bounds {[x0,x1),[y0,y1),[z0,z1)}.
func NewBounds(x0, x1, y0, y1, z0, z1 float64) Bounds {
	return Bounds{
		b:             [6]float64{x0, x1, y0, y1, z0, z1},
		lowerIncluded: [3]bool{true, true, true},
	}
}

// NewClosedBounds returns bounds including both ends on every axis.
func NewClosedBounds(x0, x1, y0, y1, z0, z1 float64) Bounds {
	return Bounds{
		b:             [6]float64{x0, x1, y0, y1, z0, z1},
		lowerIncluded: [3]bool{true, true, true},
		upperIncluded: [3]bool{true, true, true},
	}
}

// PointBounds returns the degenerate closed bounds holding a single point.
func PointBounds(p NmVector3) Bounds {
	return NewClosedBounds(p[0], p[0], p[1], p[1], p[2], p[2])
}

// At returns the i-th extent value where i in [0,6).
func (b Bounds) At(i int) float64 {
	return b.b[i]
}

// Set sets the i-th extent value where i in [0,6).
func (b *Bounds) Set(i int, value float64) {
	b.b[i] = value
}

func (b Bounds) Min(axis int) float64 {
	return b.b[2*axis]
}

func (b Bounds) Max(axis int) float64 {
	return b.b[2*axis+1]
}

// Length returns the extent along the given axis.
func (b Bounds) Length(axis int) float64 {
	return b.b[2*axis+1] - b.b[2*axis]
}

func (b Bounds) LowerIncluded(axis int) bool {
	return b.lowerIncluded[axis]
}

func (b Bounds) UpperIncluded(axis int) bool {
	return b.upperIncluded[axis]
}

func (b *Bounds) SetLowerInclusion(axis int, included bool) {
	b.lowerIncluded[axis] = included
}

func (b *Bounds) SetUpperInclusion(axis int, included bool) {
	b.upperIncluded[axis] = included
}

// SetInclusion sets the lower and upper inclusion of every axis.
func (b *Bounds) SetInclusion(lower, upper bool) {
	for axis := 0; axis < 3; axis++ {
		b.lowerIncluded[axis] = lower
		b.upperIncluded[axis] = upper
	}
}

// AreValid returns true if min <= max on every axis and a degenerate axis
// includes at least one of its ends.
func (b Bounds) AreValid() bool {
	for axis := 0; axis < 3; axis++ {
		lb, ub := b.b[2*axis], b.b[2*axis+1]
		if math.IsNaN(lb) || math.IsNaN(ub) {
			return false
		}
		if lb > ub {
			return false
		}
		if lb == ub && !b.lowerIncluded[axis] && !b.upperIncluded[axis] {
			return false
		}
	}
	return true
}

// Equal returns true if extents and inclusion flags all match.
func (b Bounds) Equal(b2 Bounds) bool {
	for i := 0; i < 6; i++ {
		if !areEqual(b.b[i], b2.b[i], 0) {
			return false
		}
	}
	return b.lowerIncluded == b2.lowerIncluded && b.upperIncluded == b2.upperIncluded
}

func (b Bounds) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for axis := 0; axis < 3; axis++ {
		if axis > 0 {
			sb.WriteString(",")
		}
		if b.lowerIncluded[axis] {
			sb.WriteString("[")
		} else {
			sb.WriteString("(")
		}
		sb.WriteString(strconv.FormatFloat(b.b[2*axis], 'g', -1, 64))
		sb.WriteString(",")
		sb.WriteString(strconv.FormatFloat(b.b[2*axis+1], 'g', -1, 64))
		if b.upperIncluded[axis] {
			sb.WriteString("]")
		} else {
			sb.WriteString(")")
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// ParseBounds returns the Bounds described by a string produced by Bounds.String, e.g.,
// "{[0,20),[0,20),(1.5,4]}".
func ParseBounds(s string) (Bounds, error) {
	var b Bounds
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return b, fmt.Errorf("bad bounds string %q: must be enclosed in braces", s)
	}
	ranges := strings.Split(s[1:len(s)-1], ",")
	if len(ranges) != 6 {
		return b, fmt.Errorf("bad bounds string %q: expected 6 values, got %d", s, len(ranges))
	}
	for axis := 0; axis < 3; axis++ {
		lo := strings.TrimSpace(ranges[2*axis])
		hi := strings.TrimSpace(ranges[2*axis+1])
		if len(lo) < 2 || len(hi) < 2 {
			return b, fmt.Errorf("bad bounds string %q: empty range on axis %d", s, axis)
		}
		switch lo[0] {
		case '[':
			b.lowerIncluded[axis] = true
		case '(':
		default:
			return b, fmt.Errorf("bad bounds string %q: unknown lower token %q", s, lo[0])
		}
		switch hi[len(hi)-1] {
		case ']':
			b.upperIncluded[axis] = true
		case ')':
		default:
			return b, fmt.Errorf("bad bounds string %q: unknown upper token %q", s, hi[len(hi)-1])
		}
		var err error
		if b.b[2*axis], err = strconv.ParseFloat(lo[1:], 64); err != nil {
			return b, fmt.Errorf("bad bounds string %q: %v", s, err)
		}
		if b.b[2*axis+1], err = strconv.ParseFloat(hi[:len(hi)-1], 64); err != nil {
			return b, fmt.Errorf("bad bounds string %q: %v", s, err)
		}
	}
	return b, nil
}

// areEqual compares two physical values.  With a positive spacing the tolerance is a
// hundredth of a voxel; otherwise it is relative to the magnitude of the values.
func areEqual(a, b, spacing float64) bool {
	tol := spacing / 100
	if spacing <= 0 {
		tol = 1e-9 * math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	}
	return math.Abs(a-b) < tol
}

// Intersect returns true if both bounds share at least one point, honoring inclusion
// flags where the bounds touch.
func Intersect(b1, b2 Bounds, spacing NmVector3) bool {
	if !b1.AreValid() || !b2.AreValid() {
		return false
	}
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		if !(b1.b[lo] <= b2.b[up] && b1.b[up] >= b2.b[lo]) {
			return false
		}
		if areEqual(b1.b[lo], b2.b[up], spacing[axis]) {
			b2UpperIncluded := b2.upperIncluded[axis] || (areEqual(b2.b[lo], b2.b[up], spacing[axis]) && b2.lowerIncluded[axis])
			if !(b1.lowerIncluded[axis] && b2UpperIncluded) {
				return false
			}
		}
		if areEqual(b1.b[up], b2.b[lo], spacing[axis]) {
			b1UpperIncluded := b1.upperIncluded[axis] || (areEqual(b1.b[lo], b1.b[up], spacing[axis]) && b1.lowerIncluded[axis])
			if !(b1UpperIncluded && b2.lowerIncluded[axis]) {
				return false
			}
		}
	}
	return true
}

// Intersection returns the region common to both bounds.  The result is invalid
// if the bounds do not intersect.
func Intersection(b1, b2 Bounds, spacing NmVector3) Bounds {
	var res Bounds
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		s := spacing[axis]
		res.b[lo] = math.Max(b1.b[lo], b2.b[lo])
		res.b[up] = math.Min(b1.b[up], b2.b[up])

		switch {
		case areEqual(b1.b[lo], b2.b[lo], s):
			res.lowerIncluded[axis] = b1.lowerIncluded[axis] && b2.lowerIncluded[axis]
		case areEqual(b1.b[up], b2.b[lo], s):
			res.lowerIncluded[axis] = b1.upperIncluded[axis] && b2.lowerIncluded[axis]
		case areEqual(b1.b[lo], b2.b[up], s):
			res.lowerIncluded[axis] = b1.lowerIncluded[axis] && b2.upperIncluded[axis]
		case b1.b[lo] < b2.b[lo]:
			res.lowerIncluded[axis] = b2.lowerIncluded[axis]
		default:
			res.lowerIncluded[axis] = b1.lowerIncluded[axis]
		}

		switch {
		case areEqual(b1.b[up], b2.b[up], s):
			res.upperIncluded[axis] = b1.upperIncluded[axis] && b2.upperIncluded[axis]
		case areEqual(b1.b[up], b2.b[lo], s):
			res.upperIncluded[axis] = b1.upperIncluded[axis] && b2.lowerIncluded[axis]
		case areEqual(b1.b[lo], b2.b[up], s):
			res.upperIncluded[axis] = b1.lowerIncluded[axis] && b2.upperIncluded[axis]
		case b1.b[up] < b2.b[up]:
			res.upperIncluded[axis] = b1.upperIncluded[axis]
		default:
			res.upperIncluded[axis] = b2.upperIncluded[axis]
		}
	}
	return res
}

// BoundingBox returns the smallest bounds holding both bounds.  An invalid argument
// is ignored.
func BoundingBox(b1, b2 Bounds, spacing NmVector3) Bounds {
	switch {
	case !b1.AreValid():
		return b2
	case !b2.AreValid():
		return b1
	}
	var bb Bounds
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		bb.b[lo] = math.Min(b1.b[lo], b2.b[lo])
		bb.b[up] = math.Max(b1.b[up], b2.b[up])
		if areEqual(b1.b[lo], bb.b[lo], spacing[axis]) {
			bb.lowerIncluded[axis] = b1.lowerIncluded[axis]
		} else {
			bb.lowerIncluded[axis] = b2.lowerIncluded[axis]
		}
		if areEqual(b1.b[up], bb.b[up], spacing[axis]) {
			bb.upperIncluded[axis] = b1.upperIncluded[axis]
		} else {
			bb.upperIncluded[axis] = b2.upperIncluded[axis]
		}
	}
	return bb
}

// Contains returns true if every point of contained lies within container.
func Contains(container, contained Bounds, spacing NmVector3) bool {
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		if areEqual(contained.b[lo], container.b[lo], spacing[axis]) {
			if !container.lowerIncluded[axis] && contained.lowerIncluded[axis] {
				return false
			}
		} else if contained.b[lo] < container.b[lo] {
			return false
		}
		if areEqual(contained.b[up], container.b[up], spacing[axis]) {
			if !container.upperIncluded[axis] && contained.upperIncluded[axis] {
				return false
			}
		} else if container.b[up] < contained.b[up] {
			return false
		}
	}
	return true
}

// ContainsPoint returns true if the point lies within the bounds.
func ContainsPoint(b Bounds, p NmVector3, spacing NmVector3) bool {
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		if p[axis] < b.b[lo] && !areEqual(p[axis], b.b[lo], spacing[axis]) {
			return false
		}
		if areEqual(p[axis], b.b[lo], spacing[axis]) && !b.lowerIncluded[axis] {
			return false
		}
		if b.b[up] < p[axis] && !areEqual(p[axis], b.b[up], spacing[axis]) {
			return false
		}
		if areEqual(p[axis], b.b[up], spacing[axis]) && !b.upperIncluded[axis] {
			return false
		}
	}
	return true
}

// AreAdjacent returns true if the bounds share a face: they coincide on two axes and
// touch end-to-end on the third.
func AreAdjacent(lhs, rhs Bounds) bool {
	var coincident, adjacent int
	for axis := 0; axis < 3; axis++ {
		lo, up := 2*axis, 2*axis+1
		if areEqual(lhs.b[lo], rhs.b[up], 0) || areEqual(lhs.b[up], rhs.b[lo], 0) {
			adjacent++
		} else if areEqual(lhs.b[lo], rhs.b[lo], 0) && areEqual(lhs.b[up], rhs.b[up], 0) {
			coincident++
		}
	}
	return coincident == 2 && adjacent == 1
}
