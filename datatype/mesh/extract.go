package mesh

import (
	"math"

	"github.com/janelia-flyem/segvol/segvol"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMaxCells caps the marching cubes resolution along the longest axis.
const DefaultMaxCells = 1024

// occupancy is a signed distance stand-in over a voxel image: negative where the
// trilinear interpolation of foreground occupancy at voxel centres exceeds one half.
type occupancy struct {
	geom    segvol.VolumeBounds
	size    segvol.Point3d
	occ     []float32
	box     sdf.Box3
	spacing segvol.NmVector3
	corner  segvol.NmVector3
}

func newOccupancy[T segvol.Voxel](img *segvol.Image[T], foreground T) *occupancy {
	geom := img.Bounds()
	o := &occupancy{
		geom:    geom,
		size:    img.Size(),
		occ:     make([]float32, len(img.Data())),
		spacing: geom.Spacing(),
	}
	for i, v := range img.Data() {
		if v == foreground {
			o.occ[i] = 1
		}
	}
	b := geom.Bounds()
	o.corner = segvol.NmVector3{b.Min(segvol.AxisX), b.Min(segvol.AxisY), b.Min(segvol.AxisZ)}
	o.box = sdf.Box3{
		Min: v3.Vec{X: b.Min(segvol.AxisX), Y: b.Min(segvol.AxisY), Z: b.Min(segvol.AxisZ)},
		Max: v3.Vec{X: b.Max(segvol.AxisX), Y: b.Max(segvol.AxisY), Z: b.Max(segvol.AxisZ)},
	}
	return o
}

func (o *occupancy) at(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= int(o.size[0]) || y >= int(o.size[1]) || z >= int(o.size[2]) {
		return 0
	}
	return float64(o.occ[x+int(o.size[0])*(y+int(o.size[1])*z)])
}

func (o *occupancy) Evaluate(p v3.Vec) float64 {
	pos := [3]float64{p.X, p.Y, p.Z}
	var i [3]int
	var t [3]float64
	for axis := 0; axis < 3; axis++ {
		u := (pos[axis]-o.corner[axis])/o.spacing[axis] - 0.5
		f := math.Floor(u)
		i[axis] = int(f)
		t[axis] = u - f
	}
	var sum float64
	for dz := 0; dz < 2; dz++ {
		wz := 1 - t[2]
		if dz == 1 {
			wz = t[2]
		}
		for dy := 0; dy < 2; dy++ {
			wy := 1 - t[1]
			if dy == 1 {
				wy = t[1]
			}
			for dx := 0; dx < 2; dx++ {
				wx := 1 - t[0]
				if dx == 1 {
					wx = t[0]
				}
				if w := wx * wy * wz; w != 0 {
					sum += w * o.at(i[0]+dx, i[1]+dy, i[2]+dz)
				}
			}
		}
	}
	return 0.5 - sum
}

func (o *occupancy) BoundingBox() sdf.Box3 {
	return o.box
}

// cells returns the number of marching cubes cells along the longest axis so cells are
// about the size of the finest voxel spacing.
func (o *occupancy) cells(maxCells int) int {
	var longest float64
	finest := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		longest = math.Max(longest, o.geom.Length(axis))
		finest = math.Min(finest, o.spacing[axis])
	}
	n := int(math.Ceil(longest / finest))
	if maxCells > 0 && n > maxCells {
		n = maxCells
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Extract returns the isosurface of the voxels of img equal to foreground.  The image is
// expected to have a border of non-foreground voxels so the surface is closed.
func Extract[T segvol.Voxel](img *segvol.Image[T], foreground T, maxCells int) *PolyData {
	poly := &PolyData{}
	if !img.Bounds().IsValid() || img.CountNot(img.Bounds().Region(), foreground) == img.Bounds().NumVoxels() {
		return poly
	}
	field := newOccupancy(img, foreground)
	triangles := render.ToTriangles(field, render.NewMarchingCubesUniform(field.cells(maxCells)))

	index := make(map[v3.Vec]uint32, len(triangles))
	vertex := func(v v3.Vec) uint32 {
		if i, found := index[v]; found {
			return i
		}
		i := uint32(len(poly.Vertices) / 3)
		poly.Vertices = append(poly.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		index[v] = i
		return i
	}
	for _, tri := range triangles {
		a, b, c := vertex(tri[0]), vertex(tri[1]), vertex(tri[2])
		if a == b || b == c || a == c {
			continue
		}
		poly.Indices = append(poly.Indices, a, b, c)
	}
	return poly
}
