/*
	Package mesh implements surface meshes of segmentations: a stored mesh and a mesh
	derived from a sparse volume that is recomputed whenever the volume changes.
*/
package mesh

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/segvol/segvol"
)

// PolyData is an indexed triangle mesh.  Vertices holds x, y, z triples in physical
// units and every three Indices form a triangle.
type PolyData struct {
	Vertices []float32
	Indices  []uint32
}

func (p *PolyData) NumVertices() int {
	if p == nil {
		return 0
	}
	return len(p.Vertices) / 3
}

func (p *PolyData) NumTriangles() int {
	if p == nil {
		return 0
	}
	return len(p.Indices) / 3
}

// IsEmpty returns true if the mesh has no triangle.
func (p *PolyData) IsEmpty() bool {
	return p.NumTriangles() == 0
}

// Clone returns a deep copy.
func (p *PolyData) Clone() *PolyData {
	if p == nil {
		return nil
	}
	return &PolyData{
		Vertices: append([]float32(nil), p.Vertices...),
		Indices:  append([]uint32(nil), p.Indices...),
	}
}

// Bounds returns the closed bounds of the vertices, invalid for an empty mesh.
func (p *PolyData) Bounds() segvol.Bounds {
	if p.NumVertices() == 0 {
		return segvol.Bounds{}
	}
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < len(p.Vertices); i += 3 {
		for axis := 0; axis < 3; axis++ {
			c := float64(p.Vertices[i+axis])
			lo[axis] = math.Min(lo[axis], c)
			hi[axis] = math.Max(hi[axis], c)
		}
	}
	return segvol.NewClosedBounds(lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
}

// Validate checks that every index refers to a vertex.
func (p *PolyData) Validate() error {
	if len(p.Vertices)%3 != 0 || len(p.Indices)%3 != 0 {
		return fmt.Errorf("mesh has %d coordinates and %d indices, expected multiples of 3", len(p.Vertices), len(p.Indices))
	}
	n := uint32(p.NumVertices())
	for _, i := range p.Indices {
		if i >= n {
			return fmt.Errorf("mesh index %d refers past %d vertices", i, n)
		}
	}
	return nil
}

func (p *PolyData) String() string {
	return fmt.Sprintf("%d vertices, %d triangles", p.NumVertices(), p.NumTriangles())
}
