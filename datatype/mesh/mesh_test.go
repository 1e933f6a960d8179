package mesh

import (
	"context"
	"errors"
	"testing"

	"github.com/janelia-flyem/segvol/datatype/sparsevolume"
	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage/bucket"
)

func cube(lo, hi float64) segvol.Bounds {
	return segvol.NewBounds(lo, hi, lo, hi, lo, hi)
}

func testVolume() *sparsevolume.Volume[uint8] {
	return sparsevolume.NewFromBounds[uint8](cube(0, 20), segvol.NmVector3{1, 1, 1}, segvol.NmVector3{})
}

func checkBounds(t *testing.T, b segvol.Bounds, lo, hi float64) {
	t.Helper()
	if !b.AreValid() {
		t.Fatalf("expected valid mesh bounds")
	}
	for axis := 0; axis < 3; axis++ {
		if b.Min(axis) < lo-1 || b.Min(axis) > lo+1 || b.Max(axis) < hi-1 || b.Max(axis) > hi+1 {
			t.Errorf("mesh bounds %s not near [%g,%g] along axis %d", b, lo, hi, axis)
		}
	}
}

type countingUpdater struct {
	calls int
	err   error
}

func (u *countingUpdater) Update() error {
	u.calls++
	return u.err
}

func TestExtract(t *testing.T) {
	geom := segvol.NewVolumeBounds(cube(0, 20), segvol.NmVector3{1, 1, 1}, segvol.NmVector3{})
	img := segvol.NewImage[uint8](geom, 0)
	if p := Extract(img, 255, 0); !p.IsEmpty() {
		t.Errorf("expected no surface for an empty image, got %s", p)
	}
	img.Fill(geom.Resolve(cube(5, 15)), 255)
	p := Extract(img, 255, 0)
	if p.IsEmpty() {
		t.Fatalf("expected a surface for a filled cube")
	}
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	checkBounds(t, p.Bounds(), 5, 15)
}

func TestCacheStates(t *testing.T) {
	v := testVolume()
	m := NewMarchingCubesMesh[uint8](v)
	if m.State() != Empty {
		t.Errorf("expected empty cache, got %s", m.State())
	}
	if m.Dependencies()[0] != segvol.VolumetricData {
		t.Errorf("expected dependency on volumetric data")
	}

	v.DrawBounds(cube(2, 8), segvol.SegVoxelValue)
	p := m.Mesh()
	if p.IsEmpty() {
		t.Fatalf("expected a mesh after drawing")
	}
	if m.State() != Fresh {
		t.Errorf("expected fresh cache, got %s", m.State())
	}
	checkBounds(t, m.Bounds(), 2, 8)
	if m.LastModified() < v.LastModified() {
		t.Errorf("mesh timestamp %d older than volume %d", m.LastModified(), v.LastModified())
	}

	v.DrawBounds(cube(10, 18), segvol.SegVoxelValue)
	if m.State() != Stale {
		t.Errorf("expected stale cache after edit, got %s", m.State())
	}
	if !m.NeedsUpdate() {
		t.Errorf("expected cache to need an update")
	}
	if m.LastModified() < v.LastModified() {
		t.Errorf("accessing the mesh did not resolve staleness")
	}
	checkBounds(t, m.Bounds(), 2, 18)

	// Callers get copies.
	p = m.Mesh()
	p.Vertices[0] = -1000
	if m.Bounds().Min(segvol.AxisX) < 0 {
		t.Errorf("caller mutated the cached mesh")
	}
}

func TestInvalidate(t *testing.T) {
	v := testVolume()
	v.DrawBounds(cube(2, 8), 255)
	m := NewMarchingCubesMesh[uint8](v)
	first := m.LastModified()
	m.Invalidate()
	if m.State() != Stale {
		t.Errorf("expected stale after invalidate, got %s", m.State())
	}
	if second := m.LastModified(); second <= first {
		t.Errorf("invalidate did not force a recompute")
	}
	if m.State() != Fresh {
		t.Errorf("expected fresh after recompute, got %s", m.State())
	}
}

func TestInvalidSource(t *testing.T) {
	v := sparsevolume.New[uint8](segvol.VolumeBounds{})
	m := NewMarchingCubesMesh[uint8](v)
	if err := m.Update(); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("expected invalid source error, got %v", err)
	}
	if m.Mesh() != nil {
		t.Errorf("expected no mesh for an invalid source")
	}
	if !m.NeedsUpdate() || m.State() != Empty {
		t.Errorf("failed recompute should leave the cache empty and stale")
	}
}

func TestUpdatePolicy(t *testing.T) {
	v := testVolume()
	u := &countingUpdater{}
	v.SetUpdater(u)

	NewMarchingCubesMesh[uint8](v).Mesh()
	if u.calls != 0 {
		t.Errorf("ignore policy updated the source")
	}
	m := NewMarchingCubesMesh[uint8](v, WithUpdatePolicy(segvol.Request))
	m.Mesh()
	if u.calls != 1 {
		t.Errorf("expected 1 source update, got %d", u.calls)
	}
	m.Mesh()
	if u.calls != 1 {
		t.Errorf("fresh cache updated the source again")
	}

	u.err = errors.New("upstream failed")
	v.DrawBounds(cube(0, 4), 255)
	if m.Update() == nil {
		t.Errorf("expected source update failure")
	}
	if m.State() != Stale {
		t.Errorf("failed update should leave the cache stale")
	}
}

func TestForegroundValue(t *testing.T) {
	v := sparsevolume.NewFromBounds[uint16](cube(0, 20), segvol.NmVector3{2, 2, 2}, segvol.NmVector3{})
	v.DrawBounds(cube(4, 12), 7)
	v.DrawBounds(cube(12, 16), 9)
	m := NewMarchingCubesMesh[uint16](v, WithForeground(7))
	checkBounds(t, m.Bounds(), 4, 12)
}

func TestGLB(t *testing.T) {
	p := &PolyData{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 1, 3, 0, 2, 3, 1, 2, 3},
	}
	data, err := EncodeGLB(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeGLB(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumVertices() != 4 || got.NumTriangles() != 4 {
		t.Fatalf("expected 4 vertices and 4 triangles, got %s", got)
	}
	for i := range p.Vertices {
		if got.Vertices[i] != p.Vertices[i] {
			t.Fatalf("vertex data differs at %d", i)
		}
	}
	for i := range p.Indices {
		if got.Indices[i] != p.Indices[i] {
			t.Fatalf("index data differs at %d", i)
		}
	}

	empty, err := EncodeGLB(&PolyData{})
	if err != nil {
		t.Fatal(err)
	}
	if got, err = DecodeGLB(empty); err != nil || !got.IsEmpty() {
		t.Errorf("expected empty mesh back, got %v (%v)", got, err)
	}
	if _, err := EncodeGLB(&PolyData{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 1, 2}}); err == nil {
		t.Errorf("expected error for out of range indices")
	}
}

func TestRawMeshPersistence(t *testing.T) {
	ctx := context.Background()
	store, err := bucket.Open(ctx, "mem://")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	v := testVolume()
	v.DrawBounds(cube(3, 9), 255)
	r := NewRawMesh(NewMarchingCubesMesh[uint8](v).Mesh())
	if r.Kind() != segvol.MeshData || len(r.Dependencies()) != 0 {
		t.Errorf("unexpected kind or dependencies for stored mesh")
	}
	snap, err := r.Snapshot(ctx, "meshes", "seg")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 1 || snap[0].Name != "meshes/seg_MeshData.glb" {
		t.Fatalf("unexpected snapshot %v", snap.Names())
	}
	if err := snap.Write(ctx, store, 1); err != nil {
		t.Fatal(err)
	}

	loaded := NewRawMesh(nil)
	if loaded.IsValid() {
		t.Errorf("expected mesh without data to be invalid")
	}
	if !loaded.Fetch(ctx, store, "meshes", "seg") {
		t.Fatalf("fetch found nothing")
	}
	if loaded.Mesh().NumTriangles() != r.Mesh().NumTriangles() {
		t.Errorf("expected %d triangles, got %d", r.Mesh().NumTriangles(), loaded.Mesh().NumTriangles())
	}
	if !loaded.Bounds().Equal(r.Bounds()) {
		t.Errorf("expected bounds %s, got %s", r.Bounds(), loaded.Bounds())
	}
	if NewRawMesh(nil).Fetch(ctx, store, "meshes", "other") {
		t.Errorf("fetch of missing mesh reported success")
	}
}
