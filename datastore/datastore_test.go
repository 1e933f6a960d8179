package datastore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/janelia-flyem/segvol/datatype/mesh"
	"github.com/janelia-flyem/segvol/datatype/sparsevolume"
	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"
	"github.com/janelia-flyem/segvol/storage/bucket"
)

func memStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := bucket.Open(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("can't open memory bucket: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func cube(lo, hi float64) segvol.Bounds {
	return segvol.NewBounds(lo, hi, lo, hi, lo, hi)
}

func testOutput() (*Output, *sparsevolume.Volume[uint8]) {
	v := sparsevolume.NewFromBounds[uint8](cube(0, 60), segvol.NmVector3{1, 1, 1}, segvol.NmVector3{})
	v.DrawBounds(cube(0, 10), 255)
	v.DrawBounds(segvol.NewBounds(20, 40, 5, 15, 30, 55), 255)
	out := NewOutput("seg")
	out.Add(v)
	return out, v
}

func emptyOutput() (*Output, *sparsevolume.Volume[uint8]) {
	v := sparsevolume.New[uint8](segvol.VolumeBounds{})
	out := NewOutput("seg")
	out.Add(v)
	return out, v
}

func sameVoxels(t *testing.T, v1, v2 *sparsevolume.Volume[uint8]) {
	t.Helper()
	if !v1.Bounds().Equal(v2.Bounds()) {
		t.Fatalf("expected bounds %s, got %s", v1.Bounds(), v2.Bounds())
	}
	img1, err := v1.MaterializeVolume(v1.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	img2, err := v2.MaterializeVolume(v1.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	if !img1.Equal(img2) {
		t.Errorf("loaded voxels differ")
	}
}

type fakeData struct {
	kind segvol.Kind
	deps []segvol.Kind
}

func (d fakeData) Kind() segvol.Kind               { return d.kind }
func (d fakeData) Dependencies() []segvol.Kind     { return d.deps }
func (d fakeData) IsValid() bool                   { return true }
func (d fakeData) LastModified() segvol.Timestamp { return 0 }

func TestOrder(t *testing.T) {
	out, v := testOutput()
	out.Add(mesh.NewMarchingCubesMesh[uint8](v))
	out.Add(mesh.NewRawMesh(nil))
	if kinds := out.Kinds(); len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %v", kinds)
	}
	ordered, err := out.Order()
	if err != nil {
		t.Fatal(err)
	}
	position := make(map[segvol.Kind]int)
	for i, d := range ordered {
		position[d.Kind()] = i
	}
	if position[segvol.VolumetricData] > position[segvol.MarchingCubesMesh] {
		t.Errorf("mesh ordered before the volume it depends on")
	}

	missing := NewOutput("seg")
	missing.Add(mesh.NewMarchingCubesMesh[uint8](v))
	if _, err := missing.Order(); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected missing dependency error, got %v", err)
	}

	cyclic := NewOutput("seg")
	cyclic.Add(fakeData{kind: "A", deps: []segvol.Kind{"B"}})
	cyclic.Add(fakeData{kind: "B", deps: []segvol.Kind{"A"}})
	if _, err := cyclic.Order(); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("expected dependency cycle error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	out, v := testOutput()
	m := mesh.NewMarchingCubesMesh[uint8](v)
	out.Add(m)
	if err := out.Update(); err != nil {
		t.Fatal(err)
	}
	if m.State() != mesh.Fresh {
		t.Errorf("expected fresh mesh after update, got %s", m.State())
	}
	v.DrawBounds(cube(50, 55), 255)
	if m.State() != mesh.Stale {
		t.Errorf("expected stale mesh after edit, got %s", m.State())
	}
	if err := out.Update(); err != nil {
		t.Fatal(err)
	}
	if m.State() != mesh.Fresh {
		t.Errorf("expected fresh mesh after second update, got %s", m.State())
	}
}

func TestSaveFullAndLoad(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)
	out, v := testOutput()
	out.Add(mesh.NewRawMesh(mesh.NewMarchingCubesMesh[uint8](v).Mesh()))
	if err := out.SaveFull(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	if len(v.EditedRegions()) != 0 {
		t.Errorf("full save should clear edited regions")
	}
	for _, name := range []string{BoundsName("segs", "seg"), mesh.RawMeshName("segs", "seg")} {
		if found, err := store.Exists(ctx, name); err != nil || !found {
			t.Errorf("expected %q to be stored (%v)", name, err)
		}
	}

	loadedOut, loaded := emptyOutput()
	raw := mesh.NewRawMesh(nil)
	loadedOut.Add(raw)
	if err := loadedOut.Load(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	sameVoxels(t, v, loaded)
	if !raw.IsValid() {
		t.Errorf("stored mesh was not fetched")
	}
}

func TestSaveEdits(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)
	out, v := testOutput()
	if err := out.SaveFull(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	v.DrawBounds(cube(45, 58), 255)
	v.DrawBounds(cube(2, 6), 0)
	if err := out.SaveEdits(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	names, err := store.Names(ctx, editedPrefix("segs", "seg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 4 {
		t.Errorf("expected a header and payload per edit, got %v", names)
	}

	loadedOut, loaded := emptyOutput()
	if err := loadedOut.Load(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	sameVoxels(t, v, loaded)
	if got := len(loaded.EditedRegions()); got != 2 {
		t.Errorf("expected 2 restored edited regions, got %d", got)
	}

	if err := out.SaveFull(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	if names, _ = store.Names(ctx, editedPrefix("segs", "seg")); len(names) != 0 {
		t.Errorf("full save left edit files %v", names)
	}
	if found, _ := store.Exists(ctx, EditedListName("segs", "seg")); found {
		t.Errorf("full save left the edited region list")
	}
}

func TestSaveEditsAfterShrink(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)
	out, v := testOutput()
	if err := out.SaveFull(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	v.DrawBounds(cube(45, 58), 255)
	if err := out.SaveEdits(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}

	// The first edit now lies outside the bounds and is not saved again.
	v.ResizeBounds(cube(0, 40))
	v.DrawBounds(cube(30, 35), 255)
	if err := out.SaveEdits(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	names, err := store.Names(ctx, editedPrefix("segs", "seg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("expected only the second edit stored, got %v", names)
	}
	for _, name := range names {
		if strings.HasPrefix(name, editedPrefix("segs", "seg")+"0.") {
			t.Errorf("earlier edit file %q left in store", name)
		}
	}

	loadedOut, loaded := emptyOutput()
	if err := loadedOut.Load(ctx, store, "segs"); err != nil {
		t.Fatal(err)
	}
	sameVoxels(t, v, loaded)
}

func TestLoadMissing(t *testing.T) {
	out, _ := emptyOutput()
	if err := out.Load(context.Background(), memStore(t), "segs"); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected incomplete error, got %v", err)
	}
	if err := NewOutput("seg").SaveFull(context.Background(), memStore(t), "segs"); err == nil {
		t.Errorf("expected error saving an output without a volume")
	}
}

func TestVersions(t *testing.T) {
	s := Versions()
	for _, want := range []string{"segvol datastore", string(segvol.MarchingCubesMesh)} {
		if !strings.Contains(s, want) {
			t.Errorf("versions chart lacks %q:\n%s", want, s)
		}
	}
}
