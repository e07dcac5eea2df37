package delegate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spaghettifunk/meshsync/engine/attrib"
)

func TestPrimvarDirtyBits(t *testing.T) {
	tests := []struct {
		bits  DirtyBits
		name  string
		dirty bool
	}{
		{DirtyPoints, "points", true},
		{DirtyPoints, "normals", false},
		{DirtyNormals, "normals", true},
		{DirtyWidths, "widths", true},
		{DirtyPrimvar, "displayColor", true},
		{DirtyPrimvar, "points", false},
		{DirtyTopology, "st", false},
	}
	for _, tt := range tests {
		if got := tt.bits.IsPrimvarDirty(tt.name); got != tt.dirty {
			t.Errorf("%s.IsPrimvarDirty(%q) = %v, want %v", tt.bits, tt.name, got, tt.dirty)
		}
	}
}

func TestAllSceneDirtyBits(t *testing.T) {
	if AllSceneDirtyBits.Has(Varying) {
		t.Error("Varying must not be part of the scene dirty bits")
	}
	for _, b := range []DirtyBits{DirtyTopology, DirtyCategories, DirtyVolumeField, InitRepr} {
		if !AllSceneDirtyBits.Has(b) {
			t.Errorf("missing %s", b)
		}
	}
	remaining := (DirtyTopology | Varying) &^ AllSceneDirtyBits
	if remaining != Varying {
		t.Errorf("clearing scene bits left %s", remaining)
	}
	if got := (DirtyTopology | DirtyPoints).String(); got != "Points|Topology" {
		t.Errorf("String() = %q", got)
	}
}

func TestGeomStyleHullOnly(t *testing.T) {
	if !GeomStyleForRepr(ReprHull).HullOnly() {
		t.Error("hull repr should draw the hull only")
	}
	if GeomStyleForRepr(ReprRefined).HullOnly() {
		t.Error("refined repr should draw the surface")
	}
}

func TestMemoryDelegateEditsMarkDirty(t *testing.T) {
	d := NewMemoryDelegate()
	d.AddMesh("/World/quad", MeshTopology{Scheme: SchemeBilinear, FaceVertexCounts: []int32{4}, FaceVertexIndices: []int32{0, 1, 2, 3}})
	if d.DirtyBits("/World/quad") != AllSceneDirtyBits {
		t.Fatalf("new prim bits = %s", d.DirtyBits("/World/quad"))
	}
	d.MarkClean("/World/quad", Clean)

	d.SetPoints("/World/quad", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0})
	d.SetMaterialID("/World/quad", "/mtl/red")
	want := DirtyPoints | DirtyMaterialID
	if got := d.DirtyBits("/World/quad"); got != want {
		t.Errorf("bits = %s, want %s", got, want)
	}

	d.SetPrimvar("/World/quad", "displayColor", attrib.InterpolationConstant, attrib.NewFloat32Store([]float32{1, 0, 0}, 3, attrib.RoleColor))
	descs := d.PrimvarDescriptors("/World/quad", attrib.InterpolationVertex)
	if diff := cmp.Diff([]PrimvarDescriptor{{Name: "points", Interpolation: attrib.InterpolationVertex, Role: attrib.RolePoint}}, descs); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}

	d.SetInstancer("/World/quad", "/World/inst")
	d.MarkClean("/World/quad", Clean)
	d.SetInstancerTransforms("/World/inst", nil)
	if !d.DirtyBits("/World/quad").IsInstancerDirty() {
		t.Error("instancer edit did not dirty its prims")
	}
}

func TestPrimvarRenames(t *testing.T) {
	for primvar, attr := range map[string]string{"points": "P", "displayOpacity": "Alpha", "st": "st"} {
		if got := RendererName(primvar); got != attr {
			t.Errorf("RendererName(%q) = %q, want %q", primvar, got, attr)
		}
		if got := PrimvarName(attr); got != primvar {
			t.Errorf("PrimvarName(%q) = %q, want %q", attr, got, primvar)
		}
	}
}
