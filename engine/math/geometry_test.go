package math

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPointNormalsPlanarQuad(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	// counter-clockwise seen from +Z, so the left-handed result points to -Z
	normals := PointNormals([]int32{4}, []int32{0, 1, 2, 3}, points)
	want := NewVec3(0, 0, -1)
	for i, n := range normals {
		if !n.Compare(want, 1e-6) {
			t.Errorf("normal[%d] = %+v, want %+v", i, n, want)
		}
	}
}

func TestPointNormalsSkipsBadFaces(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := PointNormals([]int32{3, 3}, []int32{0, 2, 1, 0, 1, 9}, points)
	want := NewVec3(0, 0, 1)
	for i, n := range normals {
		if !n.Compare(want, 1e-6) {
			t.Errorf("normal[%d] = %+v, want %+v", i, n, want)
		}
	}
}

func TestReversePolygons(t *testing.T) {
	indirect := ReversePolygons([]int32{4, 3}, 7)
	want := []int32{0, 3, 2, 1, 4, 6, 5}
	if diff := cmp.Diff(want, indirect); diff != "" {
		t.Fatalf("indirection mismatch (-want +got):\n%s", diff)
	}

	vlist := []int32{10, 11, 12, 13, 20, 21, 22}
	if diff := cmp.Diff([]int32{10, 13, 12, 11, 20, 22, 21}, ApplyIndirect(vlist, 1, indirect)); diff != "" {
		t.Errorf("reversed list mismatch (-want +got):\n%s", diff)
	}

	uv := []float32{0, 0, 1, 0, 1, 1, 0, 1}
	got := ApplyIndirect(uv, 2, ReversePolygons([]int32{4}, 4))
	if diff := cmp.Diff([]float32{0, 0, 0, 1, 1, 1, 1, 0}, got); diff != "" {
		t.Errorf("tuple gather mismatch (-want +got):\n%s", diff)
	}
}

func TestClampLerp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp = %d, want 3", got)
	}
	if got := Lerp(float32(2), 4, 0.5); got != 3 {
		t.Errorf("Lerp = %v, want 3", got)
	}
	a := NewMat4Identity()
	b := NewMat4Translation(NewVec3(2, 0, 0))
	mid := a.Lerp(b, 0.5)
	if !NewVec3Zero().Transform(mid).Compare(NewVec3(1, 0, 0), 1e-6) {
		t.Errorf("Mat4.Lerp translation = %+v", NewVec3Zero().Transform(mid))
	}
}
