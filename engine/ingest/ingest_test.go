package ingest

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func quadSession(t *testing.T) (*MemorySession, int) {
	t.Helper()
	s := NewMemorySession()
	id := s.AddPart("quad", []int32{4}, []int32{0, 1, 2, 3}, 4)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.SetAttribute(id, Descriptor{Name: "P", Owner: OwnerPoint, TupleSize: 3},
		[]float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}))
	must(s.SetAttribute(id, Descriptor{Name: "uv", Owner: OwnerVertex, TupleSize: 2},
		[]float32{0, 0, 1, 0, 1, 1, 0, 1}))
	must(s.SetAttribute(id, Descriptor{Name: "name", Owner: OwnerPrim, TupleSize: 1},
		[]string{"piece0"}))
	must(s.SetAttribute(id, Descriptor{Name: "id", Owner: OwnerDetail, TupleSize: 1},
		[]int64{42}))
	return s, id
}

func TestIngestThenResizeTuple(t *testing.T) {
	s := NewMemorySession()
	id := s.AddPart("pts", nil, nil, 3)
	if err := s.SetAttribute(id, Descriptor{Name: "rest", Owner: OwnerPoint, TupleSize: 2}, []float32{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	d, _ := s.AttributeInfo(id, "rest", OwnerPoint)
	store, err := Ingest(s, id, d, attrib.NewStringTable())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if s.Transfers("rest") != 1 {
		t.Errorf("bulk transfers = %d, want 1", s.Transfers("rest"))
	}

	store.ResizeTuple(3)
	if store.Entries() != 3 || store.TupleSize() != 3 {
		t.Fatalf("got %v", store)
	}
	if diff := cmp.Diff([]float32{1, 2, 0, 3, 4, 0, 5, 6, 0}, store.Float32s()); diff != "" {
		t.Errorf("resized mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestStringsAreInterned(t *testing.T) {
	s := NewMemorySession()
	id := s.AddPart("names", nil, nil, 0)
	if err := s.SetAttribute(id, Descriptor{Name: "shop", Owner: OwnerPrim, TupleSize: 1}, []string{"a", "b", "a", "a"}); err != nil {
		t.Fatal(err)
	}
	table := attrib.NewStringTable()
	d, _ := s.AttributeInfo(id, "shop", OwnerPrim)
	store, err := Ingest(s, id, d, table)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "a", "a"}, store.Strings()); diff != "" {
		t.Errorf("strings mismatch (-want +got):\n%s", diff)
	}
	if table.Len() != 2 {
		t.Errorf("table holds %d strings, want 2", table.Len())
	}
}

func TestIngestErrors(t *testing.T) {
	s := NewMemorySession()
	id := s.AddPart("bad", nil, nil, 2)
	_ = s.SetAttribute(id, Descriptor{Name: "short", Owner: OwnerPoint, TupleSize: 2, Count: 4}, []float32{1, 2, 3, 4, 5, 6})
	_ = s.SetAttribute(id, Descriptor{Name: "flaky", Owner: OwnerPoint, TupleSize: 1}, []int32{1, 2})
	s.FailAttribute("flaky", errors.New("pipe closed"))

	flaky, _ := s.AttributeInfo(id, "flaky", OwnerPoint)
	short, _ := s.AttributeInfo(id, "short", OwnerPoint)

	tests := []struct {
		name     string
		desc     Descriptor
		code     core.ErrorCode
		sentinel error
	}{
		{"unsupported", Descriptor{Name: "x", Count: 1, TupleSize: 1, Storage: attrib.StorageInvalid}, core.ErrCodeUnsupportedStorageType, core.ErrUnsupportedStorageType},
		{"session failure", flaky, core.ErrCodeSessionQueryFailed, core.ErrSessionQueryFailed},
		{"count mismatch", short, core.ErrCodeMalformedAttribute, core.ErrMalformedAttributeDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(s, id, tt.desc, attrib.NewStringTable())
			if err == nil {
				t.Fatal("expected an error")
			}
			if core.CodeOf(err) != tt.code {
				t.Errorf("code = %s, want %s", core.CodeOf(err), tt.code)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
		})
	}
}

func TestIngestZeroCount(t *testing.T) {
	store, err := Ingest(NewMemorySession(), 0, Descriptor{Name: "empty", Storage: attrib.StorageFloat32, TupleSize: 3}, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if store.Entries() != 0 || store.TupleSize() != 3 {
		t.Errorf("got %v", store)
	}
}

func TestReadPart(t *testing.T) {
	s, id := quadSession(t)
	scope := core.NewErrorScope("read")
	p, err := ReadPart(s, id, ReadOptions{}, attrib.NewStringTable(), scope)
	if err != nil {
		t.Fatalf("ReadPart: %v", err)
	}
	if scope.HasErrors() {
		t.Fatalf("unexpected errors %+v", scope.Errors())
	}

	uv, ok := p.Find(OwnerVertex, "uv")
	if !ok {
		t.Fatal("uv missing")
	}
	if uv.Store.TupleSize() != 3 || uv.Store.Role() != attrib.RoleTexCoord {
		t.Errorf("uv not promoted: %v role %s", uv.Store, uv.Store.Role())
	}
	if got := p.Interpolation(OwnerVertex); got != attrib.InterpolationFaceVarying {
		t.Errorf("vertex owner interpolation = %s", got)
	}
	name, _ := p.Find(OwnerPrim, "name")
	if diff := cmp.Diff([]string{"piece0"}, name.Store.Strings()); diff != "" {
		t.Errorf("name mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPartReverseWinding(t *testing.T) {
	s, id := quadSession(t)
	p, err := ReadPart(s, id, ReadOptions{ReverseWinding: true}, attrib.NewStringTable(), core.NewErrorScope("read"))
	if err != nil {
		t.Fatalf("ReadPart: %v", err)
	}
	if diff := cmp.Diff([]int32{0, 3, 2, 1}, p.Vertices); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}
	uv, _ := p.Find(OwnerVertex, "uv")
	want := []float32{0, 0, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0}
	if diff := cmp.Diff(want, uv.Store.Float32s()); diff != "" {
		t.Errorf("uv mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPartSkipsFailedAttributes(t *testing.T) {
	s, id := quadSession(t)
	s.FailAttribute("uv", errors.New("timeout"))
	scope := core.NewErrorScope("read")
	p, err := ReadPart(s, id, ReadOptions{}, attrib.NewStringTable(), scope)
	if err != nil {
		t.Fatalf("ReadPart: %v", err)
	}
	if _, ok := p.Find(OwnerVertex, "uv"); ok {
		t.Error("failed attribute should be skipped")
	}
	if _, ok := p.Find(OwnerPoint, "P"); !ok {
		t.Error("other attributes should still load")
	}
	errs := scope.Errors()
	if len(errs) != 1 || errs[0].Code != core.ErrCodeSessionQueryFailed {
		t.Errorf("unexpected reports %+v", errs)
	}
}

func TestOwnerInterpolation(t *testing.T) {
	tests := []struct {
		owner       Owner
		mesh, curve attrib.Interpolation
	}{
		{OwnerPoint, attrib.InterpolationVertex, attrib.InterpolationVertex},
		{OwnerVertex, attrib.InterpolationFaceVarying, attrib.InterpolationVertex},
		{OwnerPrim, attrib.InterpolationUniform, attrib.InterpolationUniform},
		{OwnerDetail, attrib.InterpolationConstant, attrib.InterpolationConstant},
	}
	for _, tt := range tests {
		if got := MeshOwnerInterpolation(tt.owner); got != tt.mesh {
			t.Errorf("mesh %s -> %s, want %s", tt.owner, got, tt.mesh)
		}
		if got := CurveOwnerInterpolation(tt.owner); got != tt.curve {
			t.Errorf("curve %s -> %s, want %s", tt.owner, got, tt.curve)
		}
	}
}
