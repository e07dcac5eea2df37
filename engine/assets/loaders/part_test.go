package loaders

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/ingest"
)

func init() {
	core.SetLogOutput(io.Discard)
}

const quadPart = `
name = "quad"
face_counts = [4]
vertices = range(4)

attribute "P" {
  owner = "point"
  tuple_size = 3
  floats = [0, 0, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1]
}

attribute "uv" {
  owner = "vertex"
  tuple_size = 2
  floats = concat([0, 0, 1, 0], [1, 1, 0, 1])
}

attribute "name" {
  owner = "prim"
  strings = ["piece0"]
}

attribute "id" {
  owner = "point"
  storage = "int64"
  ints = [10, 11, 12, 13]
}
`

func TestDecodePart(t *testing.T) {
	scope := core.NewErrorScope("decode")
	p, err := DecodePart("quad.part.hcl", []byte(quadPart), LoadParams{Scope: scope})
	if err != nil {
		t.Fatalf("DecodePart: %v", err)
	}
	if scope.HasErrors() {
		t.Fatalf("unexpected reports %+v", scope.Errors())
	}
	if p.Info.Name != "quad" || p.Info.PointCount != 4 {
		t.Errorf("info = %+v", p.Info)
	}
	if diff := cmp.Diff([]int32{0, 1, 2, 3}, p.Vertices); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}

	uv, ok := p.Find(ingest.OwnerVertex, "uv")
	if !ok {
		t.Fatal("uv missing")
	}
	if uv.Store.TupleSize() != 3 || uv.Store.Entries() != 4 {
		t.Errorf("uv = %v", uv.Store)
	}
	name, _ := p.Find(ingest.OwnerPrim, "name")
	if diff := cmp.Diff([]string{"piece0"}, name.Store.Strings()); diff != "" {
		t.Errorf("name mismatch (-want +got):\n%s", diff)
	}
	id, _ := p.Find(ingest.OwnerPoint, "id")
	if id.Store.Storage() != attrib.StorageInt64 {
		t.Errorf("id storage = %s", id.Store.Storage())
	}
	if diff := cmp.Diff([]int64{10, 11, 12, 13}, id.Store.Int64s()); diff != "" {
		t.Errorf("id mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePartDefaults(t *testing.T) {
	src := `
face_counts = [3]
vertices = [0, 1, 2]
reverse_winding = true

attribute "P" {
  owner = "point"
  tuple_size = 3
  floats = [0, 0, 0, 1, 0, 0, 0, 1, 0]
}
`
	p, err := DecodePart("parts/tri.part.hcl", []byte(src), LoadParams{})
	if err != nil {
		t.Fatalf("DecodePart: %v", err)
	}
	if p.Info.Name != "tri" {
		t.Errorf("name = %q, want file stem", p.Info.Name)
	}
	if p.Info.PointCount != 3 {
		t.Errorf("point count = %d, want it implied by P", p.Info.PointCount)
	}
	if diff := cmp.Diff([]int32{0, 2, 1}, p.Vertices); diff != "" {
		t.Errorf("winding mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePartErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name: "unknown owner",
			src: `
face_counts = [3]
vertices = [0, 1, 2]
attribute "P" {
  owner = "edge"
  floats = [0]
}`,
		},
		{
			name: "two payloads",
			src: `
face_counts = [3]
vertices = [0, 1, 2]
attribute "P" {
  owner = "point"
  floats = [0]
  ints = [0]
}`,
		},
		{
			name: "bad storage",
			src: `
face_counts = [3]
vertices = [0, 1, 2]
attribute "P" {
  owner = "point"
  storage = "float16"
  floats = [0]
}`,
			wantErr: core.ErrUnsupportedStorageType,
		},
		{
			name: "missing topology",
			src:  `name = "x"`,
		},
		{
			name: "syntax",
			src:  `face_counts = [`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePart("bad.part.hcl", []byte(tt.src), LoadParams{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestPartLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.part.hcl")
	if err := os.WriteFile(path, []byte(quadPart), 0o644); err != nil {
		t.Fatal(err)
	}
	pl := &PartLoader{}
	asset, err := pl.Load(path, LoadParams{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Type != AssetTypePart || asset.Name != "quad" || asset.ModTime.IsZero() {
		t.Errorf("asset = %+v", asset)
	}
	if _, ok := asset.Data.(*ingest.Part); !ok {
		t.Errorf("data is %T", asset.Data)
	}
	if err := pl.Unload(asset); err != nil || asset.Data != nil {
		t.Errorf("Unload: %v, data %v", err, asset.Data)
	}

	if _, err := pl.Load(filepath.Join(t.TempDir(), "missing.part.hcl"), LoadParams{}); err == nil {
		t.Error("loading a missing file should fail")
	}
}
