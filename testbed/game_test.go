package testbed

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spaghettifunk/meshsync/engine"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func TestDecodeScript(t *testing.T) {
	src := `
instancer "/scatter" {
  transforms = [for i in range(3) : translate(i * 2, 0, 0)]
}

mesh "/m" {
  face_counts = [3]
  vertices    = [0, 1, 2]
  material    = mat
  transform   = compose(scale(2, 2, 2), translate(0, 1, 0))
}

frame "3" {
  remove = ["/m"]
}

frame "2" {
  edit "/m" {
    visible = false
  }
}
`
	s, err := DecodeScript("scene.hcl", []byte(src), 24, map[string]string{"mat": "/materials/x"})
	if err != nil {
		t.Fatalf("DecodeScript: %v", err)
	}
	if s.FrameCount() != 3 {
		t.Errorf("frame count = %d, want 3", s.FrameCount())
	}
	if s.Frames[0].frame != 2 || s.Frames[1].frame != 3 {
		t.Errorf("frames not sorted: %s, %s", s.Frames[0].Number, s.Frames[1].Number)
	}
	if v := s.Frames[0].Edits[0].Visible; v == nil || *v {
		t.Errorf("visible = %v", v)
	}

	m := s.Meshes[0]
	if m.Material != "/materials/x" {
		t.Errorf("material = %q, want the script variable", m.Material)
	}
	if m.Transform[0] != 2 || m.Transform[13] != 1 {
		t.Errorf("composed transform = %v", m.Transform)
	}

	xforms, err := s.Instancers[0].matrices()
	if err != nil {
		t.Fatal(err)
	}
	if len(xforms) != 3 || xforms[2].Data[12] != 4 {
		t.Errorf("instancer transforms = %v", xforms)
	}
}

func TestScriptRotations(t *testing.T) {
	src := `
instancer "/i" {
  transforms = [rotate(0, 90, 0), rotate_y(90)]
}
`
	s, err := DecodeScript("rot.hcl", []byte(src), 24, nil)
	if err != nil {
		t.Fatalf("DecodeScript: %v", err)
	}
	xforms, err := s.Instancers[0].matrices()
	if err != nil {
		t.Fatal(err)
	}
	if !xforms[0].Compare(xforms[1], 1e-5) {
		t.Errorf("rotate(0, 90, 0) = %v, rotate_y(90) = %v", xforms[0].Data, xforms[1].Data)
	}
}

func TestDecodeScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"frame zero", `frame "0" {}`},
		{"frame label", `frame "next" {}`},
		{"duplicate frame", "frame \"2\" {}\nframe \"2\" {}\n"},
		{"mesh without faces", `mesh "/m" {}`},
		{"bad interpolation", `
mesh "/m" {
  face_counts = [3]
  vertices    = [0, 1, 2]
  primvar "x" {
    interpolation = "perPixel"
    values        = [1]
  }
}`},
		{"short transform", `
instancer "/i" {
  transforms = [[1, 0, 0]]
}`},
		{"unknown variable", `
mesh "/m" {
  face_counts = [3]
  vertices    = [0, 1, 2]
  material    = nope
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeScript("bad.hcl", []byte(tt.src), 24, nil); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func runReplay(t *testing.T, path string) (string, *engine.Engine) {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Sync.Workers = 2

	var out bytes.Buffer
	r, err := NewReplay(cfg, path, nil, &out)
	if err != nil {
		t.Fatalf("NewReplay: %v", err)
	}
	e, err := engine.New(r.Game)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := e.Run(r.Frames()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	return out.String(), e
}

func TestReplayBasicScene(t *testing.T) {
	out, e := runReplay(t, "scenes/basic.hcl")

	if e.Scope().HasErrors() {
		t.Fatalf("replay reported errors: %+v", e.Scope().Errors())
	}
	for _, want := range []string{
		"frame 1",
		"/world/quad/instance",
		"/world/scatter/world/rock/0",
		"frame 4",
		metadata.EventDel.String(),
		"events,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output should not be styled")
	}
}

func TestReplaySubdivScene(t *testing.T) {
	out, e := runReplay(t, "scenes/subdiv.hcl")
	if e.Scope().HasErrors() {
		t.Fatalf("replay reported errors: %+v", e.Scope().Errors())
	}
	if !strings.Contains(out, metadata.EventTopology.String()) {
		t.Errorf("scheme change should rebuild topology:\n%s", out)
	}
}

func TestReplayMissingScript(t *testing.T) {
	if _, err := NewReplay(nil, "scenes/missing.hcl", nil, io.Discard); err == nil {
		t.Error("expected an error for a missing script")
	}
}
