package systems

import (
	"io"
	"testing"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer"
)

func init() {
	core.SetLogOutput(io.Discard)
}

type fixture struct {
	d     *delegate.MemoryDelegate
	scene *renderer.MemoryScene
	index *RenderIndex
	scope *core.ErrorScope
}

func newFixture(t *testing.T, nested bool) *fixture {
	t.Helper()
	motion := DefaultMotionConfig()
	d := delegate.NewMemoryDelegate()
	scene := renderer.NewMemoryScene(renderer.SceneOptions{
		Defaults:         motion.Defaults(),
		NestedInstancing: nested,
	})
	scope := core.NewErrorScope("test")
	cfg := DefaultSyncConfig()
	cfg.Workers = 2
	index, err := NewRenderIndex(d, scene, cfg, motion, scope)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Shutdown() })
	return &fixture{d: d, scene: scene, index: index, scope: scope}
}

// sync runs one frame and returns its events.
func (f *fixture) sync(t *testing.T) {
	t.Helper()
	f.scene.AdvanceFrame()
	if err := f.index.SyncAll(); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
}

func quadTopology() delegate.MeshTopology {
	return delegate.MeshTopology{
		Scheme:            delegate.SchemeBilinear,
		FaceVertexCounts:  []int32{4},
		FaceVertexIndices: []int32{0, 1, 2, 3},
	}
}

var quadPoints = []float32{
	0, 0, 0,
	1, 0, 0,
	1, 1, 0,
	0, 1, 0,
}

func (f *fixture) addQuad(id string) *Mesh {
	f.d.AddMesh(id, quadTopology())
	f.d.SetPoints(id, quadPoints)
	return f.index.InsertMesh(id)
}

var cubePoints = []float32{
	0, 0, 0,
	1, 0, 0,
	1, 1, 0,
	0, 1, 0,
	0, 0, 1,
	1, 0, 1,
	1, 1, 1,
	0, 1, 1,
}

// cubeTopology winds every face counter-clockwise seen from outside when
// rightHanded is set, clockwise otherwise.
func cubeTopology(rightHanded bool) delegate.MeshTopology {
	faces := [][]int32{
		{0, 3, 2, 1},
		{4, 5, 6, 7},
		{0, 1, 5, 4},
		{3, 7, 6, 2},
		{0, 4, 7, 3},
		{1, 2, 6, 5},
	}
	top := delegate.MeshTopology{Scheme: delegate.SchemeNone}
	if rightHanded {
		top.Orientation = delegate.OrientationRightHanded
	}
	for _, face := range faces {
		top.FaceVertexCounts = append(top.FaceVertexCounts, int32(len(face)))
		if !rightHanded {
			for i := len(face) - 1; i >= 0; i-- {
				top.FaceVertexIndices = append(top.FaceVertexIndices, face[i])
			}
			continue
		}
		top.FaceVertexIndices = append(top.FaceVertexIndices, face...)
	}
	return top
}

func vec3s(t *testing.T, s *attrib.Store) []math.Vec3 {
	t.Helper()
	if s.TupleSize() != 3 {
		t.Fatalf("tuple size = %d, want 3", s.TupleSize())
	}
	values := s.Float32Tuples()
	out := make([]math.Vec3, s.Entries())
	for i := range out {
		out[i] = math.NewVec3FromSlice(values[i*3 : i*3+3])
	}
	return out
}
