package testbed

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Script is a replay scene: the initial scene followed by frames of edits.
type Script struct {
	Materials  []*MaterialBlock  `hcl:"material,block"`
	Instancers []*InstancerBlock `hcl:"instancer,block"`
	Meshes     []*MeshBlock      `hcl:"mesh,block"`
	Frames     []*FrameBlock     `hcl:"frame,block"`
}

type MaterialBlock struct {
	Path string `hcl:"path,label"`
}

type InstancerBlock struct {
	ID         string      `hcl:"id,label"`
	Transforms [][]float32 `hcl:"transforms,optional"`
}

type MeshBlock struct {
	ID          string          `hcl:"id,label"`
	Scheme      string          `hcl:"scheme,optional"`
	Orientation string          `hcl:"orientation,optional"`
	FaceCounts  []int32         `hcl:"face_counts,optional"`
	Vertices    []int32         `hcl:"vertices,optional"`
	Points      []float32       `hcl:"points,optional"`
	Part        string          `hcl:"part,optional"`
	Material    string          `hcl:"material,optional"`
	Instancer   string          `hcl:"instancer,optional"`
	Categories  []string        `hcl:"categories,optional"`
	Transform   []float32       `hcl:"transform,optional"`
	Primvars    []*PrimvarBlock `hcl:"primvar,block"`
	Subdiv      *SubdivBlock    `hcl:"subdiv,block"`
}

type PrimvarBlock struct {
	Name          string    `hcl:"name,label"`
	Interpolation string    `hcl:"interpolation"`
	TupleSize     int       `hcl:"tuple_size,optional"`
	Values        []float32 `hcl:"values"`
}

type SubdivBlock struct {
	InterpolateBoundary string    `hcl:"interpolate_boundary,optional"`
	FaceVarying         string    `hcl:"face_varying,optional"`
	CreaseIndices       []int32   `hcl:"crease_indices,optional"`
	CreaseLengths       []int32   `hcl:"crease_lengths,optional"`
	CreaseWeights       []float32 `hcl:"crease_weights,optional"`
	CornerIndices       []int32   `hcl:"corner_indices,optional"`
	CornerWeights       []float32 `hcl:"corner_weights,optional"`
	Holes               []int32   `hcl:"holes,optional"`
}

// FrameBlock holds the edits applied before frame Number is synced.
type FrameBlock struct {
	Number     string            `hcl:"number,label"`
	Meshes     []*MeshBlock      `hcl:"mesh,block"`
	Instancers []*InstancerBlock `hcl:"instancer,block"`
	Edits      []*EditBlock      `hcl:"edit,block"`
	Remove     []string          `hcl:"remove,optional"`

	frame uint64
}

type EditBlock struct {
	Prim           string          `hcl:"prim,label"`
	Points         []float32       `hcl:"points,optional"`
	Transform      []float32       `hcl:"transform,optional"`
	Material       *string         `hcl:"material,optional"`
	Visible        *bool           `hcl:"visible,optional"`
	Categories     []string        `hcl:"categories,optional"`
	Instancer      *string         `hcl:"instancer,optional"`
	Scheme         *string         `hcl:"scheme,optional"`
	Part           *string         `hcl:"part,optional"`
	Primvars       []*PrimvarBlock `hcl:"primvar,block"`
	RemovePrimvars []string        `hcl:"remove_primvars,optional"`
	Subdiv         *SubdivBlock    `hcl:"subdiv,block"`
}

func newHCLEvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	if vars == nil {
		vars = map[string]cty.Value{}
	}
	return &hcl.EvalContext{
		Variables: vars,
		Functions: map[string]function.Function{
			"concat":    stdlib.ConcatFunc,
			"range":     stdlib.RangeFunc,
			"translate": matrixFunc([]string{"x", "y", "z"}, func(a []float32) math.Mat4 { return math.NewMat4Translation(math.NewVec3(a[0], a[1], a[2])) }),
			"scale":     matrixFunc([]string{"x", "y", "z"}, func(a []float32) math.Mat4 { return math.NewMat4Scale(math.NewVec3(a[0], a[1], a[2])) }),
			"rotate_y":  matrixFunc([]string{"degrees"}, func(a []float32) math.Mat4 { return math.NewMat4EulerY(math.DegToRad(a[0])) }),
			"rotate":    matrixFunc([]string{"x", "y", "z"}, func(a []float32) math.Mat4 { return eulerDegrees(a[0], a[1], a[2]) }),
			"compose":   composeFunc,
		},
	}
}

func eulerDegrees(x, y, z float32) math.Mat4 {
	return math.NewMat4EulerXYZ(math.DegToRad(x), math.DegToRad(y), math.DegToRad(z))
}

// matrixFunc builds an HCL function returning the 16 elements of a matrix.
func matrixFunc(params []string, build func(args []float32) math.Mat4) function.Function {
	ps := make([]function.Parameter, len(params))
	for i, name := range params {
		ps[i] = function.Parameter{Name: name, Type: cty.Number}
	}
	return function.New(&function.Spec{
		Params: ps,
		Type:   function.StaticReturnType(cty.List(cty.Number)),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			fs := make([]float32, len(args))
			for i, a := range args {
				f, _ := a.AsBigFloat().Float64()
				fs[i] = float32(f)
			}
			return matrixValue(build(fs)), nil
		},
	})
}

var composeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "a", Type: cty.List(cty.Number)},
		{Name: "b", Type: cty.List(cty.Number)},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		a, err := matrixFromValue(args[0])
		if err != nil {
			return cty.NilVal, err
		}
		b, err := matrixFromValue(args[1])
		if err != nil {
			return cty.NilVal, err
		}
		return matrixValue(a.Mul(b)), nil
	},
})

func matrixValue(m math.Mat4) cty.Value {
	vals := make([]cty.Value, len(m.Data))
	for i, v := range m.Data {
		vals[i] = cty.NumberFloatVal(float64(v))
	}
	return cty.ListVal(vals)
}

func matrixFromValue(v cty.Value) (math.Mat4, error) {
	if v.LengthInt() != 16 {
		return math.Mat4{}, fmt.Errorf("a matrix needs 16 elements, got %d", v.LengthInt())
	}
	var m math.Mat4
	for i, e := range v.AsValueSlice() {
		f, _ := e.AsBigFloat().Float64()
		m.Data[i] = float32(f)
	}
	return m, nil
}

// DecodeScript parses a replay script. vars are exposed to the script as
// string variables, next to the number variable fps.
func DecodeScript(filename string, src []byte, fps float32, vars map[string]string) (*Script, error) {
	values := map[string]cty.Value{"fps": cty.NumberFloatVal(float64(fps))}
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}

	var s Script
	if err := hclsimple.Decode(filename, src, newHCLEvalContext(values), &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &s, nil
}

func (s *Script) validate() error {
	seen := make(map[uint64]bool, len(s.Frames))
	for _, f := range s.Frames {
		n, err := strconv.ParseUint(f.Number, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("frame %q: frame numbers start at 1", f.Number)
		}
		if seen[n] {
			return fmt.Errorf("frame %d is defined twice", n)
		}
		seen[n] = true
		f.frame = n
	}
	sort.Slice(s.Frames, func(i, j int) bool { return s.Frames[i].frame < s.Frames[j].frame })

	meshes := append([]*MeshBlock(nil), s.Meshes...)
	for _, f := range s.Frames {
		meshes = append(meshes, f.Meshes...)
	}
	for _, m := range meshes {
		if m.Part == "" && len(m.FaceCounts) == 0 {
			return fmt.Errorf("mesh %s needs face_counts or a part", m.ID)
		}
		for _, pv := range m.Primvars {
			if _, err := pv.interpolation(); err != nil {
				return fmt.Errorf("mesh %s: %w", m.ID, err)
			}
		}
	}
	for _, i := range s.Instancers {
		if _, err := i.matrices(); err != nil {
			return fmt.Errorf("instancer %s: %w", i.ID, err)
		}
	}
	return nil
}

// FrameCount is the number of frames the script needs.
func (s *Script) FrameCount() uint64 {
	if len(s.Frames) == 0 {
		return 1
	}
	return s.Frames[len(s.Frames)-1].frame
}

func (m *MeshBlock) topology() delegate.MeshTopology {
	scheme := m.Scheme
	if scheme == "" {
		scheme = delegate.SchemeNone
	}
	return delegate.MeshTopology{
		Scheme:            scheme,
		Orientation:       m.Orientation,
		FaceVertexCounts:  m.FaceCounts,
		FaceVertexIndices: m.Vertices,
	}
}

func (p *PrimvarBlock) interpolation() (attrib.Interpolation, error) {
	for i := attrib.InterpolationConstant; i <= attrib.InterpolationInstance; i++ {
		if i.String() == p.Interpolation {
			return i, nil
		}
	}
	return 0, fmt.Errorf("primvar %s: unknown interpolation %q", p.Name, p.Interpolation)
}

func (p *PrimvarBlock) store() *attrib.Store {
	tuple := p.TupleSize
	if tuple <= 0 {
		tuple = 1
	}
	return attrib.NewFloat32Store(p.Values, tuple, attrib.RoleNone)
}

func (s *SubdivBlock) tags() delegate.SubdivTags {
	return delegate.SubdivTags{
		VertexInterpolationRule:      s.InterpolateBoundary,
		FaceVaryingInterpolationRule: s.FaceVarying,
		CreaseIndices:                s.CreaseIndices,
		CreaseLengths:                s.CreaseLengths,
		CreaseWeights:                s.CreaseWeights,
		CornerIndices:                s.CornerIndices,
		CornerWeights:                s.CornerWeights,
		HoleIndices:                  s.Holes,
	}
}

func (i *InstancerBlock) matrices() ([]math.Mat4, error) {
	out := make([]math.Mat4, len(i.Transforms))
	for n, t := range i.Transforms {
		if len(t) != 16 {
			return nil, fmt.Errorf("transform %d has %d elements, want 16", n, len(t))
		}
		out[n] = math.NewMat4FromSlice(t)
	}
	return out, nil
}

func transformSample(values []float32) ([]math.TimedMat4, error) {
	if len(values) != 16 {
		return nil, fmt.Errorf("transform has %d elements, want 16", len(values))
	}
	return []math.TimedMat4{{Matrix: math.NewMat4FromSlice(values)}}, nil
}
