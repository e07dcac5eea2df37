package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/ingest"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// PartSuffix is the file suffix of procedural part assets.
const PartSuffix = ".part.hcl"

type partFile struct {
	Name           string            `hcl:"name,optional"`
	ReverseWinding bool              `hcl:"reverse_winding,optional"`
	FaceCounts     []int32           `hcl:"face_counts"`
	Vertices       []int32           `hcl:"vertices"`
	PointCount     int               `hcl:"point_count,optional"`
	Attributes     []*attributeBlock `hcl:"attribute,block"`
}

type attributeBlock struct {
	Name      string    `hcl:"name,label"`
	Owner     string    `hcl:"owner"`
	TupleSize int       `hcl:"tuple_size,optional"`
	Storage   string    `hcl:"storage,optional"`
	Floats    []float64 `hcl:"floats,optional"`
	Ints      []int64   `hcl:"ints,optional"`
	Strings   []string  `hcl:"strings,optional"`
}

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"concat": stdlib.ConcatFunc,
			"range":  stdlib.RangeFunc,
		},
	}
}

// PartLoader reads *.part.hcl files into ingest parts.
type PartLoader struct{}

func (pl *PartLoader) Load(path string, params LoadParams) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	part, err := DecodePart(path, src, params)
	if err != nil {
		return nil, err
	}
	return &Asset{
		Name:     part.Info.Name,
		FullPath: path,
		Type:     AssetTypePart,
		ModTime:  info.ModTime(),
		Data:     part,
	}, nil
}

func (pl *PartLoader) Unload(asset *Asset) error {
	asset.Data = nil
	return nil
}

// DecodePart parses a part description and pulls it through an in memory
// procedural session, so the part gets the same tuple size conversion and
// winding handling as a live session would apply.
func DecodePart(filename string, src []byte, params LoadParams) (*ingest.Part, error) {
	var pf partFile
	if err := hclsimple.Decode(filename, src, newHCLEvalContext(), &pf); err != nil {
		return nil, err
	}
	if pf.Name == "" {
		pf.Name = strings.TrimSuffix(filepath.Base(filename), PartSuffix)
	}
	if params.Strings == nil {
		params.Strings = attrib.NewStringTable()
	}
	if params.Scope == nil {
		params.Scope = core.NewErrorScope(filename)
	}

	points := pf.PointCount
	if points == 0 {
		points = impliedPointCount(pf.Attributes)
	}

	s := ingest.NewMemorySession()
	id := s.AddPart(pf.Name, pf.FaceCounts, pf.Vertices, points)
	for _, a := range pf.Attributes {
		owner, err := parseOwner(a.Owner)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", filename, a.Name, err)
		}
		d := ingest.Descriptor{Name: a.Name, Owner: owner, TupleSize: a.TupleSize}
		if d.TupleSize <= 0 {
			d.TupleSize = 1
		}
		data, err := a.data()
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", filename, a.Name, err)
		}
		if err := s.SetAttribute(id, d, data); err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", filename, a.Name, err)
		}
	}

	return ingest.ReadPart(s, id, ingest.ReadOptions{ReverseWinding: pf.ReverseWinding}, params.Strings, params.Scope)
}

func (a *attributeBlock) data() (interface{}, error) {
	set := 0
	for _, n := range []int{len(a.Floats), len(a.Ints), len(a.Strings)} {
		if n > 0 {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of floats, ints or strings must be set")
	}

	switch {
	case len(a.Floats) > 0:
		switch a.Storage {
		case "", "float32":
			out := make([]float32, len(a.Floats))
			for i, f := range a.Floats {
				out[i] = float32(f)
			}
			return out, nil
		case "float64":
			return a.Floats, nil
		}
	case len(a.Ints) > 0:
		switch a.Storage {
		case "", "int32":
			out := make([]int32, len(a.Ints))
			for i, v := range a.Ints {
				out[i] = int32(v)
			}
			return out, nil
		case "int64":
			return a.Ints, nil
		}
	default:
		if a.Storage == "" || a.Storage == "string" {
			return a.Strings, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedStorageType, a.Storage)
}

func impliedPointCount(attribs []*attributeBlock) int {
	for _, a := range attribs {
		if a.Name == "P" && a.Owner == "point" {
			tuple := a.TupleSize
			if tuple <= 0 {
				tuple = 1
			}
			return len(a.Floats) / tuple
		}
	}
	return 0
}

func parseOwner(s string) (ingest.Owner, error) {
	for o := ingest.Owner(0); o < ingest.NumOwners; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown owner %q", s)
}
