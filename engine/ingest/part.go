package ingest

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
)

// canonicalAttribs lists the well known attributes and the tuple size the
// renderer expects them in.
var canonicalAttribs = map[string]struct {
	size int
	role attrib.TypeRole
}{
	"P":  {3, attrib.RolePoint},
	"N":  {3, attrib.RoleNormal},
	"v":  {3, attrib.RoleVector},
	"uv": {3, attrib.RoleTexCoord},
	"Cd": {3, attrib.RoleColor},
}

// ReadOptions controls how a part is loaded.
type ReadOptions struct {
	// ReverseWinding flips every polygon, keeping its first vertex.
	ReverseWinding bool
}

// Part is a fully loaded piece of procedural geometry.
type Part struct {
	Info       PartInfo
	FaceCounts []int32
	Vertices   []int32
	Attributes [NumOwners][]Attribute
}

// Interpolation returns the interpolation for owner on this part.
func (p *Part) Interpolation(owner Owner) attrib.Interpolation {
	if p.Info.Curve {
		return CurveOwnerInterpolation(owner)
	}
	return MeshOwnerInterpolation(owner)
}

// Find returns the attribute called name on owner.
func (p *Part) Find(owner Owner, name string) (*Attribute, bool) {
	for i := range p.Attributes[owner] {
		if p.Attributes[owner][i].Name == name {
			return &p.Attributes[owner][i], true
		}
	}
	return nil, false
}

// ReadPart loads topology and every attribute of a part. Attributes that
// fail to ingest are reported to scope and skipped; only a failure to read
// the topology itself is returned.
func ReadPart(s Session, part int, opts ReadOptions, table *attrib.StringTable, scope *core.ErrorScope) (*Part, error) {
	info, err := s.Part(part)
	if err != nil {
		return nil, fmt.Errorf("part %d: %w: %v", part, core.ErrSessionQueryFailed, err)
	}
	p := &Part{Info: info}

	if !info.Curve && info.FaceCount > 0 {
		if p.FaceCounts, err = s.FaceCounts(part); err != nil {
			return nil, fmt.Errorf("part %d face counts: %w: %v", part, core.ErrSessionQueryFailed, err)
		}
		if p.Vertices, err = s.VertexList(part); err != nil {
			return nil, fmt.Errorf("part %d vertex list: %w: %v", part, core.ErrSessionQueryFailed, err)
		}
	}

	var indirect []int32
	if opts.ReverseWinding && len(p.FaceCounts) > 0 {
		indirect = math.ReversePolygons(p.FaceCounts, len(p.Vertices))
		p.Vertices = math.ApplyIndirect(p.Vertices, 1, indirect)
	}

	for owner := Owner(0); owner < NumOwners; owner++ {
		names, err := s.AttributeNames(part, owner)
		if err != nil {
			scope.ReportError(core.NewIngestError(core.ErrCodeSessionQueryFailed, owner.String(),
				fmt.Errorf("%w: %v", core.ErrSessionQueryFailed, err)))
			continue
		}
		for _, name := range names {
			d, err := s.AttributeInfo(part, name, owner)
			if err != nil {
				scope.ReportError(core.NewIngestError(core.ErrCodeSessionQueryFailed, name,
					fmt.Errorf("%w: %v", core.ErrSessionQueryFailed, err)))
				continue
			}
			if !d.Exists {
				continue
			}
			if c, ok := canonicalAttribs[name]; ok && d.Role == attrib.RoleNone {
				d.Role = c.role
			}

			store, err := Ingest(s, part, d, table)
			if err != nil {
				scope.ReportError(err)
				continue
			}

			a := Attribute{Name: name, Owner: owner, Store: store}
			if c, ok := canonicalAttribs[name]; ok {
				ConvertTupleSize(&a, c.size)
			}
			if indirect != nil && owner == OwnerVertex && store.Entries() == len(indirect) {
				a.Store = reorder(a.Store, indirect, table)
			}
			p.Attributes[owner] = append(p.Attributes[owner], a)
		}
	}

	core.LogDebug("read part %d (%s): %d faces, %d points", part, info.Name, len(p.FaceCounts), info.PointCount)
	return p, nil
}

func reorder(s *attrib.Store, indirect []int32, table *attrib.StringTable) *attrib.Store {
	tuple := s.TupleSize()
	switch s.Storage() {
	case attrib.StorageInt32:
		return attrib.NewInt32Store(math.ApplyIndirect(s.Int32s(), tuple, indirect), tuple, s.Role())
	case attrib.StorageInt64:
		return attrib.NewInt64Store(math.ApplyIndirect(s.Int64s(), tuple, indirect), tuple, s.Role())
	case attrib.StorageFloat32:
		return attrib.NewFloat32Store(math.ApplyIndirect(s.Float32s(), tuple, indirect), tuple, s.Role())
	case attrib.StorageFloat64:
		return attrib.NewFloat64Store(math.ApplyIndirect(s.Float64s(), tuple, indirect), tuple, s.Role())
	case attrib.StorageString:
		return attrib.NewStringStore(math.ApplyIndirect(s.Strings(), tuple, indirect), tuple, table)
	}
	return s
}
