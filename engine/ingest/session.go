package ingest

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/attrib"
)

// Owner is the element class a procedural attribute is attached to.
type Owner int

const (
	OwnerVertex Owner = iota
	OwnerPoint
	OwnerPrim
	OwnerDetail

	NumOwners = 4
)

func (o Owner) String() string {
	switch o {
	case OwnerVertex:
		return "vertex"
	case OwnerPoint:
		return "point"
	case OwnerPrim:
		return "prim"
	case OwnerDetail:
		return "detail"
	}
	return fmt.Sprintf("owner(%d)", int(o))
}

// MeshOwnerInterpolation maps an owner to the interpolation used on meshes.
func MeshOwnerInterpolation(o Owner) attrib.Interpolation {
	switch o {
	case OwnerPoint:
		return attrib.InterpolationVertex
	case OwnerVertex:
		return attrib.InterpolationFaceVarying
	case OwnerPrim:
		return attrib.InterpolationUniform
	}
	return attrib.InterpolationConstant
}

// CurveOwnerInterpolation maps an owner to the interpolation used on curves,
// where points and vertices coincide.
func CurveOwnerInterpolation(o Owner) attrib.Interpolation {
	switch o {
	case OwnerPoint, OwnerVertex:
		return attrib.InterpolationVertex
	case OwnerPrim:
		return attrib.InterpolationUniform
	}
	return attrib.InterpolationConstant
}

// Descriptor describes one attribute as reported by the session.
type Descriptor struct {
	Name      string
	Owner     Owner
	Count     int
	TupleSize int
	Storage   attrib.StorageType
	Role      attrib.TypeRole
	Exists    bool
}

// PartInfo describes one piece of cooked geometry.
type PartInfo struct {
	ID          int
	Name        string
	FaceCount   int
	VertexCount int
	PointCount  int
	Curve       bool
}

// Session is the procedural engine connection. Every data call transfers a
// whole attribute at once. Implementations own their retry policy.
type Session interface {
	Part(part int) (PartInfo, error)
	FaceCounts(part int) ([]int32, error)
	VertexList(part int) ([]int32, error)
	AttributeNames(part int, owner Owner) ([]string, error)
	AttributeInfo(part int, name string, owner Owner) (Descriptor, error)

	IntData(part int, d Descriptor) ([]int32, error)
	Int64Data(part int, d Descriptor) ([]int64, error)
	FloatData(part int, d Descriptor) ([]float32, error)
	Float64Data(part int, d Descriptor) ([]float64, error)
	// StringData returns string handles, resolved through String.
	StringData(part int, d Descriptor) ([]int32, error)
	String(handle int32) (string, error)
}
