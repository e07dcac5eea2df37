package metadata

import (
	"github.com/spaghettifunk/meshsync/engine/attrib"
)

/** @brief The kind of primitive a geometry holds. */
type GeometryKind int

const (
	GeometryPolygon GeometryKind = iota
	GeometrySubdivision
)

func (k GeometryKind) String() string {
	if k == GeometrySubdivision {
		return "subdivision"
	}
	return "polygon"
}

/**
 * @brief A single subdivision tag: creases, corners, holes or one of the
 * boundary interpolation rules.
 */
type SubdivTag struct {
	Name  string
	Ints  []int32
	Reals []float32
	Value string
}

/**
 * @brief An immutable mesh snapshot handed to the render scene. Once
 * committed neither the buffers nor the attribute lists are written again,
 * so a pending geometry may share them with the committed one.
 */
type Geometry struct {
	/** @brief Polygon or subdivision. */
	Kind GeometryKind
	/** @brief Subdivision scheme used to build the geometry. */
	Scheme string
	/** @brief Number of vertices of each face. */
	FaceCounts []int32
	/** @brief Flattened point indices of every face corner. */
	Vertices []int32
	/** @brief Attribute lists indexed by attrib.Domain. */
	Attributes [attrib.NumDomains]*attrib.List
	/** @brief Subdivision tags, only used by subdivision geometry. */
	Tags []SubdivTag
}

func (g *Geometry) FaceCount() int {
	if g == nil {
		return 0
	}
	return len(g.FaceCounts)
}

// PointCount is the number of entries of the position attribute.
func (g *Geometry) PointCount() int {
	if g == nil {
		return 0
	}
	if p, ok := g.Shared().Get("P"); ok {
		return p.Entries()
	}
	return 0
}

func (g *Geometry) Vertex() *attrib.List  { return g.Attributes[attrib.DomainVertex] }
func (g *Geometry) Shared() *attrib.List  { return g.Attributes[attrib.DomainPoint] }
func (g *Geometry) Uniform() *attrib.List { return g.Attributes[attrib.DomainUniform] }
func (g *Geometry) Detail() *attrib.List  { return g.Attributes[attrib.DomainDetail] }
