package delegate

import (
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/math"
)

// Subdivision schemes.
const (
	SchemeCatmullClark = "catmullClark"
	SchemeCatmark      = "catmark"
	SchemeLoop         = "loop"
	SchemeBilinear     = "bilinear"
	SchemeNone         = "none"
)

// Winding orientations. An empty orientation is treated as left handed.
const (
	OrientationRightHanded = "rightHanded"
	OrientationLeftHanded  = "leftHanded"
)

// IsCatmullClark reports whether scheme belongs to the Catmull-Clark family.
func IsCatmullClark(scheme string) bool {
	return scheme == SchemeCatmullClark || scheme == SchemeCatmark
}

// GeomSubset binds a material to a subset of faces.
type GeomSubset struct {
	ID         string
	MaterialID string
	Indices    []int32
}

// MeshTopology is the connectivity of a mesh prim.
type MeshTopology struct {
	Scheme            string
	Orientation       string
	FaceVertexCounts  []int32
	FaceVertexIndices []int32
	GeomSubsets       []GeomSubset
	RefineLevel       int
}

// LeftHanded reports the winding of the topology.
func (t MeshTopology) LeftHanded() bool {
	return t.Orientation != OrientationRightHanded
}

// DisplayStyle carries per prim display settings.
type DisplayStyle struct {
	RefineLevel int
	FlatShading bool
}

// GeomStyle is how a mesh repr draws its geometry.
type GeomStyle int

const (
	GeomStyleSurf GeomStyle = iota
	GeomStyleEdgeOnly
	GeomStyleEdgeOnSurf
	GeomStyleHull
	GeomStyleHullEdgeOnly
	GeomStyleHullEdgeOnSurf
	GeomStylePoints
)

// HullOnly reports whether only the control cage is drawn.
func (g GeomStyle) HullOnly() bool {
	return g == GeomStyleHull || g == GeomStyleHullEdgeOnly || g == GeomStyleHullEdgeOnSurf
}

// Repr names.
const (
	ReprRefined       = "refined"
	ReprRefinedWire   = "refinedWire"
	ReprHull          = "hull"
	ReprWire          = "wire"
	ReprWireOnSurface = "wireOnSurf"
	ReprPoints        = "points"
)

// GeomStyleForRepr returns the geometry style drawn by repr.
func GeomStyleForRepr(repr string) GeomStyle {
	switch repr {
	case ReprHull:
		return GeomStyleHull
	case ReprWire, ReprRefinedWire:
		return GeomStyleEdgeOnly
	case ReprWireOnSurface:
		return GeomStyleHullEdgeOnSurf
	case ReprPoints:
		return GeomStylePoints
	}
	return GeomStyleSurf
}

// SubdivTags is the creasing metadata of a subdivision mesh.
type SubdivTags struct {
	VertexInterpolationRule      string
	FaceVaryingInterpolationRule string
	CreaseIndices                []int32
	CreaseLengths                []int32
	CreaseWeights                []float32
	CornerIndices                []int32
	CornerWeights                []float32
	HoleIndices                  []int32
}

// PrimvarDescriptor names a primvar and its interpolation.
type PrimvarDescriptor struct {
	Name          string
	Interpolation attrib.Interpolation
	Role          attrib.TypeRole
}

// ChangeTracker holds the dirty state of every prim.
type ChangeTracker interface {
	DirtyBits(id string) DirtyBits
	MarkDirty(id string, bits DirtyBits)
	MarkClean(id string, bits DirtyBits)
}

// SceneDelegate answers every query a prim makes while syncing. Prim ids
// are scene paths.
type SceneDelegate interface {
	ChangeTracker

	MeshTopology(id string) MeshTopology
	DisplayStyle(id string) DisplayStyle
	PrimvarDescriptors(id string, interp attrib.Interpolation) []PrimvarDescriptor
	Primvar(id, name string) (*attrib.Store, bool)
	SubdivTags(id string) SubdivTags
	// TransformSamples returns up to maxSamples world matrices over the
	// shutter, sorted by time. At least one sample is always returned.
	TransformSamples(id string, maxSamples int) []math.TimedMat4
	Visible(id string) bool
	RenderTag(id string) string
	MaterialID(id string) string
	Categories(id string) []string
	InstancerID(id string) string
	InstancerTransforms(instancerID string) []math.Mat4
}

var primvarRenames = map[string]string{
	"points":         "P",
	"normals":        "N",
	"velocities":     "v",
	"accelerations":  "accel",
	"displayColor":   "Cd",
	"displayOpacity": "Alpha",
}

// RendererName maps a primvar name to the attribute name the renderer uses.
func RendererName(primvar string) string {
	if n, ok := primvarRenames[primvar]; ok {
		return n
	}
	return primvar
}

// PrimvarName is the inverse of RendererName.
func PrimvarName(attribute string) string {
	for k, v := range primvarRenames {
		if v == attribute {
			return k
		}
	}
	return attribute
}
