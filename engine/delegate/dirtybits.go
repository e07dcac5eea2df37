package delegate

import "strings"

// DirtyBits records what changed on a prim since its last sync.
type DirtyBits uint32

const (
	Clean                 DirtyBits = 0
	InitRepr              DirtyBits = 1 << 0
	Varying               DirtyBits = 1 << 1
	DirtyPrimID           DirtyBits = 1 << 2
	DirtyExtent           DirtyBits = 1 << 3
	DirtyDisplayStyle     DirtyBits = 1 << 4
	DirtyPoints           DirtyBits = 1 << 5
	DirtyPrimvar          DirtyBits = 1 << 6
	DirtyMaterialID       DirtyBits = 1 << 7
	DirtyTopology         DirtyBits = 1 << 8
	DirtyTransform        DirtyBits = 1 << 9
	DirtyVisibility       DirtyBits = 1 << 10
	DirtyNormals          DirtyBits = 1 << 11
	DirtyDoubleSided      DirtyBits = 1 << 12
	DirtyCullStyle        DirtyBits = 1 << 13
	DirtySubdivTags       DirtyBits = 1 << 14
	DirtyWidths           DirtyBits = 1 << 15
	DirtyInstancer        DirtyBits = 1 << 16
	DirtyInstanceIndex    DirtyBits = 1 << 17
	DirtyRepr             DirtyBits = 1 << 18
	DirtyRenderTag        DirtyBits = 1 << 19
	DirtyComputationDesc  DirtyBits = 1 << 20
	DirtyCategories       DirtyBits = 1 << 21
	DirtyVolumeField      DirtyBits = 1 << 22
	AllDirty              DirtyBits = ^DirtyBits(0)
	AllSceneDirtyBits     DirtyBits = (1<<23 - 1) &^ Varying
	dirtyBitsNamedMaximum DirtyBits = DirtyVolumeField
)

var dirtyNames = [...]string{
	"InitRepr", "Varying", "PrimID", "Extent", "DisplayStyle", "Points",
	"Primvar", "MaterialID", "Topology", "Transform", "Visibility", "Normals",
	"DoubleSided", "CullStyle", "SubdivTags", "Widths", "Instancer",
	"InstanceIndex", "Repr", "RenderTag", "ComputationDesc", "Categories",
	"VolumeField",
}

func (b DirtyBits) String() string {
	if b == Clean {
		return "Clean"
	}
	var parts []string
	for i, name := range dirtyNames {
		if b&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if b > dirtyBitsNamedMaximum<<1-1 {
		parts = append(parts, "Custom")
	}
	return strings.Join(parts, "|")
}

func (b DirtyBits) Has(bit DirtyBits) bool    { return b&bit != 0 }
func (b DirtyBits) IsClean() bool             { return b&AllSceneDirtyBits == 0 }
func (b DirtyBits) IsTopologyDirty() bool     { return b&DirtyTopology != 0 }
func (b DirtyBits) IsTransformDirty() bool    { return b&DirtyTransform != 0 }
func (b DirtyBits) IsVisibilityDirty() bool   { return b&DirtyVisibility != 0 }
func (b DirtyBits) IsMaterialIDDirty() bool   { return b&DirtyMaterialID != 0 }
func (b DirtyBits) IsCategoriesDirty() bool   { return b&DirtyCategories != 0 }
func (b DirtyBits) IsSubdivTagsDirty() bool   { return b&DirtySubdivTags != 0 }
func (b DirtyBits) IsDisplayStyleDirty() bool { return b&DirtyDisplayStyle != 0 }
func (b DirtyBits) IsInstancerDirty() bool    { return b&DirtyInstancer != 0 }
func (b DirtyBits) IsPrimIDDirty() bool       { return b&DirtyPrimID != 0 }
func (b DirtyBits) IsAnyPrimvarDirty() bool {
	return b&(DirtyPoints|DirtyNormals|DirtyWidths|DirtyPrimvar) != 0
}

// IsPrimvarDirty reports whether the primvar called name needs a refetch.
// The built in primvars have their own bits, everything else shares
// DirtyPrimvar.
func (b DirtyBits) IsPrimvarDirty(name string) bool {
	switch name {
	case "points":
		return b&DirtyPoints != 0
	case "normals":
		return b&DirtyNormals != 0
	case "widths":
		return b&DirtyWidths != 0
	}
	return b&DirtyPrimvar != 0
}

// PrimvarBit returns the dirty bit tracking the primvar called name.
func PrimvarBit(name string) DirtyBits {
	switch name {
	case "points":
		return DirtyPoints
	case "normals":
		return DirtyNormals
	case "widths":
		return DirtyWidths
	}
	return DirtyPrimvar
}
