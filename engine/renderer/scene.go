package renderer

import (
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// Scene is the render scene the sync layer commits to. Implementations must
// be safe for concurrent use since prims sync in parallel.
type Scene interface {
	CreateGeometry(name string, geometry *metadata.Geometry) (metadata.Handle, error)
	SetGeometry(h metadata.Handle, geometry *metadata.Geometry) error
	Geometry(h metadata.Handle) (*metadata.Geometry, bool)
	// CreateInstance creates an object drawing the geometry behind source.
	CreateInstance(source metadata.Handle, name string) (metadata.Handle, error)
	// SetInstanceTransforms stores one list of motion samples per instance.
	SetInstanceTransforms(h metadata.Handle, xforms [][]math.TimedMat4) error
	// UpdateObject notifies the scene of a change. EventDel releases the
	// object and invalidates the handle.
	UpdateObject(h metadata.Handle, event metadata.EventType) error
	SetMaterial(h metadata.Handle, material *metadata.Material, props metadata.OptionSet, facesets []metadata.FacesetMaterial) error
	FindMaterial(path string) *metadata.Material
	// ObjectProperties returns the properties of h, or the scene defaults
	// for an invalid handle.
	ObjectProperties(h metadata.Handle) metadata.OptionSet
	NestedInstancing() bool
}

type SceneType uint8

const (
	MemorySceneType SceneType = iota
)
