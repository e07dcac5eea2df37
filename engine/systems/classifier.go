package systems

import (
	"strconv"
	"strings"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// objectPropertyPrefix marks constant primvars that carry object properties
// instead of shading data.
const objectPropertyPrefix = "render:object:"

// Classification is what a prim has to rebuild during one pass.
type Classification struct {
	Event          metadata.EventType
	TopologyDirty  bool
	TransformDirty bool
	PropsChanged   bool
	// SubdivTagsDirty is only set with a refine level above zero. The
	// caller still has to check the scheme.
	SubdivTagsDirty bool
	RefineLevel     int
	// MaterialPath is the resolved material binding, empty when it was not
	// resolved or the prim has no material.
	MaterialPath string
	Props        metadata.OptionSet
	Transforms   []math.TimedMat4
}

// ClassifierState is the cached prim state the classifier compares against.
type ClassifierState struct {
	Props       metadata.OptionSet
	ObjectID    int
	HasGeometry bool
}

// DirtyClassifier turns dirty bits into a Classification.
type DirtyClassifier struct {
	motion MotionConfig
}

func NewDirtyClassifier(motion MotionConfig) DirtyClassifier {
	return DirtyClassifier{motion: motion}
}

// Classify evaluates every rule independently. Event flags only accumulate.
func (c DirtyClassifier) Classify(d delegate.SceneDelegate, id string, state ClassifierState, bits delegate.DirtyBits) Classification {
	out := Classification{Props: state.Props.Clone()}
	materialResolved := false

	if bits.IsMaterialIDDirty() {
		out.MaterialPath = d.MaterialID(id)
		materialResolved = true
		out.Event |= metadata.EventMaterial
	}

	if bits.Has(delegate.DirtyPrimvar) {
		if updateObjectPrimvarProperties(d, id, &out.Props) {
			out.PropsChanged = true
			out.Event |= metadata.EventProperties
		}
	}

	if bits.IsVisibilityDirty() {
		out.Props.Visible = d.Visible(id)
		out.Props.RenderTag = d.RenderTag(id)
		out.Event |= metadata.EventProperties
		out.PropsChanged = true
	}

	// Material binding edits arrive with the material bit only, so the
	// trace sets are refreshed for both.
	if bits.IsCategoriesDirty() || bits.IsMaterialIDDirty() {
		out.Props.SetCategories(d.Categories(id))
		out.Event |= metadata.EventTraceset
		out.PropsChanged = true
	}

	if out.Props.ObjectID != state.ObjectID {
		out.Props.ObjectID = state.ObjectID
		out.PropsChanged = true
	}

	if out.PropsChanged && !materialResolved {
		out.MaterialPath = d.MaterialID(id)
	}

	out.TopologyDirty = bits.IsTopologyDirty() || !state.HasGeometry
	if out.TopologyDirty {
		out.Event |= metadata.EventTopology | metadata.EventAttribP | metadata.EventAttrib
	}

	out.RefineLevel = d.DisplayStyle(id).RefineLevel
	out.SubdivTagsDirty = bits.IsSubdivTagsDirty() && out.RefineLevel > 0

	if bits.IsTransformDirty() {
		out.TransformDirty = true
		out.Transforms = c.transformSamples(d, id, out.Props)
	}
	return out
}

// transformSamples fetches the world transform over the shutter. Without
// motion blur a single sample is kept.
func (c DirtyClassifier) transformSamples(d delegate.SceneDelegate, id string, props metadata.OptionSet) []math.TimedMat4 {
	n := 1
	if props.MotionBlur && props.XformSamples > 1 {
		n = props.XformSamples
	}
	samples := d.TransformSamples(id, n)
	if len(samples) == 0 {
		return []math.TimedMat4{{Time: c.motion.ShutterOpen, Matrix: math.NewMat4Identity()}}
	}
	if n == 1 {
		return samples[:1:1]
	}
	if len(samples) == n {
		return samples
	}
	return resampleTransforms(samples, c.motion.ShutterTimes(n))
}

// resampleTransforms blends the authored samples onto the requested times.
func resampleTransforms(samples []math.TimedMat4, times []float32) []math.TimedMat4 {
	out := make([]math.TimedMat4, len(times))
	for i, t := range times {
		out[i] = math.TimedMat4{Time: t, Matrix: sampleAt(samples, t)}
	}
	return out
}

func sampleAt(samples []math.TimedMat4, t float32) math.Mat4 {
	if t <= samples[0].Time {
		return samples[0].Matrix
	}
	for i := 1; i < len(samples); i++ {
		if t <= samples[i].Time {
			a, b := samples[i-1], samples[i]
			span := b.Time - a.Time
			if span <= 0 {
				return b.Matrix
			}
			return a.Matrix.Lerp(b.Matrix, (t-a.Time)/span)
		}
	}
	return samples[len(samples)-1].Matrix
}

// updateObjectPrimvarProperties reads render:object:* constant primvars into
// props and reports whether anything changed.
func updateObjectPrimvarProperties(d delegate.SceneDelegate, id string, props *metadata.OptionSet) bool {
	extra := make(map[string]string)
	for _, desc := range d.PrimvarDescriptors(id, attrib.InterpolationConstant) {
		key, ok := strings.CutPrefix(desc.Name, objectPropertyPrefix)
		if !ok {
			continue
		}
		store, ok := d.Primvar(id, desc.Name)
		if !ok || store.Entries() == 0 {
			continue
		}
		extra[key] = firstValue(store)
	}

	next := props.Clone()
	next.Extra = extra
	if len(extra) == 0 {
		next.Extra = nil
	}
	for key, value := range extra {
		switch key {
		case "motion_blur":
			next.MotionBlur = value == "1" || value == "true"
		case "velocity_blur":
			if v, err := strconv.Atoi(value); err == nil {
				next.VelocityBlur = v
			}
		case "geo_samples":
			if v, err := strconv.Atoi(value); err == nil && v > 0 {
				next.GeoSamples = v
			}
		case "xform_samples":
			if v, err := strconv.Atoi(value); err == nil && v > 0 {
				next.XformSamples = v
			}
		}
	}

	if next.Equal(*props) {
		return false
	}
	*props = next
	return true
}

func firstValue(s *attrib.Store) string {
	switch s.Storage() {
	case attrib.StorageInt32:
		return strconv.FormatInt(int64(s.Int32s()[0]), 10)
	case attrib.StorageInt64:
		return strconv.FormatInt(s.Int64s()[0], 10)
	case attrib.StorageFloat32:
		return strconv.FormatFloat(float64(s.Float32s()[0]), 'g', -1, 32)
	case attrib.StorageFloat64:
		return strconv.FormatFloat(s.Float64s()[0], 'g', -1, 64)
	case attrib.StorageString:
		return s.Strings()[0]
	}
	return ""
}
