package systems

import (
	"testing"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

func classifierDelegate() *delegate.MemoryDelegate {
	d := delegate.NewMemoryDelegate()
	d.AddMesh("/m", quadTopology())
	d.SetPoints("/m", quadPoints)
	return d
}

func TestClassifierRules(t *testing.T) {
	tests := []struct {
		name  string
		bits  delegate.DirtyBits
		event metadata.EventType
		props bool
	}{
		{"clean", delegate.Clean, metadata.EventNone, false},
		{"topology", delegate.DirtyTopology, metadata.EventTopology | metadata.EventAttribP | metadata.EventAttrib, false},
		{"visibility", delegate.DirtyVisibility, metadata.EventProperties, true},
		{"categories", delegate.DirtyCategories, metadata.EventTraceset, true},
		{"material", delegate.DirtyMaterialID, metadata.EventMaterial | metadata.EventTraceset, true},
		{"transform", delegate.DirtyTransform, metadata.EventNone, false},
		{"points", delegate.DirtyPoints, metadata.EventNone, false},
	}
	d := classifierDelegate()
	c := NewDirtyClassifier(DefaultMotionConfig())
	state := ClassifierState{Props: DefaultMotionConfig().Defaults(), HasGeometry: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(d, "/m", state, tt.bits)
			if got.Event != tt.event {
				t.Errorf("event = %s, want %s", got.Event, tt.event)
			}
			if got.PropsChanged != tt.props {
				t.Errorf("propsChanged = %v, want %v", got.PropsChanged, tt.props)
			}
			if got.TransformDirty != tt.bits.IsTransformDirty() {
				t.Errorf("transformDirty = %v", got.TransformDirty)
			}
		})
	}
}

func TestClassifierEventsAccumulate(t *testing.T) {
	d := classifierDelegate()
	d.SetPrimvar("/m", "render:object:motion_blur", attrib.InterpolationConstant, attrib.NewInt32Store([]int32{1}, 1, attrib.RoleNone))
	c := NewDirtyClassifier(DefaultMotionConfig())
	state := ClassifierState{Props: DefaultMotionConfig().Defaults(), HasGeometry: true}

	all := c.Classify(d, "/m", state, delegate.AllSceneDirtyBits)
	for bit := delegate.InitRepr; bit <= delegate.DirtyVolumeField; bit <<= 1 {
		single := c.Classify(d, "/m", state, bit)
		if single.Event&^all.Event != 0 {
			t.Errorf("%s produced %s, not part of %s", bit, single.Event, all.Event)
		}
		if single.PropsChanged && !all.PropsChanged {
			t.Errorf("%s changed props on its own only", bit)
		}
	}
}

func TestClassifierObjectProperties(t *testing.T) {
	d := classifierDelegate()
	d.SetPrimvar("/m", "render:object:motion_blur", attrib.InterpolationConstant, attrib.NewInt32Store([]int32{1}, 1, attrib.RoleNone))
	d.SetPrimvar("/m", "render:object:geo_samples", attrib.InterpolationConstant, attrib.NewInt64Store([]int64{4}, 1, attrib.RoleNone))
	c := NewDirtyClassifier(DefaultMotionConfig())
	state := ClassifierState{Props: DefaultMotionConfig().Defaults(), HasGeometry: true}

	got := c.Classify(d, "/m", state, delegate.DirtyPrimvar)
	if !got.PropsChanged || !got.Event.Has(metadata.EventProperties) {
		t.Fatalf("props not changed: %+v", got)
	}
	if !got.Props.MotionBlur || got.Props.GeoSamples != 4 {
		t.Errorf("props = %+v", got.Props)
	}
	if got.Props.Extra["motion_blur"] != "1" {
		t.Errorf("extra = %v", got.Props.Extra)
	}

	// the same values again are no change
	again := c.Classify(d, "/m", ClassifierState{Props: got.Props, HasGeometry: true}, delegate.DirtyPrimvar)
	if again.PropsChanged {
		t.Error("unchanged object properties reported a change")
	}
}

func TestClassifierMissingGeometryForcesTopology(t *testing.T) {
	d := classifierDelegate()
	c := NewDirtyClassifier(DefaultMotionConfig())
	got := c.Classify(d, "/m", ClassifierState{}, delegate.DirtyMaterialID)
	if !got.TopologyDirty || !got.Event.HasTopology() {
		t.Errorf("classification = %+v", got)
	}
}

func TestClassifierSubdivTagsNeedRefinement(t *testing.T) {
	d := classifierDelegate()
	c := NewDirtyClassifier(DefaultMotionConfig())
	state := ClassifierState{HasGeometry: true}

	if got := c.Classify(d, "/m", state, delegate.DirtySubdivTags); got.SubdivTagsDirty || !got.Event.IsNone() {
		t.Errorf("refine level 0: %+v", got)
	}
	d.SetDisplayStyle("/m", delegate.DisplayStyle{RefineLevel: 1})
	if got := c.Classify(d, "/m", state, delegate.DirtySubdivTags); !got.SubdivTagsDirty || !got.Event.IsNone() {
		t.Errorf("refine level 1: %+v", got)
	}
}

func TestClassifierResamplesTransforms(t *testing.T) {
	d := classifierDelegate()
	motion := DefaultMotionConfig()
	d.SetTransform("/m",
		math.TimedMat4{Time: motion.ShutterOpen, Matrix: math.NewMat4Identity()},
		math.TimedMat4{Time: motion.ShutterClose, Matrix: math.NewMat4Translation(math.NewVec3(2, 0, 0))},
	)
	c := NewDirtyClassifier(motion)

	props := motion.Defaults()
	props.MotionBlur = true
	props.XformSamples = 3
	got := c.Classify(d, "/m", ClassifierState{Props: props, HasGeometry: true}, delegate.DirtyTransform)
	if len(got.Transforms) != 3 {
		t.Fatalf("got %d samples", len(got.Transforms))
	}
	for i, want := range []float32{0, 1, 2} {
		if x := got.Transforms[i].Matrix.Data[12]; x < want-1e-5 || x > want+1e-5 {
			t.Errorf("sample %d translation = %v, want %v", i, x, want)
		}
	}

	props.MotionBlur = false
	got = c.Classify(d, "/m", ClassifierState{Props: props, HasGeometry: true}, delegate.DirtyTransform)
	if len(got.Transforms) != 1 {
		t.Errorf("without motion blur got %d samples", len(got.Transforms))
	}
}
