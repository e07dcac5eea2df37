package systems

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

func TestAttributeSetBuilderDomains(t *testing.T) {
	d := classifierDelegate()
	f32 := func(n int) *attrib.Store { return attrib.NewFloat32Store(make([]float32, n*3), 3, attrib.RoleNone) }
	d.SetPrimvar("/m", "displayColor", attrib.InterpolationConstant, f32(1))
	d.SetPrimvar("/m", "render:object:motion_blur", attrib.InterpolationConstant, attrib.NewInt32Store([]int32{0}, 1, attrib.RoleNone))
	d.SetPrimvar("/m", "faceId", attrib.InterpolationUniform, attrib.NewInt32Store([]int32{7}, 1, attrib.RoleNone))
	d.SetPrimvar("/m", "rest", attrib.InterpolationVarying, f32(4))
	d.SetPrimvar("/m", "st", attrib.InterpolationFaceVarying, attrib.NewFloat32Store(make([]float32, 8), 2, attrib.RoleTexCoord))

	b := NewAttributeSetBuilder(d, "/m", DefaultMotionConfig())
	props := DefaultMotionConfig().Defaults()
	tests := []struct {
		domain attrib.Domain
		names  []string
	}{
		{attrib.DomainDetail, []string{"Cd"}},
		{attrib.DomainUniform, []string{"faceId"}},
		{attrib.DomainPoint, []string{"P", "rest"}},
		{attrib.DomainVertex, []string{"st"}},
	}
	for _, tt := range tests {
		list := b.Build(tt.domain, props)
		if diff := cmp.Diff(tt.names, list.Names()); diff != "" {
			t.Errorf("%s names (-want +got):\n%s", tt.domain, diff)
		}
	}

	p, _ := b.Build(attrib.DomainPoint, props).Get("P")
	if p.Role() != attrib.RolePoint {
		t.Errorf("P role = %s", p.Role())
	}
}

func TestAttributeSetBuilderEmptyDomain(t *testing.T) {
	d := classifierDelegate()
	b := NewAttributeSetBuilder(d, "/m", DefaultMotionConfig())
	if list := b.Build(attrib.DomainUniform, DefaultMotionConfig().Defaults()); list != nil {
		t.Errorf("empty domain built %s", list)
	}
}

func TestAttributeSetBuilderVelocityBlur(t *testing.T) {
	d := classifierDelegate()
	d.SetPrimvar("/m", "velocities", attrib.InterpolationVertex, attrib.NewFloat32Store([]float32{
		24, 0, 0,
		24, 0, 0,
		24, 0, 0,
		24, 0, 0,
	}, 3, attrib.RoleVector))

	motion := DefaultMotionConfig()
	props := motion.Defaults()
	props.MotionBlur = true
	props.VelocityBlur = metadata.VelocityBlurVelocity
	props.GeoSamples = 2

	list := NewAttributeSetBuilder(d, "/m", motion).Build(attrib.DomainPoint, props)
	segments := list.Segments("P")
	if len(segments) != 2 || list.SegmentCount() != 2 {
		t.Fatalf("got %d segments", len(segments))
	}
	// 24 units per second over a quarter frame at 24 fps
	for i, dx := range []float32{-0.25, 0.25} {
		got := segments[i].Float32s()
		for j := 0; j < 4; j++ {
			if want := quadPoints[j*3] + dx; got[j*3] < want-1e-5 || got[j*3] > want+1e-5 {
				t.Errorf("segment %d point %d x = %v, want %v", i, j, got[j*3], want)
			}
		}
	}

	props.MotionBlur = false
	if list := NewAttributeSetBuilder(d, "/m", motion).Build(attrib.DomainPoint, props); list.SegmentCount() != 1 {
		t.Errorf("motion blur off produced %d segments", list.SegmentCount())
	}
}

func TestAttributeSetBuilderUpdate(t *testing.T) {
	d := classifierDelegate()
	d.SetPrimvar("/m", "rest", attrib.InterpolationVertex, attrib.NewFloat32Store(make([]float32, 12), 3, attrib.RoleNone))
	b := NewAttributeSetBuilder(d, "/m", DefaultMotionConfig())
	props := DefaultMotionConfig().Defaults()
	prior := b.Build(attrib.DomainPoint, props)

	if list, event, changed := b.Update(attrib.DomainPoint, prior, delegate.DirtyTransform, props, Synthesized{}); changed || list != prior || !event.IsNone() {
		t.Errorf("clean update changed the list: %v %s", changed, event)
	}

	d.SetPoints("/m", quadPoints)
	list, event, changed := b.Update(attrib.DomainPoint, prior, delegate.DirtyPoints, props, Synthesized{})
	if !changed || event != metadata.EventAttribP {
		t.Fatalf("points update: changed %v event %s", changed, event)
	}
	oldRest, _ := prior.Get("rest")
	if rest, _ := list.Get("rest"); rest != oldRest {
		t.Error("clean attribute was refetched")
	}

	d.RemovePrimvar("/m", "rest")
	list, event, changed = b.Update(attrib.DomainPoint, list, delegate.DirtyPrimvar, props, Synthesized{})
	if !changed || event != metadata.EventAttrib || list.Has("rest") {
		t.Errorf("removal: changed %v event %s list %s", changed, event, list)
	}
}

func TestAttributeSetBuilderMergeUnchanged(t *testing.T) {
	d := classifierDelegate()
	b := NewAttributeSetBuilder(d, "/m", DefaultMotionConfig())
	prior := &metadata.Geometry{}
	for dom := range prior.Attributes {
		prior.Attributes[dom] = attrib.NewList([]string{"x"}, []*attrib.Store{attrib.NewInt32Store([]int32{int32(dom)}, 1, attrib.RoleNone)})
	}
	var lists [attrib.NumDomains]*attrib.List
	var rebuilt [attrib.NumDomains]bool
	rebuilt[attrib.DomainUniform] = true

	merged := b.MergeUnchanged(lists, rebuilt, prior)
	for dom := range merged {
		switch {
		case attrib.Domain(dom) == attrib.DomainUniform && merged[dom] != nil:
			t.Error("rebuilt domain was overwritten")
		case attrib.Domain(dom) != attrib.DomainUniform && merged[dom] != prior.Attributes[dom]:
			t.Errorf("%s not taken from the prior geometry", attrib.Domain(dom))
		}
	}
}
