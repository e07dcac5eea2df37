package systems

import (
	"strings"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// AttributeSetBuilder assembles the per domain attribute lists of one prim.
type AttributeSetBuilder struct {
	d      delegate.SceneDelegate
	id     string
	motion MotionConfig
}

func NewAttributeSetBuilder(d delegate.SceneDelegate, id string, motion MotionConfig) AttributeSetBuilder {
	return AttributeSetBuilder{d: d, id: id, motion: motion}
}

// Build pulls every primvar stored in domain. It returns nil when the
// domain has no attributes. Point domains get velocity blur applied when
// the object is motion blurred.
func (b AttributeSetBuilder) Build(domain attrib.Domain, props metadata.OptionSet) *attrib.List {
	var list *attrib.List
	for _, interp := range domain.Interpolations() {
		for _, desc := range b.d.PrimvarDescriptors(b.id, interp) {
			if strings.HasPrefix(desc.Name, objectPropertyPrefix) {
				continue
			}
			store, ok := b.fetch(desc.Name, desc.Role)
			if !ok {
				continue
			}
			list = list.With(delegate.RendererName(desc.Name), store, false)
		}
	}
	if domain == attrib.DomainPoint && props.MotionBlur {
		list = velocityBlur(list, props.VelocityBlur, props.GeoSamples, b.motion)
	}
	return list
}

func (b AttributeSetBuilder) fetch(primvar string, role attrib.TypeRole) (*attrib.Store, bool) {
	store, ok := b.d.Primvar(b.id, primvar)
	if !ok || store == nil {
		return nil, false
	}
	if store.Role() == attrib.RoleNone && role != attrib.RoleNone {
		store = store.WithRole(role)
	}
	return store, true
}

// MergeUnchanged fills every domain that was not rebuilt with the list of
// the prior geometry so the result is always a complete set.
func (b AttributeSetBuilder) MergeUnchanged(lists [attrib.NumDomains]*attrib.List, rebuilt [attrib.NumDomains]bool, prior *metadata.Geometry) [attrib.NumDomains]*attrib.List {
	if prior == nil {
		return lists
	}
	for dom := range lists {
		if !rebuilt[dom] {
			lists[dom] = prior.Attributes[dom]
		}
	}
	return lists
}

// Synthesized records the attributes a pass added on its own. They are not
// primvars, so a patch never refetches them.
type Synthesized struct {
	// Normals is set when the point N was computed from P.
	Normals bool
	// Handedness is set when the detail leftHanded attribute was written for
	// a right handed mesh.
	Handedness bool
}

const leftHandedAttribute = "leftHanded"

// Update refetches only the dirty attributes of domain. The prior list is
// returned untouched, and changed is false, when nothing in it is dirty.
// A computed N is kept until normals are authored in the same domain.
func (b AttributeSetBuilder) Update(domain attrib.Domain, prior *attrib.List, bits delegate.DirtyBits, props metadata.OptionSet, synth Synthesized) (list *attrib.List, event metadata.EventType, changed bool) {
	if !bits.IsAnyPrimvarDirty() {
		return prior, metadata.EventNone, false
	}

	list = prior
	blurInputs := false
	seen := make(map[string]bool, prior.Len())
	for _, name := range prior.Names() {
		seen[name] = true
		if name == leftHandedAttribute && synth.Handedness && domain == attrib.DomainDetail {
			continue
		}
		if name == "N" && synth.Normals && domain == attrib.DomainPoint {
			dom, ok := b.AuthoredDomain("normals")
			if !ok || dom != attrib.DomainPoint || !bits.IsPrimvarDirty("normals") {
				continue
			}
			if store, ok := b.fetch("normals", attrib.RoleNormal); ok {
				list = list.With("N", store, true)
				event |= metadata.EventAttrib
			}
			continue
		}
		primvar := delegate.PrimvarName(name)
		if !bits.IsPrimvarDirty(primvar) {
			continue
		}
		current, _ := prior.Get(name)
		store, ok := b.fetch(primvar, current.Role())
		switch {
		case !ok:
			list = list.Without(name)
		case store == current:
			continue
		default:
			list = list.With(name, store, true)
		}
		event |= attributeEvent(name)
		blurInputs = blurInputs || isBlurInput(name)
	}

	// primvars that appeared since the last pass
	for _, interp := range domain.Interpolations() {
		for _, desc := range b.d.PrimvarDescriptors(b.id, interp) {
			name := delegate.RendererName(desc.Name)
			if seen[name] || strings.HasPrefix(desc.Name, objectPropertyPrefix) || !bits.IsPrimvarDirty(desc.Name) {
				continue
			}
			if store, ok := b.fetch(desc.Name, desc.Role); ok {
				list = list.With(name, store, false)
				event |= attributeEvent(name)
				blurInputs = blurInputs || isBlurInput(name)
			}
		}
	}

	if list == prior {
		return prior, metadata.EventNone, false
	}
	if domain == attrib.DomainPoint && props.MotionBlur && blurInputs {
		// the base P of a blurred list is already displaced
		if p, ok := b.fetch(delegate.PrimvarName("P"), attrib.RolePoint); ok {
			list = list.With("P", p, true)
		}
		list = velocityBlur(list, props.VelocityBlur, props.GeoSamples, b.motion)
	}
	return list, event, true
}

// AuthoredDomain reports the domain the primvar is authored in.
func (b AttributeSetBuilder) AuthoredDomain(primvar string) (attrib.Domain, bool) {
	for dom := attrib.Domain(0); dom < attrib.NumDomains; dom++ {
		for _, interp := range dom.Interpolations() {
			for _, desc := range b.d.PrimvarDescriptors(b.id, interp) {
				if desc.Name == primvar {
					return dom, true
				}
			}
		}
	}
	return 0, false
}

func isBlurInput(name string) bool {
	return name == "P" || name == "v" || name == "accel"
}

func attributeEvent(name string) metadata.EventType {
	if name == "P" {
		return metadata.EventAttribP
	}
	return metadata.EventAttrib
}

// velocityBlur replaces P with one sample per shutter time extrapolated
// from the v and accel attributes. The list is returned as is when the
// channels it needs are missing or do not match P.
func velocityBlur(list *attrib.List, mode, samples int, motion MotionConfig) *attrib.List {
	if mode == metadata.VelocityBlurOff || samples < 2 || motion.FPS <= 0 {
		return list
	}
	p, ok := list.Get("P")
	if !ok || p.Entries() == 0 {
		return list
	}
	v, ok := list.Get("v")
	if !ok || v.Entries() != p.Entries() {
		return list
	}
	var accel *attrib.Store
	if mode == metadata.VelocityBlurAcceleration {
		if a, ok := list.Get("accel"); ok && a.Entries() == p.Entries() {
			accel = a
		}
	}

	pos := tuples3(p)
	vel := tuples3(v)
	var acc []float32
	if accel != nil {
		acc = tuples3(accel)
	}

	times := motion.ShutterTimes(samples)
	out := make([]*attrib.Store, len(times))
	for i, frame := range times {
		t := frame / motion.FPS
		data := make([]float32, len(pos))
		for j := range pos {
			data[j] = pos[j] + vel[j]*t
			if acc != nil {
				data[j] += 0.5 * acc[j] * t * t
			}
		}
		out[i] = attrib.NewFloat32Store(data, 3, attrib.RolePoint)
	}
	return list.WithSegments("P", out)
}

// tuples3 returns the float32 values of s laid out with 3 components per
// entry.
func tuples3(s *attrib.Store) []float32 {
	values := s.Float32Tuples()
	if s.TupleSize() == 3 {
		return values
	}
	width := s.TupleSize()
	out := make([]float32, s.Entries()*3)
	for i := 0; i < s.Entries(); i++ {
		copy(out[i*3:i*3+min(width, 3)], values[i*width:i*width+min(width, 3)])
	}
	return out
}
