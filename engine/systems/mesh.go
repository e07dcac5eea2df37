package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// Rprim is a prim the render index can sync into the render scene.
type Rprim interface {
	ID() string
	// Sync brings the committed state up to date with the dirty bits and
	// clears the bits it consumed. On error the bits are left dirty.
	Sync(d delegate.SceneDelegate, param *RenderParam, bits *delegate.DirtyBits, repr string) error
	// Finalize releases every scene object owned by the prim.
	Finalize(param *RenderParam) error
	InitialDirtyBitsMask() delegate.DirtyBits
}

type meshStage int

const (
	meshUninitialized meshStage = iota
	meshSynced
	meshFinalized
)

func (s meshStage) String() string {
	switch s {
	case meshSynced:
		return "synced"
	case meshFinalized:
		return "finalized"
	}
	return "uninitialized"
}

/** @brief Everything a mesh committed to the render scene. */
type meshState struct {
	/** @brief The last committed geometry, nil before the first commit. */
	geometry *metadata.Geometry
	/** @brief Scheme of the last topology rebuild. */
	scheme     string
	leftHanded bool
	/** @brief The point normals were synthesized, not authored. */
	computedNormals bool
	/** @brief The geometry is the empty stand-in of a mesh without points. */
	degenerate bool
	/** @brief Subdivision tags folded into the next geometry. */
	tags   []metadata.SubdivTag
	xforms []math.TimedMat4
	props  metadata.OptionSet

	geomHandle metadata.Handle
	/** @brief Only valid when the mesh is not instanced by an instancer. */
	instHandle metadata.Handle
	/** @brief The instancer the mesh was last handed to. */
	instancerID string
}

// Mesh syncs one mesh prim.
type Mesh struct {
	id       string
	objectID int
	stage    meshStage
	state    meshState

	lastEvent         metadata.EventType
	lastInstanceEvent metadata.EventType
}

func NewMesh(id string, objectID int) *Mesh {
	return &Mesh{id: id, objectID: objectID}
}

func (m *Mesh) ID() string { return m.id }

func (m *Mesh) InitialDirtyBitsMask() delegate.DirtyBits {
	return delegate.InitRepr |
		delegate.DirtyCullStyle |
		delegate.DirtyDoubleSided |
		delegate.DirtyInstanceIndex |
		delegate.DirtyMaterialID |
		delegate.DirtyNormals |
		delegate.DirtyPoints |
		delegate.DirtyPrimvar |
		delegate.DirtySubdivTags |
		delegate.DirtyTopology |
		delegate.DirtyTransform |
		delegate.DirtyVisibility |
		delegate.DirtyCategories
}

// Geometry returns the last committed geometry.
func (m *Mesh) Geometry() *metadata.Geometry { return m.state.geometry }

func (m *Mesh) GeometryHandle() metadata.Handle { return m.state.geomHandle }
func (m *Mesh) InstanceHandle() metadata.Handle { return m.state.instHandle }
func (m *Mesh) ComputedNormals() bool           { return m.state.computedNormals }

// LastEvent is the event sent for the geometry by the last successful pass.
func (m *Mesh) LastEvent() metadata.EventType { return m.lastEvent }

// LastInstanceEvent is the event sent for the direct instance by the last
// successful pass.
func (m *Mesh) LastInstanceEvent() metadata.EventType { return m.lastInstanceEvent }

// Sync runs one pass. Every artifact is rebuilt into a pending state that
// replaces the committed one only once the scene accepted it.
func (m *Mesh) Sync(d delegate.SceneDelegate, param *RenderParam, bits *delegate.DirtyBits, repr string) error {
	if m.stage == meshFinalized {
		return fmt.Errorf("%w: %s", core.ErrPrimFinalized, m.id)
	}
	unlock := param.lockPass()
	defer unlock()

	if err := m.sync(d, param, bits, repr); err != nil {
		param.Scope().Child(m.id).ReportError(err)
		return err
	}
	*bits &^= delegate.AllSceneDirtyBits
	return nil
}

func (m *Mesh) sync(d delegate.SceneDelegate, param *RenderParam, bits *delegate.DirtyBits, repr string) error {
	scene := param.Scene()
	scope := param.Scope().Child(m.id)
	logger := core.Logger().With("prim", m.id)
	style := delegate.GeomStyleForRepr(repr)
	classifier := NewDirtyClassifier(param.Motion())
	builder := NewAttributeSetBuilder(d, m.id, param.Motion())

	next := m.state
	prior := m.state.geometry
	if m.stage == meshUninitialized {
		next.props = scene.ObjectProperties(metadata.InvalidHandle)
	}

	cls := classifier.Classify(d, m.id, ClassifierState{
		Props:       next.props,
		ObjectID:    m.objectID,
		HasGeometry: prior != nil && !next.degenerate,
	}, *bits)
	event := cls.Event
	xformDirty := cls.TransformDirty

	var (
		counts, vertices []int32
		lists            [attrib.NumDomains]*attrib.List
		rebuilt          [attrib.NumDomains]bool
		topologyRebuilt  bool
		material         *metadata.Material
		facesets         []metadata.FacesetMaterial
		materialPath     = cls.MaterialPath
	)

	// 1. topology and every attribute domain, 2. materials
	if prior == nil || cls.TopologyDirty || materialPath != "" || cls.PropsChanged {
		topology := d.MeshTopology(m.id)
		if cls.TopologyDirty {
			counts = topology.FaceVertexCounts
			vertices = topology.FaceVertexIndices
			for dom := range lists {
				lists[dom] = builder.Build(attrib.Domain(dom), cls.Props)
				rebuilt[dom] = true
			}
			next.computedNormals = false
			next.scheme = topology.Scheme
			next.leftHanded = topology.LeftHanded()
			topologyRebuilt = true
		}

		// unresolved subsets stay, with no material, so their faces do not
		// fall back to the prim material
		for _, subset := range topology.GeomSubsets {
			facesets = append(facesets, metadata.FacesetMaterial{
				Faces:    subset.Indices,
				Material: scene.FindMaterial(subset.MaterialID),
				Props:    cls.Props,
			})
		}
		if materialPath == "" && len(facesets) == 0 {
			materialPath = d.MaterialID(m.id)
		}
		material = scene.FindMaterial(materialPath)
	}

	// 3. subdivision tags
	if cls.SubdivTagsDirty && delegate.IsCatmullClark(next.scheme) {
		next.tags = processSubdivTags(d.SubdivTags(m.id))
	}

	// 4. transforms
	if xformDirty {
		next.xforms = cls.Transforms
	}
	if len(next.xforms) == 0 {
		next.xforms = classifier.transformSamples(d, m.id, cls.Props)
	}

	// 5. surgical patch of the attributes that changed
	patched := prior != nil && !event.HasTopology()
	if patched {
		synth := Synthesized{Normals: next.computedNormals, Handedness: !next.leftHanded}
		for dom := range lists {
			list, ev, changed := builder.Update(attrib.Domain(dom), prior.Attributes[dom], *bits, cls.Props, synth)
			if changed {
				lists[dom] = list
				rebuilt[dom] = true
				event |= ev
			}
		}
	}
	lists = builder.MergeUnchanged(lists, rebuilt, prior)

	// authored normals replace computed ones
	if patched && next.computedNormals && bits.IsPrimvarDirty("normals") {
		if dom, ok := builder.AuthoredDomain("normals"); ok {
			next.computedNormals = false
			if dom != attrib.DomainPoint {
				lists[attrib.DomainPoint] = lists[attrib.DomainPoint].Without("N")
				rebuilt[attrib.DomainPoint] = true
				event |= metadata.EventAttrib
			}
		}
	}

	// 6. geometry
	if prior == nil || !event.IsNone() {
		if !topologyRebuilt && prior != nil {
			counts = prior.FaceCounts
			vertices = prior.Vertices
		}
		geo := m.constructGeometry(&next, prior, counts, vertices, lists, rebuilt, style, scope)

		if next.geomHandle.Valid() {
			if err := scene.SetGeometry(next.geomHandle, geo); err != nil {
				return err
			}
			if err := scene.UpdateObject(next.geomHandle, event); err != nil {
				return err
			}
		} else {
			h, err := scene.CreateGeometry(m.id, geo)
			if err != nil {
				return err
			}
			next.geomHandle = h
			// the new instance picks the transforms up
			xformDirty = false
		}
		next.geometry = geo
		m.state = next
		m.stage = meshSynced
	}

	// 7. instances
	instEvent, err := m.projectInstances(d, param, &next, xformDirty)
	if err != nil {
		m.state = next
		return err
	}

	// 8. materials
	if material != nil || len(facesets) > 0 || cls.PropsChanged {
		if err := scene.SetMaterial(next.geomHandle, material, cls.Props, facesets); err != nil {
			m.state = next
			return err
		}
	}
	if !instEvent.IsNone() {
		if err := scene.UpdateObject(next.instHandle, instEvent); err != nil {
			m.state = next
			return err
		}
	}

	// 9. done
	next.props = cls.Props
	m.state = next
	m.stage = meshSynced
	m.lastEvent = event
	m.lastInstanceEvent = instEvent
	logger.Debug("synced", "event", event, "instance", instEvent, "faces", next.geometry.FaceCount())
	return nil
}

func (m *Mesh) projectInstances(d delegate.SceneDelegate, param *RenderParam, next *meshState, xformDirty bool) (metadata.EventType, error) {
	projector := NewInstanceProjector(param)
	instancerID := d.InstancerID(m.id)
	if next.instancerID != "" && next.instancerID != instancerID {
		if inst, ok := param.Instancer(next.instancerID); ok {
			if err := inst.RemovePrototype(param, m.id); err != nil {
				return metadata.EventNone, err
			}
		}
		next.instancerID = ""
	}
	event, err := projector.Project(m.id, instancerID, next.geomHandle, &next.instHandle, next.xforms, xformDirty, next.props.XformSamples)
	if err == nil {
		next.instancerID = instancerID
	}
	return event, err
}

// constructGeometry assembles a new immutable geometry out of the pending
// buffers. Buffers and lists that did not change are shared with prior.
func (m *Mesh) constructGeometry(next *meshState, prior *metadata.Geometry, counts, vertices []int32, lists [attrib.NumDomains]*attrib.List, rebuilt [attrib.NumDomains]bool, style delegate.GeomStyle, scope *core.ErrorScope) *metadata.Geometry {
	geo := &metadata.Geometry{
		Kind:       metadata.GeometryPolygon,
		Scheme:     next.scheme,
		FaceCounts: counts,
		Vertices:   vertices,
		Attributes: lists,
	}

	points, ok := lists[attrib.DomainPoint].Get("P")
	next.degenerate = !ok || points.Entries() == 0
	if next.degenerate {
		scope.AddWarning(core.ErrCodeMissingRequiredAttribute, fmt.Sprintf("%s has no point positions, committing an empty mesh", m.id))
		next.computedNormals = false
		return degenerateGeometry(geo.Scheme)
	}

	if geo.Scheme == "" {
		if prior != nil && prior.Kind == metadata.GeometrySubdivision {
			geo.Scheme = delegate.SchemeCatmullClark
		} else {
			geo.Scheme = delegate.SchemeBilinear
		}
	}

	if !next.leftHanded {
		detail := geo.Attributes[attrib.DomainDetail]
		if s, ok := detail.Get(leftHandedAttribute); !ok || s.Storage() != attrib.StorageInt32 || s.Int32s()[0] != 0 {
			geo.Attributes[attrib.DomainDetail] = detail.With(leftHandedAttribute, attrib.NewInt32Store([]int32{0}, 1, attrib.RoleNone), true)
		}
	}

	if !style.HullOnly() && delegate.IsCatmullClark(geo.Scheme) {
		geo.Kind = metadata.GeometrySubdivision
		geo.Tags = next.tags
		if next.computedNormals {
			geo.Attributes[attrib.DomainPoint] = geo.Attributes[attrib.DomainPoint].Without("N")
			next.computedNormals = false
		}
		return geo
	}

	if next.computedNormals && rebuilt[attrib.DomainPoint] {
		geo.Attributes[attrib.DomainPoint] = geo.Attributes[attrib.DomainPoint].Without("N")
		next.computedNormals = false
	}
	if style.HullOnly() {
		return geo
	}
	if geo.Attributes[attrib.DomainPoint].Has("N") || geo.Attributes[attrib.DomainVertex].Has("N") {
		return geo
	}
	geo.Attributes[attrib.DomainPoint] = geo.Attributes[attrib.DomainPoint].With("N", synthesizeNormals(counts, vertices, points, next.leftHanded), false)
	next.computedNormals = true
	return geo
}

// degenerateGeometry is an empty mesh with a single point at the origin.
func degenerateGeometry(scheme string) *metadata.Geometry {
	geo := &metadata.Geometry{Kind: metadata.GeometryPolygon, Scheme: scheme}
	geo.Attributes[attrib.DomainPoint] = attrib.NewList(
		[]string{"P"},
		[]*attrib.Store{attrib.NewFloat32Store([]float32{0, 0, 0}, 3, attrib.RolePoint)},
	)
	return geo
}

// synthesizeNormals computes area weighted point normals. The normals of
// math.PointNormals face outward for left handed winding, they are negated
// for right handed meshes.
func synthesizeNormals(counts, vertices []int32, points *attrib.Store, leftHanded bool) *attrib.Store {
	flat := tuples3(points)
	pts := make([]math.Vec3, points.Entries())
	for i := range pts {
		pts[i] = math.NewVec3FromSlice(flat[i*3 : i*3+3])
	}
	normals := math.PointNormals(counts, vertices, pts)
	data := make([]float32, 0, len(normals)*3)
	for _, n := range normals {
		if !leftHanded {
			n = n.MulScalar(-1)
		}
		data = append(data, n.X, n.Y, n.Z)
	}
	return attrib.NewFloat32Store(data, 3, attrib.RoleNormal)
}

// Finalize sends DEL for the instance and the geometry of the mesh.
func (m *Mesh) Finalize(param *RenderParam) error {
	if m.stage == meshFinalized {
		return nil
	}
	scene := param.Scene()
	var errs []error
	if m.state.instancerID != "" {
		if inst, ok := param.Instancer(m.state.instancerID); ok {
			errs = append(errs, inst.RemovePrototype(param, m.id))
		}
	}
	if m.state.instHandle.Valid() {
		errs = append(errs, scene.UpdateObject(m.state.instHandle, metadata.EventDel))
	}
	if m.state.geomHandle.Valid() {
		errs = append(errs, scene.UpdateObject(m.state.geomHandle, metadata.EventDel))
	}
	m.state = meshState{}
	m.stage = meshFinalized
	return errors.Join(errs...)
}

// processSubdivTags converts the authored subdivision tags into renderer
// tags. Crease chains are expanded into edges, weights are per crease when
// there is one per chain and per edge otherwise.
func processSubdivTags(tags delegate.SubdivTags) []metadata.SubdivTag {
	var out []metadata.SubdivTag

	if len(tags.CreaseIndices) > 0 && len(tags.CreaseLengths) > 0 {
		perCrease := len(tags.CreaseWeights) == len(tags.CreaseLengths)
		var edges []int32
		var weights []float32
		base, edge := 0, 0
		for c, length := range tags.CreaseLengths {
			n := int(length)
			if n < 2 || base+n > len(tags.CreaseIndices) {
				base += max(n, 0)
				continue
			}
			for i := 0; i < n-1; i++ {
				edges = append(edges, tags.CreaseIndices[base+i], tags.CreaseIndices[base+i+1])
				switch {
				case perCrease:
					weights = append(weights, tags.CreaseWeights[c])
				case edge < len(tags.CreaseWeights):
					weights = append(weights, tags.CreaseWeights[edge])
				default:
					weights = append(weights, 0)
				}
				edge++
			}
			base += n
		}
		if len(edges) > 0 {
			out = append(out, metadata.SubdivTag{Name: "crease", Ints: edges, Reals: weights})
		}
	}
	if len(tags.CornerIndices) > 0 {
		out = append(out, metadata.SubdivTag{
			Name:  "corner",
			Ints:  append([]int32(nil), tags.CornerIndices...),
			Reals: append([]float32(nil), tags.CornerWeights...),
		})
	}
	if len(tags.HoleIndices) > 0 {
		out = append(out, metadata.SubdivTag{Name: "hole", Ints: append([]int32(nil), tags.HoleIndices...)})
	}
	if tags.VertexInterpolationRule != "" {
		out = append(out, metadata.SubdivTag{Name: "interpolateboundary", Value: tags.VertexInterpolationRule})
	}
	if tags.FaceVaryingInterpolationRule != "" {
		out = append(out, metadata.SubdivTag{Name: "facevaryinginterpolateboundary", Value: tags.FaceVaryingInterpolationRule})
	}
	return out
}

var _ Rprim = (*Mesh)(nil)
