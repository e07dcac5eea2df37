package delegate

import (
	"sort"
	"sync"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/ingest"
	"github.com/spaghettifunk/meshsync/engine/math"
)

type memoryPrimvar struct {
	interp attrib.Interpolation
	store  *attrib.Store
}

type memoryPrim struct {
	topology   MeshTopology
	style      DisplayStyle
	primvars   map[string]memoryPrimvar
	order      []string
	subdiv     SubdivTags
	xforms     []math.TimedMat4
	visible    bool
	renderTag  string
	material   string
	categories []string
	instancer  string
	dirty      DirtyBits
}

// MemoryDelegate is a SceneDelegate holding its scene in memory. Every edit
// marks the bits a real scene graph would. Safe for concurrent use.
type MemoryDelegate struct {
	mu         sync.RWMutex
	prims      map[string]*memoryPrim
	instancers map[string][]math.Mat4
}

func NewMemoryDelegate() *MemoryDelegate {
	return &MemoryDelegate{
		prims:      make(map[string]*memoryPrim),
		instancers: make(map[string][]math.Mat4),
	}
}

// AddMesh inserts a mesh with the given topology, identity transform and
// visibility on. The prim starts fully dirty.
func (m *MemoryDelegate) AddMesh(id string, topology MeshTopology) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prims[id] = &memoryPrim{
		topology:  topology,
		primvars:  make(map[string]memoryPrimvar),
		xforms:    []math.TimedMat4{{Matrix: math.NewMat4Identity()}},
		visible:   true,
		renderTag: "geometry",
		dirty:     AllSceneDirtyBits,
	}
}

// RemoveMesh deletes a prim.
func (m *MemoryDelegate) RemoveMesh(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prims, id)
}

// Prims returns every prim id, sorted.
func (m *MemoryDelegate) Prims() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.prims))
	for id := range m.prims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MemoryDelegate) edit(id string, bits DirtyBits, fn func(p *memoryPrim)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prims[id]
	if !ok {
		return false
	}
	fn(p)
	p.dirty |= bits
	return true
}

func (m *MemoryDelegate) SetTopology(id string, topology MeshTopology) bool {
	return m.edit(id, DirtyTopology, func(p *memoryPrim) { p.topology = topology })
}

func (m *MemoryDelegate) SetDisplayStyle(id string, style DisplayStyle) bool {
	return m.edit(id, DirtyDisplayStyle, func(p *memoryPrim) { p.style = style })
}

// SetPrimvar adds or replaces a primvar.
func (m *MemoryDelegate) SetPrimvar(id, name string, interp attrib.Interpolation, store *attrib.Store) bool {
	return m.edit(id, PrimvarBit(name), func(p *memoryPrim) {
		if _, ok := p.primvars[name]; !ok {
			p.order = append(p.order, name)
		}
		p.primvars[name] = memoryPrimvar{interp: interp, store: store}
	})
}

// SetPoints is a shorthand for the "points" primvar.
func (m *MemoryDelegate) SetPoints(id string, points []float32) bool {
	return m.SetPrimvar(id, "points", attrib.InterpolationVertex, attrib.NewFloat32Store(points, 3, attrib.RolePoint))
}

func (m *MemoryDelegate) RemovePrimvar(id, name string) bool {
	return m.edit(id, PrimvarBit(name), func(p *memoryPrim) {
		if _, ok := p.primvars[name]; !ok {
			return
		}
		delete(p.primvars, name)
		for i, n := range p.order {
			if n == name {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	})
}

func (m *MemoryDelegate) SetSubdivTags(id string, tags SubdivTags) bool {
	return m.edit(id, DirtySubdivTags, func(p *memoryPrim) { p.subdiv = tags })
}

func (m *MemoryDelegate) SetTransform(id string, samples ...math.TimedMat4) bool {
	return m.edit(id, DirtyTransform, func(p *memoryPrim) {
		p.xforms = append([]math.TimedMat4(nil), samples...)
	})
}

func (m *MemoryDelegate) SetVisible(id string, visible bool) bool {
	return m.edit(id, DirtyVisibility, func(p *memoryPrim) { p.visible = visible })
}

func (m *MemoryDelegate) SetRenderTag(id, tag string) bool {
	return m.edit(id, DirtyRenderTag|DirtyVisibility, func(p *memoryPrim) { p.renderTag = tag })
}

func (m *MemoryDelegate) SetMaterialID(id, material string) bool {
	return m.edit(id, DirtyMaterialID, func(p *memoryPrim) { p.material = material })
}

func (m *MemoryDelegate) SetCategories(id string, categories ...string) bool {
	return m.edit(id, DirtyCategories, func(p *memoryPrim) {
		p.categories = append([]string(nil), categories...)
	})
}

func (m *MemoryDelegate) SetInstancer(id, instancer string) bool {
	return m.edit(id, DirtyInstancer, func(p *memoryPrim) { p.instancer = instancer })
}

// SetInstancerTransforms replaces the instance transforms of an instancer
// and dirties every prim it instances.
func (m *MemoryDelegate) SetInstancerTransforms(instancer string, xforms []math.Mat4) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instancers[instancer] = append([]math.Mat4(nil), xforms...)
	for _, p := range m.prims {
		if p.instancer == instancer {
			p.dirty |= DirtyInstancer | DirtyInstanceIndex
		}
	}
}

// SetPart replaces topology and primvars of a mesh with a procedural part.
// Attribute names are mapped back to their primvar names.
func (m *MemoryDelegate) SetPart(id string, part *ingest.Part) bool {
	return m.edit(id, DirtyTopology|DirtyPoints|DirtyNormals|DirtyPrimvar, func(p *memoryPrim) {
		p.topology.FaceVertexCounts = part.FaceCounts
		p.topology.FaceVertexIndices = part.Vertices
		if p.topology.Scheme == "" {
			p.topology.Scheme = SchemeNone
		}
		p.primvars = make(map[string]memoryPrimvar)
		p.order = p.order[:0]
		for owner := ingest.Owner(0); owner < ingest.NumOwners; owner++ {
			for _, a := range part.Attributes[owner] {
				name := PrimvarName(a.Name)
				if _, ok := p.primvars[name]; !ok {
					p.order = append(p.order, name)
				}
				p.primvars[name] = memoryPrimvar{interp: part.Interpolation(owner), store: a.Store}
			}
		}
	})
}

func (m *MemoryDelegate) DirtyBits(id string) DirtyBits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.dirty
	}
	return Clean
}

func (m *MemoryDelegate) MarkDirty(id string, bits DirtyBits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prims[id]; ok {
		p.dirty |= bits
	}
}

// MarkClean stores bits as the remaining dirty state of the prim.
func (m *MemoryDelegate) MarkClean(id string, bits DirtyBits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prims[id]; ok {
		p.dirty = bits
	}
}

func (m *MemoryDelegate) MeshTopology(id string) MeshTopology {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		t := p.topology
		t.RefineLevel = p.style.RefineLevel
		return t
	}
	return MeshTopology{}
}

func (m *MemoryDelegate) DisplayStyle(id string) DisplayStyle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.style
	}
	return DisplayStyle{}
}

func (m *MemoryDelegate) PrimvarDescriptors(id string, interp attrib.Interpolation) []PrimvarDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prims[id]
	if !ok {
		return nil
	}
	var descs []PrimvarDescriptor
	for _, name := range p.order {
		pv := p.primvars[name]
		if pv.interp == interp {
			descs = append(descs, PrimvarDescriptor{Name: name, Interpolation: interp, Role: pv.store.Role()})
		}
	}
	return descs
}

func (m *MemoryDelegate) Primvar(id, name string) (*attrib.Store, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prims[id]
	if !ok {
		return nil, false
	}
	pv, ok := p.primvars[name]
	return pv.store, ok
}

func (m *MemoryDelegate) SubdivTags(id string) SubdivTags {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.subdiv
	}
	return SubdivTags{}
}

func (m *MemoryDelegate) TransformSamples(id string, maxSamples int) []math.TimedMat4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prims[id]
	if !ok || len(p.xforms) == 0 {
		return []math.TimedMat4{{Matrix: math.NewMat4Identity()}}
	}
	n := len(p.xforms)
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	return append([]math.TimedMat4(nil), p.xforms[:n]...)
}

func (m *MemoryDelegate) Visible(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prims[id]
	return ok && p.visible
}

func (m *MemoryDelegate) RenderTag(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.renderTag
	}
	return ""
}

func (m *MemoryDelegate) MaterialID(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.material
	}
	return ""
}

func (m *MemoryDelegate) Categories(id string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return append([]string(nil), p.categories...)
	}
	return nil
}

func (m *MemoryDelegate) InstancerID(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prims[id]; ok {
		return p.instancer
	}
	return ""
}

func (m *MemoryDelegate) InstancerTransforms(instancer string) []math.Mat4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]math.Mat4(nil), m.instancers[instancer]...)
}

var _ SceneDelegate = (*MemoryDelegate)(nil)
