package systems

import (
	"sync"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer"
)

// RenderParam is the state shared by every prim of a render index during
// sync. Everything reachable from it is safe for concurrent use.
type RenderParam struct {
	scene   renderer.Scene
	motion  MotionConfig
	scope   *core.ErrorScope
	strings *attrib.StringTable

	// held for the whole pass when passes are serialized
	serial    sync.Mutex
	serialize bool

	mu         sync.RWMutex
	instancers map[string]Instancer
}

func NewRenderParam(scene renderer.Scene, motion MotionConfig, scope *core.ErrorScope) *RenderParam {
	if scope == nil {
		scope = core.NewErrorScope("sync")
	}
	return &RenderParam{
		scene:      scene,
		motion:     motion,
		scope:      scope,
		strings:    attrib.NewStringTable(),
		instancers: make(map[string]Instancer),
	}
}

func (p *RenderParam) Scene() renderer.Scene        { return p.scene }
func (p *RenderParam) Motion() MotionConfig         { return p.motion }
func (p *RenderParam) Scope() *core.ErrorScope      { return p.scope }
func (p *RenderParam) Strings() *attrib.StringTable { return p.strings }

// SetSerialized forces every sync pass to hold a single lock.
func (p *RenderParam) SetSerialized(serialize bool) {
	p.serialize = serialize
}

// lockPass takes the debug lock when passes are serialized and returns the
// matching unlock.
func (p *RenderParam) lockPass() func() {
	if !p.serialize {
		return func() {}
	}
	p.serial.Lock()
	return p.serial.Unlock
}

func (p *RenderParam) AddInstancer(inst Instancer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instancers[inst.ID()] = inst
}

func (p *RenderParam) RemoveInstancer(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.instancers, id)
}

func (p *RenderParam) Instancer(id string) (Instancer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inst, ok := p.instancers[id]
	return inst, ok
}
