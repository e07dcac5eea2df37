package systems

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/renderer"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// RenderIndex owns the prims and instancers of one scene delegate and syncs
// the dirty ones into the render scene, in parallel.
type RenderIndex struct {
	d     delegate.SceneDelegate
	param *RenderParam
	jobs  *JobSystem
	repr  string

	mu           sync.Mutex
	prims        map[string]Rprim
	nextObjectID int
}

func NewRenderIndex(d delegate.SceneDelegate, scene renderer.Scene, cfg SyncConfig, motion MotionConfig, scope *core.ErrorScope) (*RenderIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := motion.Validate(); err != nil {
		return nil, err
	}
	js, err := NewJobSystem(cfg.Workers, cfg.QueueSize)
	if err != nil {
		return nil, err
	}
	param := NewRenderParam(scene, motion, scope)
	param.SetSerialized(cfg.SerializePasses)
	repr := cfg.Repr
	if repr == "" {
		repr = delegate.ReprRefined
	}
	return &RenderIndex{
		d:     d,
		param: param,
		jobs:  js,
		repr:  repr,
		prims: make(map[string]Rprim),
	}, nil
}

func (ri *RenderIndex) Param() *RenderParam              { return ri.param }
func (ri *RenderIndex) Metrics() *core.SyncMetrics       { return ri.jobs.Metrics() }
func (ri *RenderIndex) Delegate() delegate.SceneDelegate { return ri.d }

// InsertMesh adds a mesh prim and marks it with its initial dirty bits.
func (ri *RenderIndex) InsertMesh(id string) *Mesh {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if p, ok := ri.prims[id].(*Mesh); ok {
		return p
	}
	ri.nextObjectID++
	m := NewMesh(id, ri.nextObjectID)
	ri.prims[id] = m
	ri.d.MarkDirty(id, m.InitialDirtyBitsMask())
	return m
}

// InsertInstancer registers an instancer prims can reference by id.
func (ri *RenderIndex) InsertInstancer(id string) *PointInstancer {
	if inst, ok := ri.param.Instancer(id); ok {
		if pi, ok := inst.(*PointInstancer); ok {
			return pi
		}
	}
	pi := NewPointInstancer(id, ri.d)
	ri.param.AddInstancer(pi)
	return pi
}

func (ri *RenderIndex) RemoveInstancer(id string) {
	ri.param.RemoveInstancer(id)
}

// RemovePrim finalizes a prim and forgets it.
func (ri *RenderIndex) RemovePrim(id string) error {
	ri.mu.Lock()
	p, ok := ri.prims[id]
	delete(ri.prims, id)
	ri.mu.Unlock()
	if !ok {
		return fmt.Errorf("no prim %s", id)
	}
	return p.Finalize(ri.param)
}

func (ri *RenderIndex) Mesh(id string) (*Mesh, bool) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	m, ok := ri.prims[id].(*Mesh)
	return m, ok
}

// PrimIDs returns the ids of every prim, sorted.
func (ri *RenderIndex) PrimIDs() []string {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ids := make([]string, 0, len(ri.prims))
	for id := range ri.prims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SyncAll runs one pass for every dirty prim and waits for all of them.
// Failed prims keep their dirty bits and are retried by the next call.
func (ri *RenderIndex) SyncAll() error {
	ri.mu.Lock()
	var jobs []metadata.JobTask
	ids := make([]string, 0, len(ri.prims))
	for id := range ri.prims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		prim := ri.prims[id]
		bits := ri.d.DirtyBits(id)
		if bits.IsClean() {
			continue
		}
		jobs = append(jobs, metadata.JobTask{
			Name:        id,
			Priority:    metadata.JOB_PRIORITY_NORMAL,
			InputParams: bits,
			OnStart: func(input interface{}) (interface{}, error) {
				bits := input.(delegate.DirtyBits)
				err := prim.Sync(ri.d, ri.param, &bits, ri.repr)
				ri.d.MarkClean(prim.ID(), bits)
				return bits, err
			},
		})
	}
	ri.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}
	core.LogDebug("syncing %d dirty prims", len(jobs))
	return ri.jobs.RunBatch(jobs)
}

// Shutdown finalizes every prim and stops the workers.
func (ri *RenderIndex) Shutdown() error {
	for _, id := range ri.PrimIDs() {
		if err := ri.RemovePrim(id); err != nil {
			core.LogWarn("failed to finalize %s: %s", id, err.Error())
		}
	}
	return ri.jobs.Shutdown()
}
