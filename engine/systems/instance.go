package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// Instancer owns the instances of every prototype mesh handed to it.
type Instancer interface {
	ID() string
	// NestedInstances draws geometry through an instance of an instance
	// hierarchy. xforms are the motion samples of the prototype.
	NestedInstances(param *RenderParam, protoID string, geometry metadata.Handle, xforms []math.TimedMat4, xformSamples int) error
	// FlatInstances draws geometry with one instance per instancer
	// transform, the prototype transform baked in.
	FlatInstances(param *RenderParam, protoID string, geometry metadata.Handle, xforms []math.TimedMat4, xformSamples int) error
	// RemovePrototype deletes the instances of protoID.
	RemovePrototype(param *RenderParam, protoID string) error
}

// InstanceProjector places the geometry of a mesh in the scene, either
// through one instance owned by the mesh or through its instancer.
type InstanceProjector struct {
	param *RenderParam
}

func NewInstanceProjector(param *RenderParam) InstanceProjector {
	return InstanceProjector{param: param}
}

// Project runs after the geometry commit. In direct mode it returns the
// event the caller sends for *inst once materials are assigned. In
// delegated mode any instance owned by the mesh is deleted and the
// instancer is called once.
func (p InstanceProjector) Project(id, instancerID string, geometry metadata.Handle, inst *metadata.Handle, xforms []math.TimedMat4, xformDirty bool, xformSamples int) (metadata.EventType, error) {
	scene := p.param.Scene()
	if instancerID == "" {
		if !inst.Valid() {
			h, err := scene.CreateInstance(geometry, id+"/instance")
			if err != nil {
				return metadata.EventNone, err
			}
			if err := scene.SetInstanceTransforms(h, [][]math.TimedMat4{xforms}); err != nil {
				return metadata.EventNone, err
			}
			*inst = h
			return metadata.EventNew, nil
		}
		if xformDirty {
			if err := scene.SetInstanceTransforms(*inst, [][]math.TimedMat4{xforms}); err != nil {
				return metadata.EventNone, err
			}
			return metadata.EventXform, nil
		}
		return metadata.EventNone, nil
	}

	if inst.Valid() {
		if err := scene.UpdateObject(*inst, metadata.EventDel); err != nil {
			return metadata.EventNone, err
		}
		*inst = metadata.InvalidHandle
	}
	instancer, ok := p.param.Instancer(instancerID)
	if !ok {
		return metadata.EventNone, fmt.Errorf("%w: %s references unknown instancer %s", core.ErrSceneCommitFailed, id, instancerID)
	}
	if scene.NestedInstancing() {
		return metadata.EventNone, instancer.NestedInstances(p.param, id, geometry, xforms, xformSamples)
	}
	return metadata.EventNone, instancer.FlatInstances(p.param, id, geometry, xforms, xformSamples)
}

/** @brief The instances a PointInstancer created for one prototype. */
type prototypeInstances struct {
	/** @brief Inner instance of the nested hierarchy, or the flat instances. */
	handles []metadata.Handle
	/** @brief Outer instance of the nested hierarchy. */
	outer  metadata.Handle
	nested bool
}

// PointInstancer instances prototypes with the transforms the scene
// delegate reports for it.
type PointInstancer struct {
	id string
	d  delegate.SceneDelegate

	mu     sync.Mutex
	protos map[string]*prototypeInstances
}

func NewPointInstancer(id string, d delegate.SceneDelegate) *PointInstancer {
	return &PointInstancer{id: id, d: d, protos: make(map[string]*prototypeInstances)}
}

func (pi *PointInstancer) ID() string { return pi.id }

// Prototypes returns the number of prototypes instanced.
func (pi *PointInstancer) Prototypes() int {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return len(pi.protos)
}

// Handles returns the instance handles of protoID. A nested hierarchy
// reports the outer instance last.
func (pi *PointInstancer) Handles(protoID string) []metadata.Handle {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	p, ok := pi.protos[protoID]
	if !ok {
		return nil
	}
	out := append([]metadata.Handle(nil), p.handles...)
	if p.outer.Valid() {
		out = append(out, p.outer)
	}
	return out
}

func (pi *PointInstancer) NestedInstances(param *RenderParam, protoID string, geometry metadata.Handle, xforms []math.TimedMat4, xformSamples int) error {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	scene := param.Scene()

	p, err := pi.reset(param, protoID, true)
	if err != nil {
		return err
	}
	xforms = limitSamples(xforms, xformSamples)
	event := metadata.EventXform
	if len(p.handles) == 0 {
		inner, err := scene.CreateInstance(geometry, protoID+"/proto")
		if err != nil {
			return err
		}
		outer, err := scene.CreateInstance(inner, pi.id+protoID)
		if err != nil {
			return err
		}
		p.handles = []metadata.Handle{inner}
		p.outer = outer
		event = metadata.EventNew
	}

	if err := scene.SetInstanceTransforms(p.handles[0], [][]math.TimedMat4{xforms}); err != nil {
		return err
	}
	instances := pi.d.InstancerTransforms(pi.id)
	outer := make([][]math.TimedMat4, len(instances))
	for i, m := range instances {
		outer[i] = []math.TimedMat4{{Time: xforms[0].Time, Matrix: m}}
	}
	if err := scene.SetInstanceTransforms(p.outer, outer); err != nil {
		return err
	}
	if err := scene.UpdateObject(p.handles[0], event); err != nil {
		return err
	}
	return scene.UpdateObject(p.outer, event)
}

func (pi *PointInstancer) FlatInstances(param *RenderParam, protoID string, geometry metadata.Handle, xforms []math.TimedMat4, xformSamples int) error {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	scene := param.Scene()

	p, err := pi.reset(param, protoID, false)
	if err != nil {
		return err
	}
	xforms = limitSamples(xforms, xformSamples)
	instances := pi.d.InstancerTransforms(pi.id)

	// drop the instances the instancer no longer has
	for len(p.handles) > len(instances) {
		last := p.handles[len(p.handles)-1]
		if err := scene.UpdateObject(last, metadata.EventDel); err != nil {
			return err
		}
		p.handles = p.handles[:len(p.handles)-1]
	}

	for i, m := range instances {
		event := metadata.EventXform
		if i >= len(p.handles) {
			h, err := scene.CreateInstance(geometry, fmt.Sprintf("%s%s/%d", pi.id, protoID, i))
			if err != nil {
				return err
			}
			p.handles = append(p.handles, h)
			event = metadata.EventNew
		}
		samples := make([]math.TimedMat4, len(xforms))
		for s, x := range xforms {
			samples[s] = math.TimedMat4{Time: x.Time, Matrix: x.Matrix.Mul(m)}
		}
		if err := scene.SetInstanceTransforms(p.handles[i], [][]math.TimedMat4{samples}); err != nil {
			return err
		}
		if err := scene.UpdateObject(p.handles[i], event); err != nil {
			return err
		}
	}
	return nil
}

func limitSamples(xforms []math.TimedMat4, n int) []math.TimedMat4 {
	if n > 0 && len(xforms) > n {
		return xforms[:n]
	}
	return xforms
}

// reset returns the instances of protoID, deleting them first when they
// were created in the other representation.
func (pi *PointInstancer) reset(param *RenderParam, protoID string, nested bool) (*prototypeInstances, error) {
	p, ok := pi.protos[protoID]
	if ok && p.nested == nested {
		return p, nil
	}
	if ok {
		if err := pi.release(param, p); err != nil {
			return nil, err
		}
	}
	p = &prototypeInstances{nested: nested}
	pi.protos[protoID] = p
	return p, nil
}

func (pi *PointInstancer) release(param *RenderParam, p *prototypeInstances) error {
	scene := param.Scene()
	if p.outer.Valid() {
		if err := scene.UpdateObject(p.outer, metadata.EventDel); err != nil {
			return err
		}
		p.outer = metadata.InvalidHandle
	}
	for len(p.handles) > 0 {
		if err := scene.UpdateObject(p.handles[len(p.handles)-1], metadata.EventDel); err != nil {
			return err
		}
		p.handles = p.handles[:len(p.handles)-1]
	}
	return nil
}

func (pi *PointInstancer) RemovePrototype(param *RenderParam, protoID string) error {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	p, ok := pi.protos[protoID]
	if !ok {
		return nil
	}
	delete(pi.protos, protoID)
	return pi.release(param, p)
}

var _ Instancer = (*PointInstancer)(nil)
