package renderer

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/muesli/gamut"
	"github.com/spaghettifunk/meshsync/engine/containers"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

const defaultJournalSize = 1024

// baseMaterialColour is rotated per material to give every material a stable
// debug colour.
const baseMaterialColour = "#4a90d9"

// SceneOptions configures a MemoryScene.
type SceneOptions struct {
	Defaults         metadata.OptionSet
	NestedInstancing bool
	JournalSize      int
}

// ObjectInfo is a copy of the state of one scene object.
type ObjectInfo struct {
	Kind       metadata.ObjectKind
	Name       string
	Geometry   *metadata.Geometry
	Source     metadata.Handle
	Transforms [][]math.TimedMat4
	Material   *metadata.Material
	Facesets   []metadata.FacesetMaterial
	Props      metadata.OptionSet
	// Events accumulates every event since the object was created.
	Events metadata.EventType
}

// MemoryScene keeps every committed object in memory and journals the
// events it receives through UpdateObject. Creating an object is not an
// event by itself. It is the scene used by tests and the replay tool.
type MemoryScene struct {
	mu        sync.RWMutex
	ids       *core.Identifiers
	objects   map[metadata.Handle]*ObjectInfo
	materials map[string]*metadata.Material
	opts      SceneOptions
	frame     uint64
	journal   *containers.RingQueue[metadata.JournalEntry]
}

func NewMemoryScene(opts SceneOptions) *MemoryScene {
	if opts.JournalSize <= 0 {
		opts.JournalSize = defaultJournalSize
	}
	return &MemoryScene{
		ids:       core.NewIdentifiers(64),
		objects:   make(map[metadata.Handle]*ObjectInfo),
		materials: make(map[string]*metadata.Material),
		opts:      opts,
		journal:   containers.NewRingQueue[metadata.JournalEntry](opts.JournalSize),
	}
}

// AddMaterial registers a material under path, or returns the existing one
// with its generation bumped.
func (s *MemoryScene) AddMaterial(path string) *metadata.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.materials[path]; ok {
		m.Generation++
		return m
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	colour := gamut.HueOffset(gamut.Hex(baseMaterialColour), int(h.Sum32()%360))
	m := &metadata.Material{Path: path, Colour: gamut.ToHex(colour)}
	s.materials[path] = m
	return m
}

// AdvanceFrame moves the journal to the next frame.
func (s *MemoryScene) AdvanceFrame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame++
	return s.frame
}

// Journal returns the most recent events, oldest first.
func (s *MemoryScene) Journal() []metadata.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.journal.Items()
}

// Object returns a copy of the state behind h.
func (s *MemoryScene) Object(h metadata.Handle) (ObjectInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[h]
	if !ok {
		return ObjectInfo{}, false
	}
	c := *o
	c.Props = o.Props.Clone()
	return c, true
}

// Handles lists the live objects, sorted.
func (s *MemoryScene) Handles() []metadata.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hs := make([]metadata.Handle, 0, len(s.objects))
	for h := range s.objects {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

func (s *MemoryScene) record(h metadata.Handle, o *ObjectInfo, event metadata.EventType) {
	o.Events |= event
	s.journal.Push(metadata.JournalEntry{Frame: s.frame, Handle: h, Kind: o.Kind, Name: o.Name, Event: event})
}

func (s *MemoryScene) create(o *ObjectInfo) metadata.Handle {
	if o.Name == "" {
		o.Name = uuid.NewString()
	}
	o.Props = s.opts.Defaults.Clone()
	h := metadata.Handle(s.ids.Acquire(o))
	s.objects[h] = o
	return h
}

func (s *MemoryScene) lookup(h metadata.Handle) (*ObjectInfo, error) {
	o, ok := s.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: no object %d", core.ErrSceneCommitFailed, h)
	}
	return o, nil
}

func (s *MemoryScene) CreateGeometry(name string, geometry *metadata.Geometry) (metadata.Handle, error) {
	if geometry == nil {
		return metadata.InvalidHandle, fmt.Errorf("%w: nil geometry for %s", core.ErrSceneCommitFailed, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(&ObjectInfo{Kind: metadata.ObjectGeometry, Name: name, Geometry: geometry}), nil
}

func (s *MemoryScene) SetGeometry(h metadata.Handle, geometry *metadata.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup(h)
	if err != nil {
		return err
	}
	if o.Kind != metadata.ObjectGeometry {
		return fmt.Errorf("%w: object %d is not a geometry", core.ErrSceneCommitFailed, h)
	}
	o.Geometry = geometry
	return nil
}

func (s *MemoryScene) Geometry(h metadata.Handle) (*metadata.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[h]
	if !ok {
		return nil, false
	}
	return o.Geometry, o.Geometry != nil
}

func (s *MemoryScene) CreateInstance(source metadata.Handle, name string) (metadata.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(source); err != nil {
		return metadata.InvalidHandle, err
	}
	return s.create(&ObjectInfo{Kind: metadata.ObjectInstance, Name: name, Source: source}), nil
}

func (s *MemoryScene) SetInstanceTransforms(h metadata.Handle, xforms [][]math.TimedMat4) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup(h)
	if err != nil {
		return err
	}
	if o.Kind != metadata.ObjectInstance {
		return fmt.Errorf("%w: object %d is not an instance", core.ErrSceneCommitFailed, h)
	}
	o.Transforms = xforms
	return nil
}

func (s *MemoryScene) UpdateObject(h metadata.Handle, event metadata.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup(h)
	if err != nil {
		return err
	}
	s.record(h, o, event)
	if event.Has(metadata.EventDel) {
		delete(s.objects, h)
		return s.ids.Release(uint32(h))
	}
	return nil
}

func (s *MemoryScene) SetMaterial(h metadata.Handle, material *metadata.Material, props metadata.OptionSet, facesets []metadata.FacesetMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup(h)
	if err != nil {
		return err
	}
	o.Material = material
	o.Props = props.Clone()
	o.Facesets = append([]metadata.FacesetMaterial(nil), facesets...)
	return nil
}

// FindMaterial returns nil for unknown or empty paths.
func (s *MemoryScene) FindMaterial(path string) *metadata.Material {
	if path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.materials[path]
}

func (s *MemoryScene) ObjectProperties(h metadata.Handle) metadata.OptionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.objects[h]; ok {
		return o.Props.Clone()
	}
	return s.opts.Defaults.Clone()
}

func (s *MemoryScene) NestedInstancing() bool {
	return s.opts.NestedInstancing
}

var _ Scene = (*MemoryScene)(nil)
