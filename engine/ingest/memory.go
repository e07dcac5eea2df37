package ingest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/meshsync/engine/attrib"
)

var ErrNoSuchPart = errors.New("no such part")

type memoryAttribute struct {
	desc Descriptor
	data interface{}
}

type memoryPart struct {
	info     PartInfo
	counts   []int32
	vertices []int32
	attribs  [NumOwners][]*memoryAttribute
}

// MemorySession is an in process Session backed by plain slices. It is used
// by the replay tool and by tests.
type MemorySession struct {
	mu       sync.Mutex
	parts    map[int]*memoryPart
	handles  []string
	failing  map[string]error
	transfer map[string]int
}

func NewMemorySession() *MemorySession {
	return &MemorySession{
		parts:    make(map[int]*memoryPart),
		failing:  make(map[string]error),
		transfer: make(map[string]int),
	}
}

// AddPart registers a polygon part and returns its id.
func (m *MemorySession) AddPart(name string, counts, vertices []int32, points int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.parts)
	m.parts[id] = &memoryPart{
		info: PartInfo{
			ID:          id,
			Name:        name,
			FaceCount:   len(counts),
			VertexCount: len(vertices),
			PointCount:  points,
		},
		counts:   counts,
		vertices: vertices,
	}
	return id
}

// SetAttribute stores data for an attribute. data must be one of []int32,
// []int64, []float32, []float64 or []string. The descriptor count is derived
// from the data unless d.Count is already set.
func (m *MemorySession) SetAttribute(part int, d Descriptor, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[part]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchPart, part)
	}

	if d.Storage == attrib.StorageInvalid {
		d.Storage = storageOf(data)
	}
	n := 0
	switch v := data.(type) {
	case []int32:
		n = len(v)
	case []int64:
		n = len(v)
	case []float32:
		n = len(v)
	case []float64:
		n = len(v)
	case []string:
		n = len(v)
		handles := make([]int32, len(v))
		for i, s := range v {
			handles[i] = int32(len(m.handles))
			m.handles = append(m.handles, s)
		}
		data = handles
	default:
		return fmt.Errorf("unsupported data %T", data)
	}
	if d.Count == 0 && d.TupleSize > 0 {
		d.Count = n / d.TupleSize
	}
	d.Exists = true

	list := p.attribs[d.Owner]
	for i, a := range list {
		if a.desc.Name == d.Name {
			list[i] = &memoryAttribute{desc: d, data: data}
			return nil
		}
	}
	p.attribs[d.Owner] = append(list, &memoryAttribute{desc: d, data: data})
	return nil
}

// FailAttribute makes every bulk transfer of name fail with err.
func (m *MemorySession) FailAttribute(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[name] = err
}

// Transfers returns how many bulk transfers were issued for name.
func (m *MemorySession) Transfers(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer[name]
}

func (m *MemorySession) part(id int) (*memoryPart, error) {
	p, ok := m.parts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchPart, id)
	}
	return p, nil
}

func (m *MemorySession) Part(part int) (PartInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.part(part)
	if err != nil {
		return PartInfo{}, err
	}
	return p.info, nil
}

func (m *MemorySession) FaceCounts(part int) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.part(part)
	if err != nil {
		return nil, err
	}
	return append([]int32(nil), p.counts...), nil
}

func (m *MemorySession) VertexList(part int) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.part(part)
	if err != nil {
		return nil, err
	}
	return append([]int32(nil), p.vertices...), nil
}

func (m *MemorySession) AttributeNames(part int, owner Owner) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.part(part)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(p.attribs[owner]))
	for _, a := range p.attribs[owner] {
		names = append(names, a.desc.Name)
	}
	return names, nil
}

func (m *MemorySession) AttributeInfo(part int, name string, owner Owner) (Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.part(part)
	if err != nil {
		return Descriptor{}, err
	}
	for _, a := range p.attribs[owner] {
		if a.desc.Name == name {
			return a.desc, nil
		}
	}
	return Descriptor{Name: name, Owner: owner}, nil
}

func (m *MemorySession) fetch(part int, d Descriptor) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfer[d.Name]++
	if err, ok := m.failing[d.Name]; ok {
		return nil, err
	}
	p, err := m.part(part)
	if err != nil {
		return nil, err
	}
	for _, a := range p.attribs[d.Owner] {
		if a.desc.Name == d.Name {
			return a.data, nil
		}
	}
	return nil, fmt.Errorf("attribute %s not found on %s", d.Name, d.Owner)
}

func fetchAs[T any](m *MemorySession, part int, d Descriptor) ([]T, error) {
	data, err := m.fetch(part, d)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]T)
	if !ok {
		return nil, fmt.Errorf("attribute %s holds %T", d.Name, data)
	}
	return append([]T(nil), v...), nil
}

func (m *MemorySession) IntData(part int, d Descriptor) ([]int32, error) {
	return fetchAs[int32](m, part, d)
}

func (m *MemorySession) Int64Data(part int, d Descriptor) ([]int64, error) {
	return fetchAs[int64](m, part, d)
}

func (m *MemorySession) FloatData(part int, d Descriptor) ([]float32, error) {
	return fetchAs[float32](m, part, d)
}

func (m *MemorySession) Float64Data(part int, d Descriptor) ([]float64, error) {
	return fetchAs[float64](m, part, d)
}

func (m *MemorySession) StringData(part int, d Descriptor) ([]int32, error) {
	return fetchAs[int32](m, part, d)
}

func (m *MemorySession) String(handle int32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handle < 0 || int(handle) >= len(m.handles) {
		return "", fmt.Errorf("invalid string handle %d", handle)
	}
	return m.handles[handle], nil
}

var _ Session = (*MemorySession)(nil)

func storageOf(data interface{}) attrib.StorageType {
	switch data.(type) {
	case []int32:
		return attrib.StorageInt32
	case []int64:
		return attrib.StorageInt64
	case []float32:
		return attrib.StorageFloat32
	case []float64:
		return attrib.StorageFloat64
	case []string:
		return attrib.StorageString
	}
	return attrib.StorageInvalid
}
