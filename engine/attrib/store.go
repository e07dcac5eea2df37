package attrib

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// StorageType is the element type of an attribute buffer. It never changes
// after a Store is created.
type StorageType int

const (
	StorageInvalid StorageType = iota
	StorageInt32
	StorageInt64
	StorageFloat32
	StorageFloat64
	StorageString
)

func (s StorageType) String() string {
	switch s {
	case StorageInt32:
		return "int32"
	case StorageInt64:
		return "int64"
	case StorageFloat32:
		return "float32"
	case StorageFloat64:
		return "float64"
	case StorageString:
		return "string"
	}
	return fmt.Sprintf("storage(%d)", int(s))
}

// Valid reports whether s is one of the supported storage kinds.
func (s StorageType) Valid() bool {
	return s >= StorageInt32 && s <= StorageString
}

// TypeRole is a hint about how the tuples should be interpreted.
type TypeRole int

const (
	RoleNone TypeRole = iota
	RolePoint
	RoleVector
	RoleNormal
	RoleColor
	RoleTexCoord
)

func (r TypeRole) String() string {
	return [...]string{"none", "point", "vector", "normal", "color", "texcoord"}[r]
}

// Store holds one attribute as a homogeneous tuple structured buffer.
// Only the slice matching the storage type is populated.
type Store struct {
	storage StorageType
	role    TypeRole
	entries int
	tuple   int

	ints    []int32
	longs   []int64
	floats  []float32
	doubles []float64

	// string attributes keep indices into a shared table
	strings []int32
	table   *StringTable
}

type numeric interface {
	constraints.Integer | constraints.Float
}

// NewInt32Store wraps data as an int32 attribute of the given tuple size.
func NewInt32Store(data []int32, tuple int, role TypeRole) *Store {
	return &Store{storage: StorageInt32, role: role, tuple: tuple, entries: entryCount(len(data), tuple), ints: data}
}

// NewInt64Store wraps data as an int64 attribute of the given tuple size.
func NewInt64Store(data []int64, tuple int, role TypeRole) *Store {
	return &Store{storage: StorageInt64, role: role, tuple: tuple, entries: entryCount(len(data), tuple), longs: data}
}

// NewFloat32Store wraps data as a float32 attribute of the given tuple size.
func NewFloat32Store(data []float32, tuple int, role TypeRole) *Store {
	return &Store{storage: StorageFloat32, role: role, tuple: tuple, entries: entryCount(len(data), tuple), floats: data}
}

// NewFloat64Store wraps data as a float64 attribute of the given tuple size.
func NewFloat64Store(data []float64, tuple int, role TypeRole) *Store {
	return &Store{storage: StorageFloat64, role: role, tuple: tuple, entries: entryCount(len(data), tuple), doubles: data}
}

// NewStringStore interns values in table and keeps their indices.
func NewStringStore(values []string, tuple int, table *StringTable) *Store {
	idx := make([]int32, len(values))
	for i, v := range values {
		idx[i] = table.Intern(v)
	}
	return &Store{storage: StorageString, tuple: tuple, entries: entryCount(len(values), tuple), strings: idx, table: table}
}

// NewEmptyStore returns a store with no entries.
func NewEmptyStore(storage StorageType, tuple int, role TypeRole) *Store {
	return &Store{storage: storage, role: role, tuple: tuple}
}

func entryCount(n, tuple int) int {
	if tuple <= 0 {
		return 0
	}
	return n / tuple
}

func (s *Store) Storage() StorageType { return s.storage }
func (s *Store) Role() TypeRole       { return s.role }
func (s *Store) Entries() int         { return s.entries }
func (s *Store) TupleSize() int       { return s.tuple }

// Len is the number of scalar components held, Entries() x TupleSize().
func (s *Store) Len() int { return s.entries * s.tuple }

func (s *Store) Int32s() []int32     { return s.ints }
func (s *Store) Int64s() []int64     { return s.longs }
func (s *Store) Float32s() []float32 { return s.floats }
func (s *Store) Float64s() []float64 { return s.doubles }

// Strings resolves the interned indices back to text.
func (s *Store) Strings() []string {
	if s.storage != StorageString || s.table == nil {
		return nil
	}
	out := make([]string, len(s.strings))
	for i, idx := range s.strings {
		out[i], _ = s.table.Lookup(idx)
	}
	return out
}

// StringIndices returns the raw indices into the string table.
func (s *Store) StringIndices() []int32 { return s.strings }

// WithRole returns a shallow copy of the store carrying a different role.
// The buffers are shared, stores are never written after construction.
func (s *Store) WithRole(role TypeRole) *Store {
	c := *s
	c.role = role
	return &c
}

// ResizeTuple changes the tuple width in place. The storage type and entry
// count are left alone. Shrinking drops trailing components of each tuple,
// growing zero fills the new ones. Empty and string stores are unchanged.
func (s *Store) ResizeTuple(width int) {
	if width <= 0 || width == s.tuple || s.entries == 0 {
		return
	}
	switch s.storage {
	case StorageInt32:
		s.ints = resizeTuple(s.ints, s.entries, s.tuple, width)
	case StorageInt64:
		s.longs = resizeTuple(s.longs, s.entries, s.tuple, width)
	case StorageFloat32:
		s.floats = resizeTuple(s.floats, s.entries, s.tuple, width)
	case StorageFloat64:
		s.doubles = resizeTuple(s.doubles, s.entries, s.tuple, width)
	default:
		return
	}
	s.tuple = width
}

func resizeTuple[T numeric](old []T, entries, oldWidth, newWidth int) []T {
	out := make([]T, entries*newWidth)
	n := min(oldWidth, newWidth)
	for i := 0; i < entries; i++ {
		copy(out[i*newWidth:i*newWidth+n], old[i*oldWidth:i*oldWidth+n])
	}
	return out
}

// Float32Tuples converts any numeric store to float32 values, tuple layout
// preserved. String stores yield nil.
func (s *Store) Float32Tuples() []float32 {
	switch s.storage {
	case StorageFloat32:
		return s.floats
	case StorageFloat64:
		return convert[float64, float32](s.doubles)
	case StorageInt32:
		return convert[int32, float32](s.ints)
	case StorageInt64:
		return convert[int64, float32](s.longs)
	}
	return nil
}

func convert[From, To numeric](in []From) []To {
	out := make([]To, len(in))
	for i, v := range in {
		out[i] = To(v)
	}
	return out
}

// Equal reports value equality of two stores.
func (s *Store) Equal(o *Store) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.storage != o.storage || s.tuple != o.tuple || s.entries != o.entries || s.role != o.role {
		return false
	}
	switch s.storage {
	case StorageInt32:
		return equal(s.ints, o.ints)
	case StorageInt64:
		return equal(s.longs, o.longs)
	case StorageFloat32:
		return equal(s.floats, o.floats)
	case StorageFloat64:
		return equal(s.doubles, o.doubles)
	case StorageString:
		return equal(s.Strings(), o.Strings())
	}
	return true
}

func equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Store) String() string {
	return fmt.Sprintf("%s[%d]x%d", s.storage, s.entries, s.tuple)
}
