package attrib

import (
	"sort"
	"strings"
)

// List is an immutable ordered set of named attributes for one domain.
// Editing operations always return a new List; lists that did not change
// are shared by pointer between the committed and the pending geometry.
//
// A nil *List is a valid empty list.
type List struct {
	names  []string
	stores []*Store
	// segments holds extra motion samples keyed by attribute name. The first
	// sample is always the store in stores.
	segments map[string][]*Store
}

// NewList builds a list from parallel name/store slices.
func NewList(names []string, stores []*Store) *List {
	l := &List{
		names:  append([]string(nil), names...),
		stores: append([]*Store(nil), stores...),
	}
	return l
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

func (l *List) Names() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.names...)
}

func (l *List) index(name string) int {
	if l == nil {
		return -1
	}
	for i, n := range l.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the attribute called name.
func (l *List) Get(name string) (*Store, bool) {
	i := l.index(name)
	if i < 0 {
		return nil, false
	}
	return l.stores[i], true
}

func (l *List) Has(name string) bool { return l.index(name) >= 0 }

// At returns the name and store at position i.
func (l *List) At(i int) (string, *Store) {
	return l.names[i], l.stores[i]
}

// Segments returns every motion sample of name, the base sample first.
func (l *List) Segments(name string) []*Store {
	i := l.index(name)
	if i < 0 {
		return nil
	}
	if segs, ok := l.segments[name]; ok {
		return append([]*Store{l.stores[i]}, segs...)
	}
	return []*Store{l.stores[i]}
}

// SegmentCount is the largest number of motion samples of any attribute.
func (l *List) SegmentCount() int {
	if l.Len() == 0 {
		return 0
	}
	n := 1
	for _, s := range l.segments {
		if len(s)+1 > n {
			n = len(s) + 1
		}
	}
	return n
}

func (l *List) clone() *List {
	if l == nil {
		return &List{}
	}
	c := &List{
		names:  append([]string(nil), l.names...),
		stores: append([]*Store(nil), l.stores...),
	}
	if len(l.segments) > 0 {
		c.segments = make(map[string][]*Store, len(l.segments))
		for k, v := range l.segments {
			c.segments[k] = v
		}
	}
	return c
}

// With returns a list holding store under name. If the name is already
// present the store replaces it only when replace is set, otherwise the
// receiver is returned unchanged.
func (l *List) With(name string, store *Store, replace bool) *List {
	i := l.index(name)
	if i >= 0 && !replace {
		return l
	}
	c := l.clone()
	if i >= 0 {
		c.stores[i] = store
		delete(c.segments, name)
		return c
	}
	c.names = append(c.names, name)
	c.stores = append(c.stores, store)
	return c
}

// WithSegments returns a list where name carries the given motion samples.
// samples[0] becomes the base store.
func (l *List) WithSegments(name string, samples []*Store) *List {
	if len(samples) == 0 {
		return l
	}
	c := l.With(name, samples[0], true)
	if c == l {
		c = l.clone()
	}
	if len(samples) > 1 {
		if c.segments == nil {
			c.segments = make(map[string][]*Store)
		}
		c.segments[name] = append([]*Store(nil), samples[1:]...)
	}
	return c
}

// Without returns a list missing name, or the receiver when name is absent.
// The result is nil when it would be empty.
func (l *List) Without(name string) *List {
	i := l.index(name)
	if i < 0 {
		return l
	}
	if l.Len() == 1 {
		return nil
	}
	c := l.clone()
	c.names = append(c.names[:i], c.names[i+1:]...)
	c.stores = append(c.stores[:i], c.stores[i+1:]...)
	delete(c.segments, name)
	return c
}

// Entries returns the entry count shared by the attributes, or -1 when the
// list is empty. Attributes are expected to agree.
func (l *List) Entries() int {
	if l.Len() == 0 {
		return -1
	}
	return l.stores[0].Entries()
}

func (l *List) String() string {
	if l.Len() == 0 {
		return "[]"
	}
	parts := make([]string, 0, l.Len())
	for i, n := range l.names {
		parts = append(parts, n+":"+l.stores[i].String())
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, " ") + "]"
}
