package attrib

import "sync"

// StringTable interns strings shared by every string attribute of a render
// index. Safe for concurrent use.
type StringTable struct {
	mu      sync.RWMutex
	index   map[string]int32
	strings []string
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int32)}
}

// Intern returns the index of value, adding it on first use.
func (t *StringTable) Intern(value string) int32 {
	t.mu.RLock()
	idx, ok := t.index[value]
	t.mu.RUnlock()
	if ok {
		return idx
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.index[value]; ok {
		return idx
	}
	idx = int32(len(t.strings))
	t.strings = append(t.strings, value)
	t.index[value] = idx
	return idx
}

func (t *StringTable) Lookup(idx int32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx < 0 || int(idx) >= len(t.strings) {
		return "", false
	}
	return t.strings[idx], true
}

func (t *StringTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strings)
}
