package core

import (
	"fmt"
	"sync"
)

const (
	identifierSlotBits = 20
	identifierSlotMask = 1<<identifierSlotBits - 1
)

type identifierSlot struct {
	owner      interface{}
	generation uint32
}

// Identifiers hands out small integer ids and recycles released slots.
// Every id carries the generation of its slot, so an id stays dead once
// released even after its slot is handed out again. Id 0 is never handed
// out so it can be used as the invalid handle.
type Identifiers struct {
	mu    sync.Mutex
	slots []identifierSlot
}

func NewIdentifiers(capacity int) *Identifiers {
	if capacity < 1 {
		capacity = 1
	}
	// slot 0 is reserved
	slots := make([]identifierSlot, 1, capacity+1)
	slots[0].owner = struct{}{}
	return &Identifiers{slots: slots}
}

func makeIdentifier(slot, generation uint32) uint32 {
	return generation<<identifierSlotBits | slot
}

func splitIdentifier(id uint32) (slot, generation uint32) {
	return id & identifierSlotMask, id >> identifierSlotBits
}

func (ids *Identifiers) Acquire(owner interface{}) uint32 {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	length := uint32(len(ids.slots))
	for i := uint32(1); i < length; i++ {
		// Existing free spot. Take it.
		if ids.slots[i].owner == nil {
			ids.slots[i].owner = owner
			return makeIdentifier(i, ids.slots[i].generation)
		}
	}

	// No free slot, push a new one.
	if length > identifierSlotMask {
		panic(fmt.Sprintf("identifier acquire: more than %d ids in use", identifierSlotMask))
	}
	ids.slots = append(ids.slots, identifierSlot{owner: owner})
	return makeIdentifier(length, 0)
}

// lookup returns the live slot of id, or nil.
func (ids *Identifiers) lookup(id uint32) *identifierSlot {
	slot, generation := splitIdentifier(id)
	if slot == 0 || slot >= uint32(len(ids.slots)) {
		return nil
	}
	s := &ids.slots[slot]
	if s.owner == nil || s.generation != generation {
		return nil
	}
	return s
}

func (ids *Identifiers) Owner(id uint32) (interface{}, bool) {
	ids.mu.Lock()
	defer ids.mu.Unlock()
	s := ids.lookup(id)
	if s == nil {
		return nil, false
	}
	return s.owner, true
}

func (ids *Identifiers) Release(id uint32) error {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	s := ids.lookup(id)
	if s == nil {
		return fmt.Errorf("identifier release: id '%d' is not in use. Nothing was done", id)
	}

	// Free the slot and retire every id handed out for it so far.
	s.owner = nil
	s.generation = (s.generation + 1) & (1<<(32-identifierSlotBits) - 1)
	return nil
}

// InUse counts the live ids.
func (ids *Identifiers) InUse() int {
	ids.mu.Lock()
	defer ids.mu.Unlock()
	n := 0
	for _, s := range ids.slots[1:] {
		if s.owner != nil {
			n++
		}
	}
	return n
}
