package locus

import "fmt"

// EntityID is a packed entity handle: the low 24 bits hold the entity index
// and the high 8 bits its generation.
type EntityID uint32

const (
	indexBits      = 24
	indexMask      = 1<<indexBits - 1
	MaxEntityIndex = indexMask

	// InvalidGen marks a dense slot that holds a free-list link instead of a
	// live entity.
	InvalidGen uint8 = 1<<8 - 1
	// MaxGeneration is the last generation a live entity can carry.
	MaxGeneration uint8 = InvalidGen - 1

	// noFreeSlot terminates the free list threaded through tombstones.
	noFreeSlot uint32 = indexMask
)

// NilEntity is never returned for a live entity: index 0 starts at generation 1.
const NilEntity EntityID = 0

func NewEntityID(index uint32, generation uint8) EntityID {
	return EntityID(uint32(generation)<<indexBits | index&indexMask)
}

func (id EntityID) Index() uint32 {
	return uint32(id) & indexMask
}

func (id EntityID) Generation() uint8 {
	return uint8(uint32(id) >> indexBits)
}

// IsTombstone reports whether the handle is a free-list link.
func (id EntityID) IsTombstone() bool {
	return id.Generation() == InvalidGen
}

func (id EntityID) String() string {
	if id.IsTombstone() {
		return fmt.Sprintf("Tombstone{next: %d}", id.Index())
	}
	return fmt.Sprintf("Entity{index: %d, gen: %d}", id.Index(), id.Generation())
}

// tombstone builds a free-list link pointing at next, or at nothing when
// next is noFreeSlot.
func tombstone(next uint32) EntityID {
	return NewEntityID(next, InvalidGen)
}

// nextFree returns the slot a tombstone links to.
func (id EntityID) nextFree() (uint32, bool) {
	next := id.Index()
	return next, next != noFreeSlot
}

// nextGeneration advances a generation, skipping the tombstone marker.
func nextGeneration(gen uint8) uint8 {
	if gen >= MaxGeneration {
		return 0
	}
	return gen + 1
}

// entityAllocator hands out entity indices and tracks the current
// generation of each. Freed indices are reused oldest-first so a recycled
// handle stays stale as long as possible.
type entityAllocator struct {
	generations []uint8
	groups      []groupID
	free        []uint32
	freeHead    int
	live        int
}

func (a *entityAllocator) alloc() EntityID {
	if a.freeHead < len(a.free) {
		index := a.free[a.freeHead]
		a.freeHead++
		if a.freeHead == len(a.free) {
			a.free = a.free[:0]
			a.freeHead = 0
		}
		a.live++
		return NewEntityID(index, a.generations[index])
	}
	index := uint32(len(a.generations))
	mustHold(index <= MaxEntityIndex, CapacityExhaustedError{Resource: "entity index", Limit: MaxEntityIndex + 1})
	// Index 0 starts at generation 1 so the zero EntityID never resolves.
	var gen uint8
	if index == 0 {
		gen = 1
	}
	a.generations = append(a.generations, gen)
	a.groups = append(a.groups, noGroup)
	a.live++
	return NewEntityID(index, gen)
}

// release invalidates id and makes its index available again.
func (a *entityAllocator) release(id EntityID) {
	index := id.Index()
	gen := nextGeneration(a.generations[index])
	if index == 0 && gen == 0 {
		gen = 1
	}
	a.generations[index] = gen
	a.groups[index] = noGroup
	a.free = append(a.free, index)
	a.live--
}

func (a *entityAllocator) alive(id EntityID) bool {
	index := id.Index()
	if id.IsTombstone() || int(index) >= len(a.generations) {
		return false
	}
	return a.generations[index] == id.Generation()
}

func (a *entityAllocator) groupOf(id EntityID) (groupID, bool) {
	if !a.alive(id) {
		return noGroup, false
	}
	g := a.groups[id.Index()]
	return g, g != noGroup
}
