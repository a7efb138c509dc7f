package locus

import (
	"fmt"
	"iter"

	"github.com/TheBitDrifter/mask"
	"github.com/sirupsen/logrus"
)

var _ Storage = &storage{}

type storage struct {
	locked   bool
	groups   *groups
	opQueue  opQueue
	entities entityAllocator
	log      logrus.FieldLogger
}

type groups struct {
	nextID            groupID
	asSlice           []*componentGroup
	idsGroupedByMask  map[mask.Mask]groupID
	pageSize, maxPage int
}

func newStorage() Storage {
	return &storage{
		groups: &groups{
			nextID:           1,
			idsGroupedByMask: make(map[mask.Mask]groupID),
			pageSize:         Config.pageSize,
			maxPage:          Config.maxPages,
		},
		opQueue: newOpQueue(),
		log:     Config.logger.WithField("component", "storage"),
	}
}

// groupFor returns the group of key, creating it on first use. Groups are
// never deleted.
func (sto *storage) groupFor(key GroupKey) *componentGroup {
	if id, found := sto.groups.idsGroupedByMask[key.Mask()]; found {
		return sto.groups.asSlice[id-1]
	}
	created := newComponentGroup(sto.groups.nextID, key, sto.groups.pageSize, sto.groups.maxPage)
	sto.groups.asSlice = append(sto.groups.asSlice, created)
	sto.groups.idsGroupedByMask[key.Mask()] = created.id
	sto.groups.nextID++
	sto.log.WithFields(logrus.Fields{
		"group": key.String(),
		"id":    created.id,
	}).Debug("created component group")
	return created
}

func (sto *storage) NewEntity(key GroupKey, record []byte) (EntityID, error) {
	if sto.locked {
		return NilEntity, LockedStorageError{}
	}
	g := sto.groupFor(key)
	g.checkRecord(record)
	id := sto.entities.alloc()
	g.add(id, record)
	sto.entities.groups[id.Index()] = g.id
	return id, nil
}

func (sto *storage) NewEntities(n int, key GroupKey) ([]EntityID, error) {
	if sto.locked {
		return nil, LockedStorageError{}
	}
	g := sto.groupFor(key)
	ids := make([]EntityID, n)
	for i := range ids {
		id := sto.entities.alloc()
		g.add(id, nil)
		sto.entities.groups[id.Index()] = g.id
		ids[i] = id
	}
	return ids, nil
}

// RemoveEntity destroys id. Removing an entity that is not alive is a
// precondition violation and panics.
func (sto *storage) RemoveEntity(id EntityID) error {
	if sto.locked {
		return LockedStorageError{}
	}
	gid, ok := sto.entities.groupOf(id)
	mustHold(ok, EntityNotFoundError{ID: id})
	sto.groups.asSlice[gid-1].remove(id)
	sto.entities.release(id)
	return nil
}

func (sto *storage) EnqueueNewEntity(key GroupKey, record []byte) error {
	if !sto.locked {
		if _, err := sto.NewEntity(key, record); err != nil {
			return fmt.Errorf("failed to create entity directly: %w", err)
		}
		return nil
	}
	sto.opQueue.enqueueOp(operation{
		typ:    opCreate,
		key:    key,
		record: record,
	})
	return nil
}

func (sto *storage) EnqueueRemoveEntity(id EntityID) error {
	if !sto.locked {
		return sto.RemoveEntity(id)
	}
	sto.opQueue.EnqueueDestroy(id)
	return nil
}

func (sto *storage) Has(id EntityID) bool {
	gid, ok := sto.entities.groupOf(id)
	if !ok {
		return false
	}
	return sto.groups.asSlice[gid-1].Has(id)
}

func (sto *storage) Row(id EntityID) (Row, bool) {
	gid, ok := sto.entities.groupOf(id)
	if !ok {
		return Row{}, false
	}
	return sto.groups.asSlice[gid-1].Row(id)
}

func (sto *storage) GroupOf(id EntityID) (Group, bool) {
	gid, ok := sto.entities.groupOf(id)
	if !ok {
		return nil, false
	}
	return sto.groups.asSlice[gid-1], true
}

func (sto *storage) Group(key GroupKey) (Group, bool) {
	g, ok := sto.group(key)
	if !ok {
		return nil, false
	}
	return g, true
}

func (sto *storage) group(key GroupKey) (*componentGroup, bool) {
	id, found := sto.groups.idsGroupedByMask[key.Mask()]
	if !found {
		return nil, false
	}
	return sto.groups.asSlice[id-1], true
}

func (sto *storage) Groups() iter.Seq[Group] {
	return func(yield func(Group) bool) {
		for _, g := range sto.groups.asSlice {
			if !yield(g) {
				return
			}
		}
	}
}

// ForEachInGroup visits every live entity of the group with exactly key.
// The storage stays locked for the duration; use the Enqueue variants to
// mutate from inside fn.
func (sto *storage) ForEachInGroup(key GroupKey, fn func(EntityID, Row) bool) {
	g, ok := sto.group(key)
	if !ok {
		return
	}
	sto.withLock(func() {
		g.ForEach(-1, fn)
	})
}

// ForEachEntityFrom visits only the given entities, skipping any that are no
// longer alive, and returns how many were visited.
func (sto *storage) ForEachEntityFrom(ids []EntityID, fn func(EntityID, Row) bool) int {
	visited := 0
	sto.withLock(func() {
		for _, id := range ids {
			row, ok := sto.Row(id)
			if !ok {
				continue
			}
			visited++
			if !fn(id, row) {
				return
			}
		}
	})
	return visited
}

// Compact shrinks the group of key so its live entities occupy the leading
// slots. It reports false if the group does not exist or storage is locked.
func (sto *storage) Compact(key GroupKey) bool {
	if sto.locked {
		return false
	}
	g, ok := sto.group(key)
	if !ok {
		return false
	}
	if !g.Compacted() {
		g.Shrink()
	}
	return true
}

func (sto *storage) Len() int {
	return sto.entities.live
}

func (sto *storage) Locked() bool {
	return sto.locked
}

func (sto *storage) Lock() {
	sto.locked = true
}

func (sto *storage) Unlock() {
	sto.locked = false
	err := sto.processOperationQueue()
	if err != nil {
		panic(err)
	}
}

// withLock runs fn with the storage locked, restoring the previous state.
// Nested iteration keeps the outer lock.
func (sto *storage) withLock(fn func()) {
	if sto.locked {
		fn()
		return
	}
	sto.Lock()
	defer sto.Unlock()
	fn()
}
