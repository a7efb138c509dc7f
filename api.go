package locus

import "iter"

// Storage owns every entity and shards them into groups by GroupKey.
type Storage interface {
	NewEntity(key GroupKey, record []byte) (EntityID, error)
	NewEntities(n int, key GroupKey) ([]EntityID, error)
	EnqueueNewEntity(key GroupKey, record []byte) error
	RemoveEntity(id EntityID) error
	EnqueueRemoveEntity(id EntityID) error
	Has(id EntityID) bool
	Row(id EntityID) (Row, bool)
	GroupOf(id EntityID) (Group, bool)
	Group(key GroupKey) (Group, bool)
	Groups() iter.Seq[Group]
	ForEachInGroup(key GroupKey, fn func(EntityID, Row) bool)
	ForEachEntityFrom(ids []EntityID, fn func(EntityID, Row) bool) int
	Compact(key GroupKey) bool
	Len() int
	Locked() bool
	Lock()
	Unlock()
}

// Group is one storage shard: dense columns for every component of its key
// plus the entity ID column.
type Group interface {
	Key() GroupKey
	LiveCount() int
	SlotCount() int
	Stride() int
	Compacted() bool
	Has(EntityID) bool
	Lookup(EntityID) (int, bool)
	Row(EntityID) (Row, bool)
	Get(slot int, c Component) []byte
	Column(Component) ([]byte, bool)
	IDs() []EntityID
	ColumnPointers() ColumnSet
	ForEach(count int, fn func(EntityID, Row) bool)
	ChangeSize(n int)
	Swap(a, b EntityID)
	Grow()
	Shrink()
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(key GroupKey) bool
}

type iCursor interface {
	Entities() iter.Seq2[EntityID, Row]
	Next() bool
}

// Warning: internal Dependencies abound!
type Cursor struct {
	// The query to filter groups
	query QueryNode

	// The storage to iterate over
	storage Storage

	// Current iteration state
	currentGroup *componentGroup
	groupIndex   int
	slot         int
	visited      int

	// Initialization state
	initialized   bool
	ownsLock      bool
	matchedGroups []*componentGroup
}
