package locus

import (
	"iter"
)

var _ iCursor = &Cursor{}

func newCursor(query QueryNode, storage Storage) *Cursor {
	return &Cursor{
		query:   query,
		storage: storage,
		slot:    -1,
	}
}

// Next advances to the next live entity of a matching group. The storage is
// locked while iterating and unlocked once Next returns false. A caller that
// stops before then must call Reset to release the lock; Entities does this
// on early exit.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.groupIndex < len(c.matchedGroups) {
		c.currentGroup = c.matchedGroups[c.groupIndex]
		for c.slot+1 < len(c.currentGroup.ids) {
			c.slot++
			if !c.currentGroup.ids[c.slot].IsTombstone() {
				c.visited++
				return true
			}
		}
		c.groupIndex++
		c.slot = -1
	}
	c.Reset()
	return false
}

func (c *Cursor) Entities() iter.Seq2[EntityID, Row] {
	return func(yield func(EntityID, Row) bool) {
		defer c.Reset()
		for c.Next() {
			row := c.row()
			if !yield(row.ID(), row) {
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matchedGroups = c.match()
	c.groupIndex = 0
	c.slot = -1
	c.visited = 0
	c.ownsLock = !c.storage.Locked()
	if c.ownsLock {
		c.storage.Lock()
	}
	c.initialized = true
}

func (c *Cursor) Reset() {
	wasInitialized := c.initialized
	c.groupIndex = 0
	c.slot = -1
	c.currentGroup = nil
	c.matchedGroups = nil
	c.initialized = false
	if wasInitialized && c.ownsLock {
		c.ownsLock = false
		c.storage.Unlock()
	}
}

func (c *Cursor) row() Row {
	return Row{group: c.currentGroup, slot: c.slot}
}

// CurrentEntity returns the entity under the cursor.
func (c *Cursor) CurrentEntity() (EntityID, Row) {
	row := c.row()
	return row.ID(), row
}

// Visited returns how many entities the cursor has produced so far.
func (c *Cursor) Visited() int {
	return c.visited
}

// match returns every group whose key satisfies the query.
func (c *Cursor) match() []*componentGroup {
	matched := make([]*componentGroup, 0)
	for _, g := range c.storage.(*storage).groups.asSlice {
		if c.query.Evaluate(g.key) {
			matched = append(matched, g)
		}
	}
	return matched
}

// TotalMatched counts the live entities of every matching group. It does not
// start an iteration.
func (c *Cursor) TotalMatched() int {
	groups := c.matchedGroups
	if !c.initialized {
		groups = c.match()
	}
	total := 0
	for _, g := range groups {
		total += g.live
	}
	return total
}
