package locus

type groupID uint32

const noGroup groupID = 0

// minGroupSlots is the slot count of a group's first growth.
const minGroupSlots = 8

type column struct {
	component Component
	size      int
	// offset of this column's value inside an init byte record
	offset int
	data   []byte
}

// componentGroup stores every entity of one GroupKey. Slots are dense; free
// slots hold tombstones that chain the free list through the ID column.
type componentGroup struct {
	id       groupID
	key      GroupKey
	columns  []column
	colIndex [MaxComponentTypes]int16
	ids      []EntityID
	sparse   sparsePages
	freeHead uint32
	live     int
	stride   int
}

var _ Group = &componentGroup{}

func newComponentGroup(id groupID, key GroupKey, pageSize, maxPages int) *componentGroup {
	g := &componentGroup{
		id:       id,
		key:      key,
		sparse:   newSparsePages(pageSize, maxPages),
		freeHead: noFreeSlot,
	}
	for i := range g.colIndex {
		g.colIndex[i] = -1
	}
	for _, c := range key.ContainedTypes() {
		g.colIndex[c.Bit()] = int16(len(g.columns))
		g.columns = append(g.columns, column{
			component: c,
			size:      c.Size(),
			offset:    g.stride,
		})
		g.stride += c.Size()
	}
	return g
}

func (g *componentGroup) Key() GroupKey   { return g.key }
func (g *componentGroup) LiveCount() int  { return g.live }
func (g *componentGroup) SlotCount() int  { return len(g.ids) }
func (g *componentGroup) Stride() int     { return g.stride }
func (g *componentGroup) IDs() []EntityID { return g.ids }

// Compacted reports whether the first LiveCount slots are exactly the live
// entities, which is what batch consumers of ColumnPointers rely on.
func (g *componentGroup) Compacted() bool {
	return g.live == len(g.ids)
}

func (g *componentGroup) Lookup(id EntityID) (int, bool) {
	slot, ok := g.sparse.lookup(id.Index())
	if !ok || g.ids[slot] != id {
		return 0, false
	}
	return int(slot), true
}

func (g *componentGroup) Has(id EntityID) bool {
	_, ok := g.Lookup(id)
	return ok
}

func (g *componentGroup) Row(id EntityID) (Row, bool) {
	slot, ok := g.Lookup(id)
	if !ok {
		return Row{}, false
	}
	return Row{group: g, slot: slot}, true
}

// Get returns the bytes of component c at slot, or nil when the group has no
// such column.
func (g *componentGroup) Get(slot int, c Component) []byte {
	col := g.column(c)
	if col == nil || slot < 0 || slot >= len(g.ids) {
		return nil
	}
	return col.data[slot*col.size : (slot+1)*col.size]
}

func (g *componentGroup) Column(c Component) ([]byte, bool) {
	col := g.column(c)
	if col == nil {
		return nil, false
	}
	return col.data, true
}

func (g *componentGroup) column(c Component) *column {
	if c == nil || c.Bit() >= MaxComponentTypes {
		return nil
	}
	i := g.colIndex[c.Bit()]
	if i < 0 {
		return nil
	}
	return &g.columns[i]
}

// ColumnPointers returns the current column views. The views are borrowed and
// stay valid until the next mutation of the group.
func (g *componentGroup) ColumnPointers() ColumnSet {
	set := ColumnSet{
		components: make([]Component, len(g.columns)),
		columns:    make([][]byte, len(g.columns)),
		ids:        g.ids,
	}
	for i, col := range g.columns {
		set.components[i] = col.component
		set.columns[i] = col.data
	}
	return set
}

// ForEach visits up to count live entities in slot order, or all of them
// when count is negative. Iteration stops when fn returns false.
func (g *componentGroup) ForEach(count int, fn func(EntityID, Row) bool) {
	if count < 0 {
		count = g.live
	}
	visited := 0
	for slot := 0; slot < len(g.ids) && visited < count; slot++ {
		id := g.ids[slot]
		if id.IsTombstone() {
			continue
		}
		visited++
		if !fn(id, Row{group: g, slot: slot}) {
			return
		}
	}
}

// ChangeSize resizes every column and the ID column to n slots. New slots
// are zero-filled; shrinking drops the tail.
func (g *componentGroup) ChangeSize(n int) {
	for i := range g.columns {
		col := &g.columns[i]
		col.data = resize(col.data, n*col.size)
	}
	g.ids = resize(g.ids, n)
}

func resize[T any](s []T, n int) []T {
	if n <= len(s) {
		clear(s[n:])
		return s[:n]
	}
	if n <= cap(s) {
		old := len(s)
		s = s[:n]
		clear(s[old:])
		return s
	}
	grown := make([]T, n)
	copy(grown, s)
	return grown
}

// checkRecord panics unless record is nil or matches the group's layout.
func (g *componentGroup) checkRecord(record []byte) {
	mustHold(record == nil || len(record) == g.stride, InitLayoutError{Expected: g.stride, Actual: len(record)})
}

// add places id in the group and returns its slot. If the slot already holds
// id the component bytes are overwritten in place.
func (g *componentGroup) add(id EntityID, record []byte) int {
	g.checkRecord(record)
	index := id.Index()
	if slot, ok := g.sparse.lookup(index); ok {
		if g.ids[slot] != id {
			g.zero(int(slot))
			g.ids[slot] = id
		}
		g.write(int(slot), record)
		return int(slot)
	}

	g.sparse.ensure(index)
	if g.freeHead == noFreeSlot {
		g.Grow()
	}
	slot := g.freeHead
	g.freeHead, _ = g.ids[slot].nextFree()
	g.ids[slot] = id
	g.sparse.set(index, slot)
	g.live++
	g.write(int(slot), record)
	return int(slot)
}

// remove tombstones the slot of id and pushes it on the free list.
func (g *componentGroup) remove(id EntityID) {
	slot, ok := g.Lookup(id)
	mustHold(ok, EntityNotFoundError{ID: id})
	g.zero(slot)
	g.ids[slot] = tombstone(g.freeHead)
	g.freeHead = uint32(slot)
	g.sparse.clear(id.Index())
	g.live--
}

// Swap exchanges the dense slots of two live entities.
func (g *componentGroup) Swap(a, b EntityID) {
	slotA, okA := g.Lookup(a)
	mustHold(okA, EntityNotFoundError{ID: a})
	slotB, okB := g.Lookup(b)
	mustHold(okB, EntityNotFoundError{ID: b})
	if slotA == slotB {
		return
	}
	for i := range g.columns {
		col := &g.columns[i]
		x := col.data[slotA*col.size : (slotA+1)*col.size]
		y := col.data[slotB*col.size : (slotB+1)*col.size]
		for j := range x {
			x[j], y[j] = y[j], x[j]
		}
	}
	g.ids[slotA], g.ids[slotB] = b, a
	g.sparse.set(a.Index(), uint32(slotB))
	g.sparse.set(b.Index(), uint32(slotA))
}

// Grow extends the group by half its size, at least by one slot, capped at
// the number of entities its allocated pages can address. New slots are
// linked onto the free list.
func (g *componentGroup) Grow() {
	old := len(g.ids)
	limit := g.sparse.capacity()
	target := min(max(old+old/2, old+1, minGroupSlots), limit)
	mustHold(target > old, CapacityExhaustedError{Resource: "group slot", Limit: limit})
	g.ChangeSize(target)

	head := g.freeHead
	for slot := target - 1; slot >= old; slot-- {
		g.ids[slot] = tombstone(head)
		head = uint32(slot)
	}
	g.freeHead = head

	Config.logger.WithField("group", g.key.String()).
		WithField("from", old).
		WithField("to", target).
		Debug("grew component group")
}

// Shrink moves live entities from the tail into free slots until every free
// slot sits behind the live range, then truncates. Only moved entities
// change slot.
func (g *componentGroup) Shrink() {
	before := len(g.ids)
	lo, hi := 0, len(g.ids)-1
	for {
		for lo < hi && !g.ids[lo].IsTombstone() {
			lo++
		}
		for hi > lo && g.ids[hi].IsTombstone() {
			hi--
		}
		if lo >= hi {
			break
		}
		g.move(hi, lo)
		lo++
		hi--
	}
	g.ChangeSize(g.live)
	g.freeHead = noFreeSlot

	if before != g.live {
		Config.logger.WithField("group", g.key.String()).
			WithField("from", before).
			WithField("to", g.live).
			Debug("shrank component group")
	}
}

// move relocates the live entity at src into the free slot dst.
func (g *componentGroup) move(src, dst int) {
	for i := range g.columns {
		col := &g.columns[i]
		copy(col.data[dst*col.size:(dst+1)*col.size], col.data[src*col.size:(src+1)*col.size])
	}
	id := g.ids[src]
	g.ids[dst] = id
	g.ids[src] = tombstone(noFreeSlot)
	g.zero(src)
	g.sparse.set(id.Index(), uint32(dst))
}

func (g *componentGroup) write(slot int, record []byte) {
	if record == nil {
		return
	}
	for i := range g.columns {
		col := &g.columns[i]
		copy(col.data[slot*col.size:(slot+1)*col.size], record[col.offset:col.offset+col.size])
	}
}

func (g *componentGroup) zero(slot int) {
	for i := range g.columns {
		col := &g.columns[i]
		clear(col.data[slot*col.size : (slot+1)*col.size])
	}
}

// ColumnSet is a point-in-time view of a group's dense columns. The entity
// ID column is kept apart from the component columns and reached through IDs.
type ColumnSet struct {
	components []Component
	columns    [][]byte
	ids        []EntityID
}

// Len returns the number of component columns.
func (s ColumnSet) Len() int {
	return len(s.columns)
}

func (s ColumnSet) Component(i int) Component {
	return s.components[i]
}

func (s ColumnSet) Column(i int) []byte {
	return s.columns[i]
}

// For returns the column of c.
func (s ColumnSet) For(c Component) ([]byte, bool) {
	for i, comp := range s.components {
		if comp.Bit() == c.Bit() {
			return s.columns[i], true
		}
	}
	return nil, false
}

// IDs returns the entity ID column.
func (s ColumnSet) IDs() []EntityID {
	return s.ids
}
