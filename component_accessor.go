package locus

import "unsafe"

// Row addresses one dense slot of a group. Rows are borrowed and become
// stale after the next mutation of their group.
type Row struct {
	group *componentGroup
	slot  int
}

func (r Row) Valid() bool {
	return r.group != nil && r.slot < len(r.group.ids) && !r.group.ids[r.slot].IsTombstone()
}

func (r Row) ID() EntityID {
	return r.group.ids[r.slot]
}

func (r Row) Slot() int {
	return r.slot
}

func (r Row) Group() Group {
	return r.group
}

// Bytes returns the raw value of c in this row, or nil if the row's group
// has no column for c.
func (r Row) Bytes(c Component) []byte {
	if r.group == nil {
		return nil
	}
	return r.group.Get(r.slot, c)
}

// ColumnAs reinterprets a dense column as a slice of T without copying.
// T must be the column's component type.
func ColumnAs[T any](column []byte) []T {
	size := int(unsafe.Sizeof(*new(T)))
	if size == 0 || len(column) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(column))), len(column)/size)
}

// Init assembles the init bytes of one entity for a group layout: every
// contained component at its column offset, in ascending bit order.
type Init struct {
	key     GroupKey
	offsets map[uint32]int
	buf     []byte
}

func NewInit(key GroupKey) *Init {
	rec := &Init{key: key, offsets: make(map[uint32]int)}
	stride := 0
	for c := range key.Types() {
		rec.offsets[c.Bit()] = stride
		stride += c.Size()
	}
	rec.buf = make([]byte, stride)
	return rec
}

func (i *Init) Key() GroupKey {
	return i.key
}

func (i *Init) Bytes() []byte {
	return i.buf
}

// With writes v into the init record. Components outside the key are ignored.
func With[T any](rec *Init, c AccessibleComponent[T], v T) *Init {
	offset, ok := rec.offsets[c.Bit()]
	if !ok {
		return rec
	}
	size := c.Size()
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	copy(rec.buf[offset:offset+size], src)
	return rec
}
