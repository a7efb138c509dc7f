package locus

import "unsafe"

// AccessibleComponent extends a base Component with typed access to its
// dense column.
type AccessibleComponent[T any] struct {
	Component
}

// Get returns a pointer to the value in row, or nil if the row's group does
// not store this component.
func (c AccessibleComponent[T]) Get(row Row) *T {
	b := row.Bytes(c)
	if len(b) == 0 {
		return nil
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// GetFromEntity looks the entity up in storage and returns its value.
func (c AccessibleComponent[T]) GetFromEntity(sto Storage, id EntityID) (*T, bool) {
	row, ok := sto.Row(id)
	if !ok {
		return nil, false
	}
	v := c.Get(row)
	return v, v != nil
}

// GetFromCursor retrieves the value for the entity at the cursor position.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(cursor.row())
}

// GetFromCursorSafe is GetFromCursor with an existence check on the
// current group.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the group at the cursor position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return cursor.currentGroup != nil && cursor.currentGroup.key.HasFlag(c)
}

// Column returns the group's column of this component as a typed slice.
func (c AccessibleComponent[T]) Column(g Group) ([]T, bool) {
	b, ok := g.Column(c)
	if !ok {
		return nil, false
	}
	return ColumnAs[T](b), true
}
