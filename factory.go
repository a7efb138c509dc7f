package locus

type factory struct{}

var Factory factory

func (f factory) NewStorage() Storage {
	return newStorage()
}

func (f factory) NewQuery() Query {
	return newQuery()
}

// NewGroupFilter returns a query node matching groups that carry every
// given component.
func (f factory) NewGroupFilter(components ...Component) QueryNode {
	return newLeafNode(components)
}

func (f factory) NewCursor(query QueryNode, storage Storage) *Cursor {
	return newCursor(query, storage)
}

// FactoryNewComponent registers T on first use and returns its accessor.
// Calling it again for the same T returns the same registration.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{
		Component: registerType[T](),
	}
}
