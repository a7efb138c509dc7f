package locus

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
)

// MaxComponentTypes bounds the number of distinct component types a process
// may register. It is also the bit capacity of every GroupKey.
const MaxComponentTypes = 64

// Component represents a data attribute/state that can be attached to entities.
// Components are registered once per process and keep their bit index for the
// lifetime of the registry.
type Component interface {
	// Bit is the stable index of this type inside a GroupKey.
	Bit() uint32
	// Size is the byte width of one value in a dense column.
	Size() int
	Name() string
	ElementType() table.ElementType
}

type componentType struct {
	element table.ElementType
	typ     reflect.Type
	bit     uint32
	size    int
}

func (c *componentType) Bit() uint32                    { return c.bit }
func (c *componentType) Size() int                      { return c.size }
func (c *componentType) Name() string                   { return c.typ.String() }
func (c *componentType) ElementType() table.ElementType { return c.element }

func (c *componentType) String() string {
	return c.Name()
}

// typeRegistry maps component types to bit indices. Bits are handed out in
// registration order starting at zero and restart after ResetRegistry; the
// table element type only carries the type's identity.
type typeRegistry struct {
	mu     sync.Mutex
	byType map[reflect.Type]*componentType
	byBit  [MaxComponentTypes]*componentType
}

var registry = newTypeRegistry()

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		byType: make(map[reflect.Type]*componentType),
	}
}

// ResetRegistry discards every registered component type. Components created
// before the reset must not be used afterwards. Intended for tests that need
// deterministic bit assignment.
func ResetRegistry() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.byType = make(map[reflect.Type]*componentType)
	registry.byBit = [MaxComponentTypes]*componentType{}
}

func registerType[T any]() *componentType {
	typ := reflect.TypeFor[T]()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if found, ok := registry.byType[typ]; ok {
		return found
	}
	mustHold(pointerFree(typ), ComponentLayoutError{Type: typ.String()})

	bit := uint32(len(registry.byType))
	mustHold(bit < MaxComponentTypes, CapacityExhaustedError{Resource: "component type", Limit: MaxComponentTypes})
	element := table.FactoryNewElementType[T]()

	created := &componentType{
		element: element,
		typ:     typ,
		bit:     bit,
		size:    int(typ.Size()),
	}
	registry.byType[typ] = created
	registry.byBit[bit] = created

	Config.logger.WithField("component", typ.String()).WithField("bit", bit).Debug("registered component type")
	return created
}

func componentForBit(bit uint32) Component {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if bit >= MaxComponentTypes || registry.byBit[bit] == nil {
		return nil
	}
	return registry.byBit[bit]
}

// pointerFree reports whether values of typ can be stored as raw bytes
// without hiding pointers from the garbage collector.
func pointerFree(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(typ.Elem())
	case reflect.Struct:
		for i := range typ.NumField() {
			if !pointerFree(typ.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}
