package locus

import (
	"iter"
	"strings"

	"github.com/TheBitDrifter/mask"
	iter_util "github.com/TheBitDrifter/util/iter"
)

// GroupKey is the set of component types an entity carries. All entities with
// equal keys share one storage group. Keys are values: every operation
// returns a new key and leaves the receiver untouched.
type GroupKey struct {
	bits BitVector
	mask mask.Mask
}

func NewGroupKey(components ...Component) GroupKey {
	bits := NewBitVector(MaxComponentTypes)
	for _, c := range components {
		bits.Set(uint(c.Bit()), true)
	}
	return keyFromBits(bits)
}

func keyFromBits(bits BitVector) GroupKey {
	var m mask.Mask
	for i := bits.FirstSet(0); i >= 0; i = bits.FirstSet(i + 1) {
		m.Mark(uint32(i))
	}
	return GroupKey{bits: bits, mask: m}
}

func (k GroupKey) vector() BitVector {
	if k.bits.Len() == 0 {
		return NewBitVector(MaxComponentTypes)
	}
	return k.bits
}

// AddFlag returns a key that additionally contains c.
func (k GroupKey) AddFlag(c Component) GroupKey {
	bits := k.vector().Clone()
	bits.Set(uint(c.Bit()), true)
	return keyFromBits(bits)
}

// RemoveFlag returns a key without c.
func (k GroupKey) RemoveFlag(c Component) GroupKey {
	bits := k.vector().Clone()
	bits.Set(uint(c.Bit()), false)
	return keyFromBits(bits)
}

func (k GroupKey) HasFlag(c Component) bool {
	return k.bits.Get(uint(c.Bit()))
}

// HasAllFlags reports whether the key contains every given type. An empty
// argument list is trivially contained.
func (k GroupKey) HasAllFlags(components ...Component) bool {
	if len(components) == 0 {
		return true
	}
	return k.mask.ContainsAll(maskOf(components))
}

// HasAnyFlag reports whether the key contains at least one given type.
func (k GroupKey) HasAnyFlag(components ...Component) bool {
	if len(components) == 0 {
		return false
	}
	return k.mask.ContainsAny(maskOf(components))
}

func (k GroupKey) Union(other GroupKey) GroupKey {
	return keyFromBits(k.vector().Or(other.vector()))
}

func (k GroupKey) Subtract(other GroupKey) GroupKey {
	return keyFromBits(k.vector().Subtract(other.vector()))
}

// Types yields the contained component types in ascending bit order.
func (k GroupKey) Types() iter.Seq[Component] {
	return func(yield func(Component) bool) {
		for i := k.bits.FirstSet(0); i >= 0; i = k.bits.FirstSet(i + 1) {
			c := componentForBit(uint32(i))
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// ContainedTypes returns the contained component types in ascending bit
// order. This order fixes the column layout of the key's storage group.
func (k GroupKey) ContainedTypes() []Component {
	return iter_util.Collect(k.Types())
}

func (k GroupKey) Len() int {
	return k.bits.PopCount()
}

func (k GroupKey) Empty() bool {
	return k.Len() == 0
}

func (k GroupKey) Equal(other GroupKey) bool {
	return k.mask == other.mask
}

// Mask returns the hashable projection of the key.
func (k GroupKey) Mask() mask.Mask {
	return k.mask
}

// Bits returns a copy of the underlying bit vector.
func (k GroupKey) Bits() BitVector {
	return k.vector().Clone()
}

func (k GroupKey) String() string {
	var b strings.Builder
	b.WriteString("GroupKey{")
	first := true
	for c := range k.Types() {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(c.Name())
		first = false
	}
	b.WriteString("}")
	return b.String()
}

func maskOf(components []Component) mask.Mask {
	var m mask.Mask
	for _, c := range components {
		m.Mark(c.Bit())
	}
	return m
}
