package locus

import "github.com/bits-and-blooms/bitset"

// BitVector is a fixed-capacity bitset. Its capacity is set at construction
// and never grows; indices outside it are ignored by Set and read as false.
type BitVector struct {
	bits *bitset.BitSet
	size uint
}

func NewBitVector(size uint) BitVector {
	return BitVector{
		bits: bitset.New(size),
		size: size,
	}
}

// Len returns the capacity in bits.
func (v BitVector) Len() uint {
	return v.size
}

// ByteLen returns the capacity rounded up to whole bytes. Boolean operations
// require both operands to have the same byte length.
func (v BitVector) ByteLen() uint {
	return (v.size + 7) / 8
}

func (v BitVector) Set(i uint, value bool) {
	if i >= v.size || v.bits == nil {
		return
	}
	v.bits.SetTo(i, value)
}

func (v BitVector) Get(i uint) bool {
	if i >= v.size || v.bits == nil {
		return false
	}
	return v.bits.Test(i)
}

func (v BitVector) And(other BitVector) BitVector {
	v.mustMatch(other)
	return BitVector{bits: v.raw().Intersection(other.raw()), size: v.size}
}

func (v BitVector) Or(other BitVector) BitVector {
	v.mustMatch(other)
	return BitVector{bits: v.raw().Union(other.raw()), size: v.size}
}

// Subtract clears every bit of v that is set in other (v AND NOT other).
func (v BitVector) Subtract(other BitVector) BitVector {
	v.mustMatch(other)
	return BitVector{bits: v.raw().Difference(other.raw()), size: v.size}
}

func (v BitVector) PopCount() int {
	if v.bits == nil {
		return 0
	}
	return int(v.bits.Count())
}

// FirstSet returns the index of the first set bit at or after start, or -1.
func (v BitVector) FirstSet(start int) int {
	if v.bits == nil || start < 0 || uint(start) >= v.size {
		return -1
	}
	i, ok := v.bits.NextSet(uint(start))
	if !ok || i >= v.size {
		return -1
	}
	return int(i)
}

// ContainsAll reports whether every bit set in other is also set in v.
func (v BitVector) ContainsAll(other BitVector) bool {
	return other.Subtract(v).PopCount() == 0
}

// ContainsAny reports whether v and other share at least one set bit.
func (v BitVector) ContainsAny(other BitVector) bool {
	return v.And(other).PopCount() > 0
}

func (v BitVector) Equal(other BitVector) bool {
	if v.size != other.size {
		return false
	}
	for i := v.FirstSet(0); i >= 0; i = v.FirstSet(i + 1) {
		if !other.Get(uint(i)) {
			return false
		}
	}
	return v.PopCount() == other.PopCount()
}

func (v BitVector) Clone() BitVector {
	if v.bits == nil {
		return NewBitVector(v.size)
	}
	return BitVector{bits: v.bits.Clone(), size: v.size}
}

// raw returns the backing set, substituting an empty one for the zero value.
func (v BitVector) raw() *bitset.BitSet {
	if v.bits == nil {
		return bitset.New(v.size)
	}
	return v.bits
}

func (v BitVector) mustMatch(other BitVector) {
	mustHold(v.ByteLen() == other.ByteLen(), BitVectorLengthError{Left: v.ByteLen(), Right: other.ByteLen()})
}
