package spatial

import "math"

const (
	// MortonOffset shifts signed 16-bit cell coordinates into unsigned range.
	MortonOffset = 32767

	minCell = -MortonOffset
	maxCell = math.MaxUint16 - MortonOffset
)

// quantize maps a world coordinate to its unsigned cell coordinate.
// Coordinates outside the cell range are clamped onto the border cells.
func quantize(v float32) uint32 {
	c := math.Floor(float64(v))
	switch {
	case c != c || c < minCell:
		c = minCell
	case c > maxCell:
		c = maxCell
	}
	return uint32(int32(c) + MortonOffset)
}

// part1By1 spreads the low 16 bits of v onto the even bit positions.
func part1By1(v uint32) uint32 {
	v &= 0x0000FFFF
	v = (v | v<<8) & 0x00FF00FF
	v = (v | v<<4) & 0x0F0F0F0F
	v = (v | v<<2) & 0x33333333
	v = (v | v<<1) & 0x55555555
	return v
}

// compact1By1 gathers the even bits of v into the low 16 bits.
func compact1By1(v uint32) uint32 {
	v &= 0x55555555
	v = (v | v>>1) & 0x33333333
	v = (v | v>>2) & 0x0F0F0F0F
	v = (v | v>>4) & 0x00FF00FF
	v = (v | v>>8) & 0x0000FFFF
	return v
}

// Encode interleaves the cell coordinates of (x, z) into a Morton key. X
// occupies the even bits.
func Encode(x, z float32) uint32 {
	return part1By1(quantize(x)) | part1By1(quantize(z))<<1
}

// Decode returns the signed cell coordinates a key was built from.
func Decode(key uint32) (x, z int32) {
	return int32(compact1By1(key)) - MortonOffset, int32(compact1By1(key>>1)) - MortonOffset
}

// CellBox returns the world-space box of the cell a key addresses. Border
// cells are unbounded outward since clamped coordinates land in them.
func CellBox(key uint32) Box {
	x, z := Decode(key)
	box := Box{
		Min: Vec2{X: float32(x), Y: float32(z)},
		Max: Vec2{X: float32(x + 1), Y: float32(z + 1)},
	}
	if x == minCell {
		box.Min.X = -inf
	}
	if x == maxCell {
		box.Max.X = inf
	}
	if z == minCell {
		box.Min.Y = -inf
	}
	if z == maxCell {
		box.Max.Y = inf
	}
	return box
}
