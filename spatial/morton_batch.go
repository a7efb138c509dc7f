package spatial

import (
	"os"
	"strings"

	"golang.org/x/sys/cpu"
)

// MortonPath selects the batch encoder implementation.
type MortonPath uint8

const (
	MortonAuto MortonPath = iota
	MortonScalar
	// MortonWide spreads both coordinates of a position in one 64-bit word.
	MortonWide
)

func (p MortonPath) String() string {
	switch p {
	case MortonScalar:
		return "scalar"
	case MortonWide:
		return "wide"
	default:
		return "auto"
	}
}

// ParseMortonPath parses a path name as accepted by LOCUS_MORTON.
func ParseMortonPath(s string) (MortonPath, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar":
		return MortonScalar, true
	case "wide":
		return MortonWide, true
	case "auto", "":
		return MortonAuto, true
	}
	return MortonAuto, false
}

// detectedPath is resolved once at init from LOCUS_MORTON or CPU features.
var detectedPath = detectMortonPath()

func detectMortonPath() MortonPath {
	if p, ok := ParseMortonPath(os.Getenv("LOCUS_MORTON")); ok && p != MortonAuto {
		return p
	}
	if cpu.X86.HasSSE41 || cpu.ARM64.HasASIMD {
		return MortonWide
	}
	return MortonScalar
}

func (p MortonPath) resolve() MortonPath {
	if p == MortonAuto {
		return detectedPath
	}
	return p
}

// EncodeBatch writes the Morton key of every position into dst, which must
// be at least as long as src.
func EncodeBatch(dst []uint32, src []Vec2, path MortonPath) {
	dst = dst[:len(src)]
	if path.resolve() == MortonWide {
		encodeWide(dst, src)
		return
	}
	encodeScalar(dst, src)
}

func encodeScalar(dst []uint32, src []Vec2) {
	for i, p := range src {
		dst[i] = Encode(p.X, p.Y)
	}
}

// spread2 interleaves two 16-bit coordinates held in the low halves of
// each 32-bit lane of v.
func spread2(v uint64) uint32 {
	v = (v | v<<8) & 0x00FF00FF00FF00FF
	v = (v | v<<4) & 0x0F0F0F0F0F0F0F0F
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return uint32(v) | uint32(v>>32)<<1
}

func lanes(p Vec2) uint64 {
	return uint64(quantize(p.X)) | uint64(quantize(p.Y))<<32
}

func encodeWide(dst []uint32, src []Vec2) {
	i := 0
	for ; i+4 <= len(src); i += 4 {
		a, b, c, d := lanes(src[i]), lanes(src[i+1]), lanes(src[i+2]), lanes(src[i+3])
		dst[i] = spread2(a)
		dst[i+1] = spread2(b)
		dst[i+2] = spread2(c)
		dst[i+3] = spread2(d)
	}
	for ; i < len(src); i++ {
		dst[i] = spread2(lanes(src[i]))
	}
}
