package spatial

import (
	"github.com/TheBitDrifter/locus/internal/jobs"
)

const (
	digitBits = 2
	buckets   = 1 << digitBits
	digitMask = buckets - 1
	// passes covers every bit of a 32-bit key. It is even, so the sorted
	// result always lands back in buffer 0.
	passes = 32 / digitBits
)

// radixSorter is a stable LSD radix sort of 32-bit keys carrying a
// permutation. Every pass is split into a parallel count, a serial prefix
// and a parallel move; the two buffers alternate between passes.
type radixSorter struct {
	workers int
	n       int
	keys    [2][]uint32
	perm    [2][]uint32
	counts  [][buckets]uint32
	offsets [][buckets]uint32
}

// newRadixSorter sorts keys in place. perm[i] starts as i and follows its
// key through the sort.
func newRadixSorter(keys []uint32, workers int) *radixSorter {
	n := len(keys)
	s := &radixSorter{
		workers: max(workers, 1),
		n:       n,
		counts:  make([][buckets]uint32, max(workers, 1)),
		offsets: make([][buckets]uint32, max(workers, 1)),
	}
	s.keys[0] = keys
	s.keys[1] = make([]uint32, n)
	s.perm[0] = make([]uint32, n)
	s.perm[1] = make([]uint32, n)
	for i := range s.perm[0] {
		s.perm[0][i] = uint32(i)
	}
	return s
}

// Keys returns the sorted keys once every pass has run.
func (s *radixSorter) Keys() []uint32 {
	return s.keys[0]
}

// Perm maps each sorted position to the original index of its key.
func (s *radixSorter) Perm() []uint32 {
	return s.perm[0]
}

func digit(key uint32, pass int) uint32 {
	return key >> (pass * digitBits) & digitMask
}

func (s *radixSorter) count(pass, worker int) {
	src := s.keys[pass&1]
	lo, hi := jobs.Chunk(s.n, s.workers, worker)
	var local [buckets]uint32
	for _, k := range src[lo:hi] {
		local[digit(k, pass)]++
	}
	s.counts[worker] = local
}

// prefix turns the per-worker counts into write offsets: an exclusive scan
// across workers inside each bucket, then across buckets.
func (s *radixSorter) prefix() {
	var totals [buckets]uint32
	for b := range buckets {
		var running uint32
		for w := range s.workers {
			s.offsets[w][b] = running
			running += s.counts[w][b]
		}
		totals[b] = running
	}
	var global uint32
	for b := range buckets {
		for w := range s.workers {
			s.offsets[w][b] += global
		}
		global += totals[b]
	}
}

func (s *radixSorter) move(pass, worker int) {
	srcKeys, dstKeys := s.keys[pass&1], s.keys[(pass+1)&1]
	srcPerm, dstPerm := s.perm[pass&1], s.perm[(pass+1)&1]
	lo, hi := jobs.Chunk(s.n, s.workers, worker)
	offsets := &s.offsets[worker]
	for i := lo; i < hi; i++ {
		k := srcKeys[i]
		b := digit(k, pass)
		at := offsets[b]
		offsets[b]++
		dstKeys[at] = k
		dstPerm[at] = srcPerm[i]
	}
}

// schedule chains every pass after dep and returns the handle of the last.
func (s *radixSorter) schedule(pool *jobs.Pool, dep *jobs.Handle) *jobs.Handle {
	h := dep
	for pass := range passes {
		h = pool.ScheduleParallel(s.workers, func(w int) { s.count(pass, w) }, h)
		h = pool.Schedule(s.prefix, h)
		h = pool.ScheduleParallel(s.workers, func(w int) { s.move(pass, w) }, h)
	}
	return h
}
