package spatial

import (
	"math/bits"
	"sync/atomic"

	"github.com/TheBitDrifter/locus/internal/jobs"
)

// Node is an internal node of the radix tree. First and Last bound the
// sorted leaves it covers and may be reversed. The left child has index
// Split, the right child Split+1; each is a leaf when it sits at the edge of
// the covered range. Parent is 1-based so a zeroed node means no parent.
type Node struct {
	First, Last uint32
	Split       uint32
	Parent      uint32
	Min, Max    Vec2
}

func (n Node) Lo() uint32 { return min(n.First, n.Last) }
func (n Node) Hi() uint32 { return max(n.First, n.Last) }

func (n Node) LeftIsLeaf() bool  { return n.Split == n.Lo() }
func (n Node) RightIsLeaf() bool { return n.Split+1 == n.Hi() }

func (n Node) Box() Box {
	return Box{Min: n.Min, Max: n.Max}
}

// treeBuilder turns sorted Morton keys into n-1 internal nodes and bounds
// them bottom-up.
type treeBuilder struct {
	workers    int
	keys       []uint32
	nodes      []Node
	leafParent []uint32
	arrivals   []atomic.Uint32
	// pending holds the box each child hands to its parent, indexed by side.
	pending [][2]Box
}

func newTreeBuilder(keys []uint32, workers int) *treeBuilder {
	n := len(keys)
	internal := max(n-1, 0)
	return &treeBuilder{
		workers:    max(workers, 1),
		keys:       keys,
		nodes:      make([]Node, internal),
		leafParent: make([]uint32, n),
		arrivals:   make([]atomic.Uint32, internal),
		pending:    make([][2]Box, internal),
	}
}

// delta is the common prefix length of keys i and j, or -1 when j is out of
// range. Equal keys fall back to their indices so every prefix is distinct.
func (t *treeBuilder) delta(i, j int) int {
	if j < 0 || j >= len(t.keys) {
		return -1
	}
	ki, kj := t.keys[i], t.keys[j]
	if ki == kj {
		return 32 + bits.LeadingZeros32(uint32(i^j))
	}
	return bits.LeadingZeros32(ki ^ kj)
}

// buildNode determines the range and split of internal node i and links its
// children back to it.
func (t *treeBuilder) buildNode(i int) {
	d := 1
	if t.delta(i, i+1)-t.delta(i, i-1) < 0 {
		d = -1
	}

	// Upper bound for the range length, then binary search the exact end.
	deltaMin := t.delta(i, i-d)
	lmax := 2
	for t.delta(i, i+lmax*d) > deltaMin {
		lmax *= 2
	}
	l := 0
	for step := lmax / 2; step >= 1; step /= 2 {
		if t.delta(i, i+(l+step)*d) > deltaMin {
			l += step
		}
	}
	j := i + l*d

	// Binary search the last index sharing more than the node's prefix.
	deltaNode := t.delta(i, j)
	s := 0
	for div := 2; ; div *= 2 {
		step := (l + div - 1) / div
		if t.delta(i, i+(s+step)*d) > deltaNode {
			s += step
		}
		if step <= 1 {
			break
		}
	}
	split := i + s*d + min(d, 0)

	node := &t.nodes[i]
	node.First = uint32(i)
	node.Last = uint32(j)
	node.Split = uint32(split)

	parent := uint32(i + 1)
	if min(i, j) == split {
		t.leafParent[split] = parent
	} else {
		t.nodes[split].Parent = parent
	}
	if max(i, j) == split+1 {
		t.leafParent[split+1] = parent
	} else {
		t.nodes[split+1].Parent = parent
	}
}

func (t *treeBuilder) buildNodes(worker int) {
	lo, hi := jobs.Chunk(len(t.nodes), t.workers, worker)
	for i := lo; i < hi; i++ {
		t.buildNode(i)
	}
}

// reduceFrom walks from a leaf towards the root. At each node the first
// child to arrive parks its box and stops; the second merges both boxes,
// stores the node's box and continues upwards.
func (t *treeBuilder) reduceFrom(leaf int) {
	box := CellBox(t.keys[leaf])
	child := uint32(leaf)
	parent := t.leafParent[leaf]
	for parent != 0 {
		at := parent - 1
		node := &t.nodes[at]
		side := 0
		if child != node.Split {
			side = 1
		}
		t.pending[at][side] = box
		if t.arrivals[at].Swap(1) == 0 {
			return
		}
		box = box.Union(t.pending[at][1-side])
		node.Min, node.Max = box.Min, box.Max
		child = at
		parent = node.Parent
	}
}

func (t *treeBuilder) reduceBounds(worker int) {
	lo, hi := jobs.Chunk(len(t.keys), t.workers, worker)
	for leaf := lo; leaf < hi; leaf++ {
		t.reduceFrom(leaf)
	}
}

// schedule chains node construction and bounding after dep.
func (t *treeBuilder) schedule(pool *jobs.Pool, dep *jobs.Handle) *jobs.Handle {
	h := pool.ScheduleParallel(t.workers, t.buildNodes, dep)
	return pool.ScheduleParallel(t.workers, t.reduceBounds, h)
}
