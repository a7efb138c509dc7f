package spatial

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/TheBitDrifter/locus/internal/jobs"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Tree is a rebuildable bounding volume hierarchy over one set of entities.
//
// Register, Run, Tick and Destroy belong to the simulation goroutine.
// RangeQuery and the other read methods may be called from any goroutine;
// they see the last published build.
type Tree[ID ~uint32] struct {
	pool     *jobs.Pool
	opts     options
	log      logrus.FieldLogger
	limiter  *rate.Limiter
	registry registration[ID]
	pending  *build[ID]
	final    atomic.Pointer[snapshot[ID]]
	stats    stats
}

// registration is the borrowed view handed to Register.
type registration[ID ~uint32] struct {
	positions []Vec3
	ids       []ID
}

// build is the scratch state of one pipeline run.
type build[ID ~uint32] struct {
	handle    *jobs.Handle
	started   time.Time
	simTime   time.Duration
	positions []Vec2
	ids       []ID
	sorter    *radixSorter
	tree      *treeBuilder
}

// snapshot is a published hierarchy. It is immutable once stored.
type snapshot[ID ~uint32] struct {
	nodes     []Node
	keys      []uint32
	positions []Vec2
	ids       []ID
}

func NewTree[ID ~uint32](opts ...Option) *Tree[ID] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	pool := o.pool
	if pool == nil {
		pool = jobs.NewPool(o.workers)
	}
	t := &Tree[ID]{
		pool: pool,
		opts: o,
		log:  o.logger.WithField("component", "spatial"),
	}
	if o.rateLimit {
		t.limiter = rate.NewLimiter(o.limit, o.burst)
	}
	return t
}

// Register rebinds the tree to a new view of positions and ids, which must
// have equal length. The view is only read during Run.
func (t *Tree[ID]) Register(positions []Vec3, ids []ID) {
	if len(positions) != len(ids) {
		panic(fmt.Sprintf("spatial: %d positions registered with %d ids", len(positions), len(ids)))
	}
	if len(positions) != len(t.registry.ids) {
		t.log.WithFields(logrus.Fields{
			"from": len(t.registry.ids),
			"to":   len(ids),
		}).Debug("registered entity count changed")
	}
	t.registry = registration[ID]{positions: positions, ids: ids}
}

// Building reports whether a build is in flight.
func (t *Tree[ID]) Building() bool {
	return t.pending != nil
}

// Run starts a build of the registered view. It does nothing and returns
// false while a previous build is still in flight or the rebuild limit is
// exhausted. Views of fewer than two entities publish immediately.
func (t *Tree[ID]) Run() bool {
	if t.pending != nil {
		t.stats.skipped.Add(1)
		return false
	}
	if t.limiter != nil && !t.limiter.Allow() {
		t.stats.skipped.Add(1)
		return false
	}

	n := len(t.registry.ids)
	positions := make([]Vec2, n)
	for i, p := range t.registry.positions {
		positions[i] = p.Planar()
	}
	ids := make([]ID, n)
	copy(ids, t.registry.ids)
	t.stats.started.Add(1)

	if n < 2 {
		keys := make([]uint32, n)
		EncodeBatch(keys, positions, t.opts.path)
		t.publish(&snapshot[ID]{keys: keys, positions: positions, ids: ids}, 0, 0)
		return true
	}

	workers := min(t.pool.Workers(), max(1, n/t.opts.minChunk))
	b := &build[ID]{
		started:   time.Now(),
		positions: positions,
		ids:       ids,
	}
	keys := make([]uint32, n)
	b.sorter = newRadixSorter(keys, workers)
	b.tree = newTreeBuilder(keys, workers)

	h := t.pool.ScheduleParallel(workers, func(w int) {
		lo, hi := jobs.Chunk(n, workers, w)
		EncodeBatch(keys[lo:hi], positions[lo:hi], t.opts.path)
	})
	h = b.sorter.schedule(t.pool, h)
	b.handle = b.tree.schedule(t.pool, h)
	t.pending = b

	t.log.WithFields(logrus.Fields{
		"entities": n,
		"workers":  workers,
	}).Debug("spatial build started")
	return true
}

// Tick polls the in-flight build without blocking. When it has finished the
// result is published and Tick returns true.
func (t *Tree[ID]) Tick(dt time.Duration) bool {
	b := t.pending
	if b == nil {
		return false
	}
	b.simTime += dt
	if !b.handle.Done() {
		return false
	}
	t.finish(b)
	return true
}

// finish copies the sorted result out of the scratch state and publishes it.
func (t *Tree[ID]) finish(b *build[ID]) {
	perm := b.sorter.Perm()
	snap := &snapshot[ID]{
		nodes:     b.tree.nodes,
		keys:      b.sorter.Keys(),
		positions: make([]Vec2, len(perm)),
		ids:       make([]ID, len(perm)),
	}
	for i, src := range perm {
		snap.positions[i] = b.positions[src]
		snap.ids[i] = b.ids[src]
	}
	t.pending = nil
	t.publish(snap, time.Since(b.started), b.simTime)
}

func (t *Tree[ID]) publish(snap *snapshot[ID], took, simTime time.Duration) {
	t.final.Store(snap)
	t.stats.completed.Add(1)
	t.stats.entities.Store(int64(len(snap.ids)))
	t.stats.lastBuildNano.Store(int64(took))
	t.stats.lastSimNano.Store(int64(simTime))
	t.log.WithFields(logrus.Fields{
		"entities": len(snap.ids),
		"took":     took,
	}).Debug("spatial build published")
}

// Wait blocks until the in-flight build, if any, has finished and publishes
// it.
func (t *Tree[ID]) Wait() {
	if b := t.pending; b != nil {
		b.handle.Wait()
		t.finish(b)
	}
}

// Destroy waits for any in-flight build and drops every published result.
func (t *Tree[ID]) Destroy() {
	if b := t.pending; b != nil {
		b.handle.Wait()
		t.pending = nil
	}
	t.final.Store(nil)
	t.registry = registration[ID]{}
}

// Count returns the number of entities in the published hierarchy.
func (t *Tree[ID]) Count() int {
	snap := t.final.Load()
	if snap == nil {
		return 0
	}
	return len(snap.ids)
}

// Nodes returns the published internal nodes. Node 0 is the root. The slice
// must not be modified.
func (t *Tree[ID]) Nodes() []Node {
	snap := t.final.Load()
	if snap == nil {
		return nil
	}
	return snap.nodes
}

// LeafBox returns the bounding box of the i-th leaf in Morton order.
func (t *Tree[ID]) LeafBox(i int) Box {
	snap := t.final.Load()
	if snap == nil || i < 0 || i >= len(snap.keys) {
		return EmptyBox()
	}
	return CellBox(snap.keys[i])
}

func (t *Tree[ID]) Stats() Stats {
	return t.stats.snapshot()
}

// RangeQuery returns every entity whose position lies inside rect. Before
// the first publish the result is empty.
func (t *Tree[ID]) RangeQuery(rect Rect) []ID {
	var out []ID
	t.ForEachInRange(rect, func(id ID) bool {
		out = append(out, id)
		return true
	})
	return out
}

// RangeQuerySet is RangeQuery collected into a bitmap.
func (t *Tree[ID]) RangeQuerySet(rect Rect) *roaring.Bitmap {
	set := roaring.New()
	t.ForEachInRange(rect, func(id ID) bool {
		set.Add(uint32(id))
		return true
	})
	return set
}

// ForEachInRange calls fn for every entity inside rect until fn returns
// false.
func (t *Tree[ID]) ForEachInRange(rect Rect, fn func(ID) bool) {
	snap := t.final.Load()
	if snap == nil {
		return
	}
	switch len(snap.ids) {
	case 0:
		return
	case 1:
		if rect.Contains(snap.positions[0]) {
			fn(snap.ids[0])
		}
		return
	}
	snap.descend(0, rect, fn)
}

// descend visits the subtree of internal node i. It returns false once fn
// asked to stop.
func (s *snapshot[ID]) descend(i uint32, rect Rect, fn func(ID) bool) bool {
	node := &s.nodes[i]
	if !node.Box().Overlaps(rect) {
		return true
	}
	if node.LeftIsLeaf() {
		if !s.visitLeaf(node.Split, rect, fn) {
			return false
		}
	} else if !s.descend(node.Split, rect, fn) {
		return false
	}
	if node.RightIsLeaf() {
		return s.visitLeaf(node.Split+1, rect, fn)
	}
	return s.descend(node.Split+1, rect, fn)
}

func (s *snapshot[ID]) visitLeaf(i uint32, rect Rect, fn func(ID) bool) bool {
	if !rect.Contains(s.positions[i]) {
		return true
	}
	return fn(s.ids[i])
}
