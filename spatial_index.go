package locus

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/TheBitDrifter/locus/internal/jobs"
	"github.com/TheBitDrifter/locus/spatial"
	"github.com/TheBitDrifter/mask"
)

// SpatialIndex keeps one spatial.Tree per storage group that carries the
// position component. All trees share one worker pool.
type SpatialIndex struct {
	storage  Storage
	position AccessibleComponent[spatial.Vec3]
	pool     *jobs.Pool
	opts     []spatial.Option
	trees    map[mask.Mask]*spatial.Tree[EntityID]
}

func NewSpatialIndex(sto Storage, position AccessibleComponent[spatial.Vec3], opts ...spatial.Option) *SpatialIndex {
	pool := jobs.NewPool(0)
	base := []spatial.Option{
		spatial.WithPool(pool),
		spatial.WithLogger(Config.logger.WithField("component", "spatial")),
	}
	return &SpatialIndex{
		storage:  sto,
		position: position,
		pool:     pool,
		opts:     append(base, opts...),
		trees:    make(map[mask.Mask]*spatial.Tree[EntityID]),
	}
}

// Update compacts every positioned group, rebinds its tree to the group's
// columns and starts a build where none is in flight. It returns how many
// builds were started. Storage must not be locked.
func (s *SpatialIndex) Update() int {
	started := 0
	for g := range s.storage.Groups() {
		key := g.Key()
		if !key.HasFlag(s.position) {
			continue
		}
		tree := s.tree(key)
		if tree.Building() {
			continue
		}
		if !s.storage.Compact(key) {
			continue
		}
		positions, _ := s.position.Column(g)
		live := g.LiveCount()
		tree.Register(positions[:live], g.IDs()[:live])
		if tree.Run() {
			started++
		}
	}
	return started
}

func (s *SpatialIndex) tree(key GroupKey) *spatial.Tree[EntityID] {
	tree, ok := s.trees[key.Mask()]
	if !ok {
		tree = spatial.NewTree[EntityID](s.opts...)
		s.trees[key.Mask()] = tree
	}
	return tree
}

// Tick polls every tree and returns how many published a new build.
func (s *SpatialIndex) Tick(dt time.Duration) int {
	published := 0
	for _, tree := range s.trees {
		if tree.Tick(dt) {
			published++
		}
	}
	return published
}

// Wait blocks until every in-flight build has been published.
func (s *SpatialIndex) Wait() {
	for _, tree := range s.trees {
		tree.Wait()
	}
}

// Tree returns the tree of the group with exactly key.
func (s *SpatialIndex) Tree(key GroupKey) (*spatial.Tree[EntityID], bool) {
	tree, ok := s.trees[key.Mask()]
	return tree, ok
}

// RangeQuery returns the entities of group key inside rect, as of the last
// published build.
func (s *SpatialIndex) RangeQuery(key GroupKey, rect spatial.Rect) []EntityID {
	tree, ok := s.trees[key.Mask()]
	if !ok {
		return nil
	}
	return tree.RangeQuery(rect)
}

func (s *SpatialIndex) RangeQuerySet(key GroupKey, rect spatial.Rect) *roaring.Bitmap {
	tree, ok := s.trees[key.Mask()]
	if !ok {
		return roaring.New()
	}
	return tree.RangeQuerySet(rect)
}

// Destroy waits for in-flight builds and releases every tree.
func (s *SpatialIndex) Destroy() {
	for key, tree := range s.trees {
		tree.Destroy()
		delete(s.trees, key)
	}
}
