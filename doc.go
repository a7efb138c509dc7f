/*
Package locus provides sparse-set entity storage sharded by component group,
with a per-group spatial index rebuilt every simulation step.

Core Concepts:

  - EntityID: a packed {index, generation} handle. Removing an entity bumps
    its generation, so stale handles never resolve to a recycled index.
  - Component: a pointer-free value type registered once per process.
  - GroupKey: the set of component types an entity carries. Entities with
    equal keys share one storage group of dense byte columns.
  - SpatialIndex: a bounding volume hierarchy per positioned group, answering
    2D range queries.

Basic Usage:

	position := locus.FactoryNewComponent[spatial.Vec3]()
	health := locus.FactoryNewComponent[Health]()
	key := locus.NewGroupKey(position, health)

	storage := locus.Factory.NewStorage()
	rec := locus.With(locus.NewInit(key), position, spatial.Vec3{X: 4, Z: 2})
	id, _ := storage.NewEntity(key, rec.Bytes())

	index := locus.NewSpatialIndex(storage, position)
	index.Update()
	index.Wait()
	near := index.RangeQuery(key, spatial.NewRect(3, 1, 2, 2))

Groups are never deleted. Row and column views are borrowed and stay valid
only until the next mutation of their group.
*/
package locus
