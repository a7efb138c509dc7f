/*
Package spatial builds and queries a linear bounding volume hierarchy over
2D entity positions.

Each Tree rebuilds its hierarchy from scratch on demand: positions are
Morton-encoded, radix sorted in parallel, turned into a binary radix tree
with Karras' algorithm and finally bounded bottom-up. Builds run on a
worker pool in the background; the simulation thread starts them with Run
and publishes the result with Tick. Queries always read the last published
hierarchy and never block a build.

	tree := spatial.NewTree[uint32]()
	tree.Register(positions, ids)
	tree.Run()
	for !tree.Tick(dt) {
		// simulate
	}
	hits := tree.RangeQuery(spatial.NewRect(2, 2, 1, 1))

Only the X and Z axes take part; Y is treated as height and ignored.
*/
package spatial
