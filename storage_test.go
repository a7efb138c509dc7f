package locus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGroupCreation tests the creation and reuse of groups
func TestGroupCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name             string
		firstComponents  []Component
		secondComponents []Component
		expectSameGroup  bool
	}{
		{
			name:             "Identical components",
			firstComponents:  []Component{posComp, velComp},
			secondComponents: []Component{posComp, velComp},
			expectSameGroup:  true,
		},
		{
			name:             "Different order",
			firstComponents:  []Component{posComp, velComp},
			secondComponents: []Component{velComp, posComp},
			expectSameGroup:  true,
		},
		{
			name:             "Different components",
			firstComponents:  []Component{posComp},
			secondComponents: []Component{velComp},
			expectSameGroup:  false,
		},
		{
			name:             "Superset components",
			firstComponents:  []Component{posComp},
			secondComponents: []Component{posComp, velComp, healthComp},
			expectSameGroup:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()

			first, err := storage.NewEntity(NewGroupKey(tt.firstComponents...), nil)
			if err != nil {
				t.Fatalf("Failed to create first entity: %v", err)
			}
			second, err := storage.NewEntity(NewGroupKey(tt.secondComponents...), nil)
			if err != nil {
				t.Fatalf("Failed to create second entity: %v", err)
			}

			g1, _ := storage.GroupOf(first)
			g2, _ := storage.GroupOf(second)
			if same := g1 == g2; same != tt.expectSameGroup {
				t.Errorf("Groups same: %v, expected: %v", same, tt.expectSameGroup)
			}
		})
	}
}

func TestNewEntityStoresRecord(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	healthComp := FactoryNewComponent[Health]()
	key := NewGroupKey(posComp, healthComp)

	rec := NewInit(key)
	With(rec, posComp, Position{X: 3, Y: 4})
	With(rec, healthComp, Health{Current: 7, Max: 10})

	id, err := storage.NewEntity(key, rec.Bytes())
	require.NoError(t, err)
	assert.NotEqual(t, NilEntity, id)
	assert.True(t, storage.Has(id))
	assert.Equal(t, 1, storage.Len())

	pos, ok := posComp.GetFromEntity(storage, id)
	require.True(t, ok)
	assert.Equal(t, Position{X: 3, Y: 4}, *pos)

	health, ok := healthComp.GetFromEntity(storage, id)
	require.True(t, ok)
	assert.Equal(t, Health{Current: 7, Max: 10}, *health)

	_, ok = FactoryNewComponent[Velocity]().GetFromEntity(storage, id)
	assert.False(t, ok)
}

// TestEntityDestruction tests destroying entities
func TestEntityDestruction(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	key := NewGroupKey(posComp)

	entities, err := storage.NewEntities(10, key)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	for _, i := range []int{0, 2, 4, 6, 8} {
		if err := storage.RemoveEntity(entities[i]); err != nil {
			t.Fatalf("Failed to destroy entity: %v", err)
		}
	}

	cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), storage)
	count := 0
	for cursor.Next() {
		count++
	}
	if count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}
	assert.Equal(t, 5, storage.Len())

	for i, id := range entities {
		assert.Equal(t, i%2 == 1, storage.Has(id), "entity %d", i)
	}
}

func TestStaleHandlesNeverResolve(t *testing.T) {
	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())

	old, err := storage.NewEntity(key, nil)
	require.NoError(t, err)
	require.NoError(t, storage.RemoveEntity(old))

	recycled, err := storage.NewEntity(key, nil)
	require.NoError(t, err)
	assert.Equal(t, old.Index(), recycled.Index())
	assert.NotEqual(t, old.Generation(), recycled.Generation())

	assert.False(t, storage.Has(old))
	_, ok := storage.Row(old)
	assert.False(t, ok)
	_, ok = storage.GroupOf(old)
	assert.False(t, ok)

	assert.PanicsWithValue(t, EntityNotFoundError{ID: old}, func() {
		_ = storage.RemoveEntity(old)
	})
}

// TestStorageLocking tests the storage locking mechanism
func TestStorageLocking(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	key := NewGroupKey(posComp)

	existing, err := storage.NewEntities(3, key)
	require.NoError(t, err)

	storage.Lock()
	if !storage.Locked() {
		t.Fatalf("Storage not locked after Lock")
	}

	_, err = storage.NewEntity(key, nil)
	assert.ErrorAs(t, err, &LockedStorageError{})
	assert.ErrorAs(t, storage.RemoveEntity(existing[0]), &LockedStorageError{})
	assert.False(t, storage.Compact(key))

	for range 5 {
		require.NoError(t, storage.EnqueueNewEntity(key, nil))
	}
	require.NoError(t, storage.EnqueueRemoveEntity(existing[0]))
	require.NoError(t, storage.EnqueueRemoveEntity(existing[0]))
	assert.Equal(t, 3, storage.Len())

	storage.Unlock()
	if storage.Locked() {
		t.Fatalf("Storage still locked after Unlock")
	}

	cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), storage)
	count := 0
	for cursor.Next() {
		count++
	}
	if count != 7 {
		t.Errorf("Entity count after unlocking: %d, want 7", count)
	}
	assert.False(t, storage.Has(existing[0]))
}

func TestEnqueueWhileUnlockedAppliesImmediately(t *testing.T) {
	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())

	require.NoError(t, storage.EnqueueNewEntity(key, nil))
	assert.Equal(t, 1, storage.Len())

	ids, err := storage.NewEntities(1, key)
	require.NoError(t, err)
	require.NoError(t, storage.EnqueueRemoveEntity(ids[0]))
	assert.Equal(t, 1, storage.Len())
}

func TestQueuedDestroySkipsDeadEntities(t *testing.T) {
	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())
	ids, err := storage.NewEntities(3, key)
	require.NoError(t, err)
	require.NoError(t, storage.RemoveEntity(ids[2]))

	storage.ForEachInGroup(key, func(id EntityID, _ Row) bool {
		require.NoError(t, storage.EnqueueRemoveEntity(ids[0]))
		require.NoError(t, storage.EnqueueRemoveEntity(ids[2]))
		return true
	})
	assert.False(t, storage.Has(ids[0]))
	assert.True(t, storage.Has(ids[1]))
	assert.Equal(t, 1, storage.Len())
	assert.False(t, storage.Locked())
}

func TestForEachInGroup(t *testing.T) {
	storage := Factory.NewStorage()
	healthComp := FactoryNewComponent[Health]()
	key := NewGroupKey(healthComp)

	for i := range 4 {
		_, err := storage.NewEntity(key, With(NewInit(key), healthComp, Health{Current: int32(i)}).Bytes())
		require.NoError(t, err)
	}

	sum := int32(0)
	storage.ForEachInGroup(key, func(_ EntityID, row Row) bool {
		assert.True(t, storage.Locked())
		sum += healthComp.Get(row).Current
		return true
	})
	assert.Equal(t, int32(6), sum)
	assert.False(t, storage.Locked())

	visited := 0
	storage.ForEachInGroup(key, func(EntityID, Row) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)

	// Unknown keys visit nothing.
	storage.ForEachInGroup(NewGroupKey(FactoryNewComponent[Velocity]()), func(EntityID, Row) bool {
		t.Fatal("unexpected visit")
		return false
	})
}

func TestForEachEntityFrom(t *testing.T) {
	storage := Factory.NewStorage()
	posKey := NewGroupKey(FactoryNewComponent[Position]())
	healthKey := NewGroupKey(FactoryNewComponent[Health]())

	a, _ := storage.NewEntity(posKey, nil)
	b, _ := storage.NewEntity(healthKey, nil)
	c, _ := storage.NewEntity(posKey, nil)
	require.NoError(t, storage.RemoveEntity(c))

	var seen []EntityID
	n := storage.ForEachEntityFrom([]EntityID{a, b, c}, func(id EntityID, row Row) bool {
		assert.Equal(t, id, row.ID())
		seen = append(seen, id)
		return true
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []EntityID{a, b}, seen)
}

func TestCompact(t *testing.T) {
	storage := Factory.NewStorage()
	healthComp := FactoryNewComponent[Health]()
	key := NewGroupKey(healthComp)

	ids, err := storage.NewEntities(6, key)
	require.NoError(t, err)
	for _, id := range ids[:3] {
		require.NoError(t, storage.RemoveEntity(id))
	}

	g, ok := storage.Group(key)
	require.True(t, ok)
	assert.False(t, g.Compacted())

	assert.True(t, storage.Compact(key))
	assert.True(t, g.Compacted())
	assert.Equal(t, 3, g.SlotCount())
	for _, id := range ids[3:] {
		assert.True(t, storage.Has(id))
	}

	assert.False(t, storage.Compact(NewGroupKey(FactoryNewComponent[Velocity]())))
}

func TestGroupsAreNeverDeleted(t *testing.T) {
	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())

	id, _ := storage.NewEntity(key, nil)
	require.NoError(t, storage.RemoveEntity(id))

	g, ok := storage.Group(key)
	require.True(t, ok)
	assert.Equal(t, 0, g.LiveCount())

	count := 0
	for range storage.Groups() {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestSparsePageBudget(t *testing.T) {
	defer func(pageSize, maxPages int) {
		Config.SetPageSize(pageSize)
		Config.SetMaxPages(maxPages)
	}(Config.PageSize(), Config.MaxPages())
	Config.SetPageSize(4)
	Config.SetMaxPages(2)

	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())
	_, err := storage.NewEntities(8, key)
	require.NoError(t, err)

	assert.PanicsWithValue(t, CapacityExhaustedError{Resource: "sparse page", Limit: 2}, func() {
		_, _ = storage.NewEntity(key, nil)
	})
}

func TestBadRecordDoesNotLeakEntity(t *testing.T) {
	storage := Factory.NewStorage()
	key := NewGroupKey(FactoryNewComponent[Health]())

	assert.PanicsWithValue(t, InitLayoutError{Expected: 8, Actual: 3}, func() {
		_, _ = storage.NewEntity(key, []byte{1, 2, 3})
	})
	assert.Equal(t, 0, storage.Len())

	id, err := storage.NewEntity(key, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id.Index())
	assert.True(t, storage.Has(id))
	assert.Equal(t, 1, storage.Len())
}
