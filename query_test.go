package locus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueryFiltering tests the basic query filtering capabilities
func TestQueryFiltering(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		queryType       string // "and", "or", "not", "complex"
		queryComponents []Component
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "or",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 30, // 5 + 10 + 15
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			queryType:       "not",
			queryComponents: []Component{velComp},
			expectedMatches: 30, // 10 + 20
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			queryType:       "complex",
			queryComponents: []Component{posComp, velComp, healthComp},
			expectedMatches: 30, // (P AND V) OR (P AND H) = 10 + 15 + 5 (counted once)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()
			for _, setup := range tt.entitySetups {
				_, err := storage.NewEntities(setup.count, NewGroupKey(setup.components...))
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			query := Factory.NewQuery()
			var queryNode QueryNode

			switch tt.queryType {
			case "and":
				queryNode = query.And(tt.queryComponents)
			case "or":
				queryNode = query.Or(tt.queryComponents)
			case "not":
				queryNode = query.Not(tt.queryComponents)
			case "complex":
				andQuery1 := query.And(posComp, velComp)
				andQuery2 := query.And(posComp, healthComp)
				queryNode = query.Or(andQuery1, andQuery2)
			}

			cursor := Factory.NewCursor(queryNode, storage)
			matchCount := 0
			for cursor.Next() {
				matchCount++
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests the cursor-based entity iteration
func TestQueryWithCursor(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name            string
		entityTypes     [][]Component
		queryComponents []Component
		expectedCount   int
	}{
		{
			name: "Query with position",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp},
			expectedCount:   20, // 10 + 10
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp, velComp},
			expectedCount:   10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]Component{
				{posComp},
				{velComp},
			},
			queryComponents: []Component{healthComp},
			expectedCount:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()
			for _, componentSet := range tt.entityTypes {
				_, err := storage.NewEntities(10, NewGroupKey(componentSet...))
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			queryNode := Factory.NewGroupFilter(tt.queryComponents...)

			cursor := Factory.NewCursor(queryNode, storage)
			count1 := 0
			for cursor.Next() {
				count1++
			}

			cursor = Factory.NewCursor(queryNode, storage)
			count2 := cursor.TotalMatched()
			assert.False(t, storage.Locked(), "TotalMatched must not lock storage")

			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}
			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

func TestQueryAcceptsGroupKey(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	key := NewGroupKey(posComp, velComp)

	query := Factory.NewQuery()
	node := query.And(key)
	assert.True(t, node.Evaluate(key))
	assert.False(t, node.Evaluate(NewGroupKey(posComp)))
	assert.True(t, query.Evaluate(key.AddFlag(FactoryNewComponent[Health]())))

	assert.False(t, Factory.NewQuery().Evaluate(key))
}

// TestQueryComponentAccess tests accessing component data through queries
func TestQueryComponentAccess(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	key := NewGroupKey(posComp, velComp)

	for i := 0; i < 10; i++ {
		rec := NewInit(key)
		With(rec, posComp, Position{X: float64(i), Y: float64(i * 2)})
		With(rec, velComp, Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2})
		if _, err := storage.NewEntity(key, rec.Bytes()); err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
	}

	queryNode := Factory.NewQuery().And(posComp, velComp)
	cursor := Factory.NewCursor(queryNode, storage)

	for cursor.Next() {
		pos := posComp.GetFromCursor(cursor)
		vel := velComp.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}
	assert.False(t, storage.Locked())

	cursor = Factory.NewCursor(queryNode, storage)
	for id, row := range cursor.Entities() {
		pos, ok := posComp.GetFromEntity(storage, id)
		require.True(t, ok)
		vel := velComp.Get(row)

		expectedX := pos.X - vel.X
		expectedY := pos.Y - vel.Y
		if !almostEqual(expectedX, vel.X*10, 0.0001) || !almostEqual(expectedY/2, vel.X*10, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X-vel.X, pos.Y-vel.Y, vel.X, vel.Y)
		}
	}
	assert.False(t, storage.Locked())
}

func TestCursorSkipsTombstones(t *testing.T) {
	storage := Factory.NewStorage()
	healthComp := FactoryNewComponent[Health]()
	key := NewGroupKey(healthComp)

	ids, err := storage.NewEntities(6, key)
	require.NoError(t, err)
	require.NoError(t, storage.RemoveEntity(ids[1]))
	require.NoError(t, storage.RemoveEntity(ids[4]))

	var seen []EntityID
	cursor := Factory.NewCursor(Factory.NewGroupFilter(healthComp), storage)
	for cursor.Next() {
		id, row := cursor.CurrentEntity()
		assert.True(t, row.Valid())
		seen = append(seen, id)
	}
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[3], ids[5]}, seen)
	assert.Equal(t, 4, cursor.Visited())
}

func TestCursorEarlyBreakUnlocks(t *testing.T) {
	storage := Factory.NewStorage()
	healthComp := FactoryNewComponent[Health]()
	_, err := storage.NewEntities(5, NewGroupKey(healthComp))
	require.NoError(t, err)

	cursor := Factory.NewCursor(Factory.NewGroupFilter(healthComp), storage)
	for range cursor.Entities() {
		assert.True(t, storage.Locked())
		break
	}
	assert.False(t, storage.Locked())
}

func TestNestedCursorsKeepOuterLock(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	healthComp := FactoryNewComponent[Health]()
	_, err := storage.NewEntities(2, NewGroupKey(posComp))
	require.NoError(t, err)
	_, err = storage.NewEntities(3, NewGroupKey(healthComp))
	require.NoError(t, err)

	outer := Factory.NewCursor(Factory.NewGroupFilter(posComp), storage)
	pairs := 0
	for outer.Next() {
		inner := Factory.NewCursor(Factory.NewGroupFilter(healthComp), storage)
		for inner.Next() {
			pairs++
		}
		assert.True(t, storage.Locked(), "inner cursor released the outer lock")
	}
	assert.Equal(t, 6, pairs)
	assert.False(t, storage.Locked())
}

func TestGetFromCursorSafe(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	_, err := storage.NewEntities(1, NewGroupKey(posComp))
	require.NoError(t, err)

	cursor := Factory.NewCursor(Factory.NewGroupFilter(posComp), storage)
	for cursor.Next() {
		ok, pos := posComp.GetFromCursorSafe(cursor)
		assert.True(t, ok)
		assert.NotNil(t, pos)

		ok, vel := velComp.GetFromCursorSafe(cursor)
		assert.False(t, ok)
		assert.Nil(t, vel)
	}
}

// Helper function for float comparisons
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func TestCursorResetAfterEarlyExit(t *testing.T) {
	storage := Factory.NewStorage()
	healthComp := FactoryNewComponent[Health]()
	_, err := storage.NewEntities(3, NewGroupKey(healthComp))
	require.NoError(t, err)

	cursor := Factory.NewCursor(Factory.NewGroupFilter(healthComp), storage)
	require.True(t, cursor.Next())
	assert.True(t, storage.Locked())

	cursor.Reset()
	assert.False(t, storage.Locked())
	_, err = storage.NewEntity(NewGroupKey(healthComp), nil)
	assert.NoError(t, err)
}
