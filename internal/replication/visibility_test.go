package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// seedObserver tracks id, assigns it to owner, and gives it an observer
// radius at the chunk computed from real-space origin in dim.
func seedObserver(w *World, id, owner int64, dim int32, radius int8) {
	w.Track(id)
	w.OwnerSet(id, owner)
	w.DimensionSet(id, dim)
	w.ChunkSet(id, w.ChunkFromRealPos(0, 0, 0))
	w.ObservedRadiusSet(id, radius)
}

func TestQuery_OwnedEntitiesAlwaysIncluded(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 1)

	ids, _, status := w.Query(10, 0)
	assert.Equal(t, OK, status)
	assert.Contains(t, ids, int64(1))
}

func TestQuery_ChunkRadiusVisibility(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 2)

	w.Track(2)
	w.DimensionSet(2, 0)
	w.ChunkSet(2, w.ChunkFromRealPos(16, 0, 0))

	ids, _, status := w.Query(10, 0)
	assert.Equal(t, OK, status)
	assert.Contains(t, ids, int64(2), "сущность в пределах радиуса наблюдения должна быть видна")
}

func TestQuery_NeverOverridesChunkRadius(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 5)

	w.Track(2)
	w.DimensionSet(2, 0)
	w.ChunkSet(2, w.ChunkFromRealPos(0, 0, 0))
	w.GlobalVisibilitySet(2, VisibilityNever)

	ids, _, _ := w.Query(10, 0)
	assert.NotContains(t, ids, int64(2), "VisibilityNever должна скрывать сущность даже внутри радиуса")
}

func TestQuery_DimensionDominatesAlwaysOverride(t *testing.T) {
	// S6: сущность Z имеет глобальный Always, но живёт в измерении 5;
	// у владельца есть собственные сущности только в измерении 0, так
	// что Z остаётся невидимой несмотря на Always.
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 1)

	w.Track(99)
	w.DimensionSet(99, 5)
	w.GlobalVisibilitySet(99, VisibilityAlways)

	ids, _, _ := w.Query(10, 0)
	assert.NotContains(t, ids, int64(99), "измерение должно доминировать даже над Always")
}

func TestQuery_AlwaysVisibleWithinOwnerDimension(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 1)

	w.Track(99)
	w.DimensionSet(99, 0)
	w.GlobalVisibilitySet(99, VisibilityAlways)

	ids, _, _ := w.Query(10, 0)
	assert.Contains(t, ids, int64(99), "Always должна работать внутри измерений, где у владельца есть сущности")
}

func TestQuery_PerOwnerOverridesGlobal(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 1)

	w.Track(99)
	w.DimensionSet(99, 0)
	w.GlobalVisibilitySet(99, VisibilityNever)
	w.VisibilityOwnerSet(99, 10, VisibilityAlways)

	ids, _, _ := w.Query(10, 0)
	assert.Contains(t, ids, int64(99), "персональное переопределение должно иметь приоритет над глобальным")
}

func TestQuery_OverflowReported(t *testing.T) {
	w := newTestWorld()
	seedObserver(w, 1, 10, 0, 4)

	for id := int64(2); id < 12; id++ {
		w.Track(id)
		w.DimensionSet(id, 0)
		w.ChunkSet(id, w.ChunkFromRealPos(0, 0, 0))
	}

	ids, overflow, _ := w.Query(10, 3)
	assert.True(t, overflow)
	assert.LessOrEqual(t, len(ids), 4) // 1 owned + 3 допустимых по maxResults
}
