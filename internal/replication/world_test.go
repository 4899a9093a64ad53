package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_NormalizedClampsMaxQueryResults(t *testing.T) {
	c := Config{MaxQueryResults: 0}.normalized()
	assert.Equal(t, 16384, c.MaxQueryResults)

	c = Config{MaxQueryResults: 1_000_000}.normalized()
	assert.Equal(t, 65535, c.MaxQueryResults)

	c = Config{MaxQueryResults: 10}.normalized()
	assert.Equal(t, 10, c.MaxQueryResults)
}

func TestConfig_NormalizedDefaultsEmptyGrid(t *testing.T) {
	c := Config{}.normalized()
	assert.Equal(t, int32(256), c.Grid.CountX)
}

func TestWorld_CountAndDestroy(t *testing.T) {
	w := newTestWorld()
	w.Track(1)
	w.Track(2)
	assert.Equal(t, 2, w.Count())

	w.Destroy()
	assert.Equal(t, 0, w.Count())
	assert.False(t, w.Tracked(1))
}

func TestWorld_ChunkFromRealPosUsesConfiguredGrid(t *testing.T) {
	w := New(Config{Grid: GridConfig{CountX: 16, CountY: 16, CountZ: 16, ChunkSize: 1,
		OffsetX: OffsetBegin, OffsetY: OffsetBegin, OffsetZ: OffsetBegin}})

	id := w.ChunkFromRealPos(3, 4, 5)
	assert.NotEqual(t, InvalidChunk, id)
}
