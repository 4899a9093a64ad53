package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkIndex_EncodeDecodeRoundTrip(t *testing.T) {
	// Для кубической сетки (CountX == CountY == CountZ) формула §4.1
	// обратима для любой точки сетки.
	idx := newChunkIndex(DefaultGridConfig())

	cases := []struct{ cx, cy, cz int32 }{
		{0, 0, 0},
		{128, 128, 128},
		{255, 0, 200},
		{0, 255, 0},
	}
	for _, c := range cases {
		id := idx.encode(c.cx, c.cy, c.cz)
		assert.NotEqual(t, InvalidChunk, id, "кодирование не должно возвращать InvalidChunk для точки внутри сетки")

		cx, cy, cz, ok := idx.decode(id)
		assert.True(t, ok, "decode должен распознать валидный id")
		assert.Equal(t, c.cx, cx)
		assert.Equal(t, c.cy, cy)
		assert.Equal(t, c.cz, cz)
	}
}

func TestChunkIndex_EncodeOutOfRange(t *testing.T) {
	idx := newChunkIndex(DefaultGridConfig())
	assert.Equal(t, InvalidChunk, idx.encode(-1, 0, 0))
	assert.Equal(t, InvalidChunk, idx.encode(256, 0, 0))
}

func TestChunkIndex_FromReal(t *testing.T) {
	cfg := GridConfig{CountX: 256, CountY: 256, CountZ: 256, ChunkSize: 16,
		OffsetX: OffsetMiddle, OffsetY: OffsetMiddle, OffsetZ: OffsetMiddle}
	idx := newChunkIndex(cfg)

	origin := idx.fromReal(0, 0, 0)
	cx, cy, cz, ok := idx.decode(origin)
	assert.True(t, ok)
	assert.Equal(t, int32(128), cx, "начало координат должно лечь в центр сетки при OffsetMiddle")
	assert.Equal(t, int32(128), cy)
	assert.Equal(t, int32(128), cz)

	negative := idx.fromReal(-17, 0, 0)
	ncx, _, _, ok := idx.decode(negative)
	assert.True(t, ok)
	assert.Equal(t, int32(126), ncx, "отрицательная координата должна округляться вниз перед смещением")
}

func TestChunkIndex_Radius(t *testing.T) {
	idx := newChunkIndex(DefaultGridConfig())
	center := idx.encode(128, 128, 128)

	r1 := idx.radius(center, 1)
	// d² <= 1 admits the center plus its six face neighbors; the twelve
	// edge and eight corner cells of the 3x3x3 box all have d² >= 2.
	assert.Len(t, r1, 7)

	assert.Nil(t, idx.radius(center, 0), "нулевой радиус не должен возвращать соседей")
}

func TestChunkIndex_RadiusDropsOutOfGrid(t *testing.T) {
	idx := newChunkIndex(DefaultGridConfig())
	corner := idx.encode(0, 0, 0)
	neighbors := idx.radius(corner, 2)
	for _, id := range neighbors {
		cx, cy, cz, ok := idx.decode(id)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, cx, int32(0))
		assert.GreaterOrEqual(t, cy, int32(0))
		assert.GreaterOrEqual(t, cz, int32(0))
	}
}
