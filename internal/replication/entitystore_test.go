package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestWorld() *World {
	return New(DefaultConfig(), WithSnapshotStore(newMemorySnapshotStore()))
}

func TestWorld_TrackUntrack(t *testing.T) {
	w := newTestWorld()

	assert.Equal(t, OK, w.Track(1))
	assert.True(t, w.Tracked(1))
	assert.Equal(t, ErrEntityAlreadyTracked, w.Track(1), "повторный Track должен быть отклонён")

	assert.Equal(t, OK, w.Untrack(1))
	assert.False(t, w.Tracked(1))
	assert.Equal(t, ErrEntityUntracked, w.Untrack(1), "Untrack неотслеживаемой сущности должен быть отклонён")
}

func TestWorld_UntrackForeignRejected(t *testing.T) {
	w := newTestWorld()
	w.applySegval(SegmentCreate, 7, 0, 1, nil, nil)

	assert.True(t, w.Foreign(7))
	assert.Equal(t, ErrEntityForeign, w.Untrack(7), "локальный API не может untrack-нуть чужую сущность")
}

func TestWorld_OwnerSetMintsDistinctToken(t *testing.T) {
	w := newTestWorld()
	w.Track(1)

	assert.Equal(t, OK, w.OwnerSet(1, 10))
	e, _ := w.entity(1)
	first := e.OwnershipToken
	assert.NotZero(t, first)
	assert.True(t, e.OwnerUpdated)

	assert.Equal(t, OK, w.OwnerSet(1, 10))
	assert.NotEqual(t, first, e.OwnershipToken, "каждое присвоение владельца должно чеканить новый токен")
}

func TestWorld_OwnerSetUnowning(t *testing.T) {
	w := newTestWorld()
	w.Track(1)
	w.OwnerSet(1, 10)

	assert.Equal(t, OK, w.OwnerSet(1, InvalidOwner))
	e, _ := w.entity(1)
	assert.Equal(t, InvalidOwner, e.OwnerID)
	assert.Equal(t, uint16(0), e.OwnershipToken)
	assert.False(t, e.OwnerUpdated)
}

func TestWorld_UntrackDropsOwnerSnapshotWhenLastEntity(t *testing.T) {
	w := newTestWorld()
	w.Track(1)
	w.OwnerSet(1, 10)
	w.snapshots.Set(10, []int64{1, 2, 3})

	assert.Equal(t, OK, w.Untrack(1))
	assert.False(t, w.snapshots.Has(10), "когда владелец теряет последнюю сущность, его снапшот должен быть удалён")
}

func TestWorld_ChunkArraySetGetTruncation(t *testing.T) {
	w := newTestWorld()
	w.Track(1)

	chunks := make([]ChunkID, MaxChunksPerEntity+2)
	for i := range chunks {
		chunks[i] = ChunkID(i + 1)
	}
	assert.Equal(t, OK, w.ChunkArraySet(1, chunks))

	buf := make([]ChunkID, 3)
	n, truncated, status := w.ChunkArrayGet(1, buf)
	assert.Equal(t, OK, status)
	assert.Equal(t, MaxChunksPerEntity, n)
	assert.True(t, truncated, "буфер меньше фактического числа занятых чанков")
	assert.Equal(t, []ChunkID{1, 2, 3}, buf)
}

func TestWorld_VisibilityOwnerSetRejectsHidingFromOwner(t *testing.T) {
	w := newTestWorld()
	w.Track(1)
	w.OwnerSet(1, 10)

	status := w.VisibilityOwnerSet(1, 10, VisibilityNever)
	assert.Equal(t, ErrVisibilityIgnored, status, "нельзя скрыть сущность от её собственного владельца")
}

func TestWorld_VisibilityOwnerSetClearBackToDefault(t *testing.T) {
	w := newTestWorld()
	w.Track(1)

	w.VisibilityOwnerSet(1, 99, VisibilityAlways)
	mode, _ := w.VisibilityOwnerGet(1, 99)
	assert.Equal(t, VisibilityAlways, mode)

	w.VisibilityOwnerSet(1, 99, VisibilityDefault)
	mode, _ = w.VisibilityOwnerGet(1, 99)
	assert.Equal(t, VisibilityDefault, mode)
}
