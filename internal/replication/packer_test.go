package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoHandler(payload byte) Handler {
	return func(w *World, ev *Event) int {
		if len(ev.Buffer) < 1 {
			return -1
		}
		ev.Buffer[0] = payload
		return 1
	}
}

func TestWrite_CreateThenUpdate(t *testing.T) {
	w := newTestWorld()
	w.RegisterHandler(EventCreateWrite, echoHandler(0xAA))
	w.RegisterHandler(EventUpdateWrite, echoHandler(0xBB))

	seedObserver(w, 1, 10, 0, 1)
	w.Track(2)
	w.DimensionSet(2, 0)
	w.ChunkSet(2, w.ChunkFromRealPos(0, 0, 0))

	buf := make([]byte, 4096)
	n, shortfall, status := w.Write(10, buf, nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, shortfall)
	assert.Greater(t, n, 0)

	kind, amount, _ := getSegmentHeader(buf[0:8])
	assert.Equal(t, SegmentCreate, kind, "первая запись для владельца должна состоять только из CREATE")
	assert.Equal(t, uint16(2), amount, "владелец и видимая сущность оба новые для снапшота")

	// Второй вызов без изменений видимости должен произвести только UPDATE.
	n2, _, status2 := w.Write(10, buf, nil)
	assert.Equal(t, OK, status2)
	assert.Greater(t, n2, 0)
	kind2, _, _ := getSegmentHeader(buf[0:8])
	assert.Equal(t, SegmentUpdate, kind2, "повторный Write без изменений видимости должен слать UPDATE")
}

func TestWrite_RemoveWhenEntityLeavesVisibility(t *testing.T) {
	w := newTestWorld()
	w.RegisterHandler(EventCreateWrite, echoHandler(1))
	w.RegisterHandler(EventUpdateWrite, echoHandler(1))
	w.RegisterHandler(EventRemoveWrite, echoHandler(1))

	seedObserver(w, 1, 10, 0, 1)
	w.Track(2)
	w.DimensionSet(2, 0)
	w.ChunkSet(2, w.ChunkFromRealPos(0, 0, 0))

	buf := make([]byte, 4096)
	w.Write(10, buf, nil)

	// Сущность 2 покидает радиус наблюдения.
	w.ChunkSet(2, w.ChunkFromRealPos(10000, 0, 0))

	n, _, status := w.Write(10, buf, nil)
	assert.Equal(t, OK, status)
	assert.Greater(t, n, 0)

	cursor := 0
	sawRemove := false
	for cursor < n {
		kind, amount, valueBytes := getSegmentHeader(buf[cursor : cursor+8])
		if kind == SegmentRemove {
			sawRemove = true
			assert.Equal(t, uint16(1), amount)
		}
		cursor += 8 + int(valueBytes)
	}
	assert.True(t, sawRemove, "исчезновение из зоны видимости должно породить REMOVE")
}

func TestWrite_VoluntaryRejectDoesNotConsumeSnapshotSlot(t *testing.T) {
	w := newTestWorld()
	calls := 0
	w.RegisterHandler(EventCreateWrite, func(world *World, ev *Event) int {
		calls++
		if calls == 1 {
			return -1
		}
		ev.Buffer[0] = 1
		return 1
	})

	w.Track(1)
	w.OwnerSet(1, 10)

	buf := make([]byte, 256)
	n, shortfall, status := w.Write(10, buf, nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, shortfall, "отклонение колбэка — не недостача буфера")
	assert.Zero(t, n, "единственный кандидат отклонён, сегмент не должен быть записан")

	n2, _, _ := w.Write(10, buf, nil)
	assert.Greater(t, n2, 0, "повторный вызов должен снова предложить ранее отклонённого кандидата")
}

func TestWrite_OwnerSegmentOnTokenChange(t *testing.T) {
	w := newTestWorld()
	w.RegisterHandler(EventCreateWrite, echoHandler(1))
	w.RegisterHandler(EventOwnerWrite, echoHandler(1))
	w.Track(1)
	w.OwnerSet(1, 10)

	buf := make([]byte, 256)
	n, _, status := w.Write(10, buf, nil)
	assert.Equal(t, OK, status)

	cursor := 0
	sawOwner := false
	for cursor < n {
		kind, _, valueBytes := getSegmentHeader(buf[cursor : cursor+8])
		if kind == SegmentOwner {
			sawOwner = true
		}
		cursor += 8 + int(valueBytes)
	}
	assert.True(t, sawOwner, "смена владельца должна произвести OWNER сегмент")

	e, _ := w.entity(1)
	assert.False(t, e.OwnerUpdated, "после успешной отправки OWNER флаг должен быть снят")
}

func TestWrite_ShortfallEstimateOnTinyBuffer(t *testing.T) {
	w := newTestWorld()
	w.RegisterHandler(EventCreateWrite, echoHandler(1))

	for id := int64(1); id <= 5; id++ {
		w.Track(id)
		w.OwnerSet(id, 10)
	}

	buf := make([]byte, 4) // слишком мало даже для одного заголовка сегмента
	n, shortfall, status := w.Write(10, buf, nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, n)
	assert.Greater(t, shortfall, 0, "недостаточный буфер должен вернуть оценку недостачи")
}
