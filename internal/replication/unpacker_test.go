package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildFrame assembles a single-segment wire buffer by hand, mirroring
// what Write would have produced, so Read can be tested independently.
func buildFrame(kind SegmentKind, entityID int64, token uint16, payload []byte) []byte {
	buf := make([]byte, segmentHeaderSize+segvalHeaderSize+len(payload))
	putSegmentHeader(buf, kind, 1, uint32(segvalHeaderSize+len(payload)))
	putSegvalHeader(buf[segmentHeaderSize:], entityID, token, uint16(len(payload)))
	copy(buf[segmentHeaderSize+segvalHeaderSize:], payload)
	return buf
}

func TestRead_CreateTracksForeignEntity(t *testing.T) {
	w := newTestWorld()
	var seen int64 = -1
	w.RegisterHandler(EventCreateRead, func(world *World, ev *Event) int {
		seen = ev.EntityID
		return 0
	})

	frame := buildFrame(SegmentCreate, 42, 7, []byte("hello"))
	residual, status := w.Read(1, frame, nil)

	assert.Equal(t, OK, status)
	assert.Zero(t, residual)
	assert.Equal(t, int64(42), seen)
	assert.True(t, w.Tracked(42))
	assert.True(t, w.Foreign(42))
}

func TestRead_UpdateUnknownEntityDispatchesError(t *testing.T) {
	w := newTestWorld()
	errored := false
	w.RegisterHandler(EventErrorUpdate, func(world *World, ev *Event) int {
		errored = true
		return 0
	})

	frame := buildFrame(SegmentUpdate, 999, 0, []byte{1, 2})
	_, status := w.Read(1, frame, nil)

	assert.Equal(t, OK, status)
	assert.True(t, errored)
}

func TestRead_UpdateStaleTokenDispatchesError(t *testing.T) {
	w := newTestWorld()
	w.Track(3)
	w.OwnerSet(3, 10)
	e, _ := w.entity(3)
	stale := e.OwnershipToken + 1

	errored := false
	updated := false
	w.RegisterHandler(EventErrorUpdate, func(world *World, ev *Event) int { errored = true; return 0 })
	w.RegisterHandler(EventUpdateRead, func(world *World, ev *Event) int { updated = true; return 0 })

	frame := buildFrame(SegmentUpdate, 3, stale, []byte{1})
	_, status := w.Read(10, frame, nil)

	assert.Equal(t, OK, status)
	assert.True(t, errored, "UPDATE с устаревшим токеном должен уходить в error-update")
	assert.False(t, updated)
}

func TestRead_UpdateCurrentTokenAccepted(t *testing.T) {
	w := newTestWorld()
	w.Track(3)
	w.OwnerSet(3, 10)
	e, _ := w.entity(3)

	updated := false
	w.RegisterHandler(EventUpdateRead, func(world *World, ev *Event) int { updated = true; return 0 })

	frame := buildFrame(SegmentUpdate, 3, e.OwnershipToken, []byte{1})
	_, status := w.Read(10, frame, nil)

	assert.Equal(t, OK, status)
	assert.True(t, updated, "UPDATE с актуальным токеном от владельца должен приниматься")
}

func TestRead_UnknownSegmentKindRejected(t *testing.T) {
	w := newTestWorld()
	fired := false
	w.RegisterHandler(EventCreateRead, func(world *World, ev *Event) int { fired = true; return 0 })

	frame := buildFrame(SegmentKind(9), 1, 0, nil)
	residual, status := w.Read(1, frame, nil)

	assert.Equal(t, ErrReadInvalid, status)
	assert.Greater(t, residual, 0)
	assert.False(t, fired)
}

func TestRead_RemoveUntracksForeignEntity(t *testing.T) {
	w := newTestWorld()
	createFrame := buildFrame(SegmentCreate, 1, 0, nil)
	w.Read(1, createFrame, nil)
	assert.True(t, w.Tracked(1))

	removeFrame := buildFrame(SegmentRemove, 1, 0, nil)
	_, status := w.Read(1, removeFrame, nil)

	assert.Equal(t, OK, status)
	assert.False(t, w.Tracked(1))
}

func TestRead_OwnerSegvalAssignsOwnershipSilently(t *testing.T) {
	w := newTestWorld()
	createFrame := buildFrame(SegmentCreate, 5, 0, nil)
	w.Read(1, createFrame, nil)

	fired := false
	w.RegisterHandler(EventCreateRead, func(world *World, ev *Event) int { fired = true; return 0 })
	w.RegisterHandler(EventErrorOwner, func(world *World, ev *Event) int { fired = true; return 0 })

	ownerFrame := buildFrame(SegmentOwner, 5, 123, nil)
	_, status := w.Read(7, ownerFrame, nil)

	assert.Equal(t, OK, status)
	assert.False(t, fired, "успешный OWNER не должен вызывать никакой колбэк")

	owner, _ := w.OwnerGet(5)
	assert.Equal(t, int64(7), owner)
	e, _ := w.entity(5)
	assert.Equal(t, uint16(123), e.OwnershipToken)
}

func TestRead_TruncatedTrailingSegmentReportsResidual(t *testing.T) {
	w := newTestWorld()
	frame := buildFrame(SegmentCreate, 1, 0, []byte("x"))
	truncated := frame[:len(frame)-2]

	residual, status := w.Read(1, truncated, nil)
	assert.Equal(t, ErrReadInvalid, status)
	assert.Greater(t, residual, 0)
}

func TestRead_TrailingPaddingRejected(t *testing.T) {
	w := newTestWorld()
	created := false
	w.RegisterHandler(EventCreateRead, func(world *World, ev *Event) int { created = true; return 0 })

	// Валидный сегмент, за которым идут байты, слишком короткие даже для
	// заголовка сегмента.
	frame := append(buildFrame(SegmentCreate, 1, 0, []byte("x")), 0xAA, 0xAA, 0xAA)

	residual, status := w.Read(1, frame, nil)
	assert.Equal(t, ErrReadInvalid, status)
	assert.Equal(t, 3, residual)
	assert.True(t, created, "валидный сегмент перед мусорным хвостом всё же обрабатывается")
}

func TestRead_EmptyBufferIsNoop(t *testing.T) {
	w := newTestWorld()
	residual, status := w.Read(1, nil, nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, residual)
}
