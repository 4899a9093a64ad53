package replserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/replicad/internal/replication"
)

func TestCompressor_FrameUnframeRoundTrip(t *testing.T) {
	c, err := NewCompressor()
	require.NoError(t, err)
	defer c.Close()

	payload := []byte("segment header plus segvals plus opaque payload bytes")
	frame := c.Frame(payload)

	out, err := c.Unframe(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestCompressor_UnframeRejectsGarbage(t *testing.T) {
	c, err := NewCompressor()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Unframe([]byte("definitely not zstd"))
	assert.Error(t, err)
}

func TestWriteFrameReadFrameRoundTrip(t *testing.T) {
	sender := newTestHost(t)
	receiver := newTestHost(t)

	sender.RegisterAppHandler(replication.EventCreateWrite, func(w *replication.World, ev *replication.Event) int {
		if len(ev.Buffer) < 4 {
			return -1
		}
		copy(ev.Buffer, []byte("ping"))
		return 4
	})

	require.Equal(t, replication.OK, sender.World.Track(1))
	require.Equal(t, replication.OK, sender.World.OwnerSet(1, 7))

	frame, shortfall, err := sender.WriteFrame(7, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, shortfall)

	residual, err := receiver.ReadFrame(7, frame, nil)
	require.NoError(t, err)
	assert.Zero(t, residual)

	assert.True(t, receiver.World.Tracked(1))
	assert.True(t, receiver.World.Foreign(1))

	owner, status := receiver.World.OwnerGet(1)
	assert.Equal(t, replication.OK, status)
	assert.Equal(t, int64(7), owner)
}

func TestReadFrame_RejectsCorruptFrame(t *testing.T) {
	h := newTestHost(t)

	_, err := h.ReadFrame(7, []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil)
	assert.Error(t, err)
}
