package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestScenario_ServerToClientRoundTrip exercises Write on a server-side
// World and Read on a client-side World against the same buffer,
// mirroring how two peers actually use the engine (§8).
func TestScenario_ServerToClientRoundTrip(t *testing.T) {
	server := newTestWorld()
	server.RegisterHandler(EventCreateWrite, echoHandler(0x42))
	server.RegisterHandler(EventUpdateWrite, echoHandler(0x43))

	seedObserver(server, 1, 10, 0, 2)
	server.Track(2)
	server.DimensionSet(2, 0)
	server.ChunkSet(2, server.ChunkFromRealPos(16, 0, 0))

	client := newTestWorld()
	var createdIDs []int64
	client.RegisterHandler(EventCreateRead, func(w *World, ev *Event) int {
		createdIDs = append(createdIDs, ev.EntityID)
		return 0
	})

	buf := make([]byte, 8192)
	n, shortfall, status := server.Write(10, buf, nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, shortfall)

	residual, status := client.Read(10, buf[:n], nil)
	assert.Equal(t, OK, status)
	assert.Zero(t, residual)

	assert.ElementsMatch(t, []int64{1, 2}, createdIDs)
	assert.True(t, client.Tracked(1))
	assert.True(t, client.Foreign(1))
}

// TestScenario_PartialWriteConverges exercises a buffer too small for
// everything the owner is owed: the first Write reports a shortfall and
// a snapshot holding only what was actually emitted, and a second Write
// with an adequate buffer drains the remainder, so the receiver ends in
// the same state one large write would have produced (§8 property 7).
func TestScenario_PartialWriteConverges(t *testing.T) {
	const payloadLen = 16
	server := newTestWorld()
	writeBody := func(world *World, ev *Event) int {
		if len(ev.Buffer) < payloadLen {
			return payloadLen
		}
		for i := 0; i < payloadLen; i++ {
			ev.Buffer[i] = byte(i)
		}
		return payloadLen
	}
	server.RegisterHandler(EventCreateWrite, writeBody)
	server.RegisterHandler(EventUpdateWrite, writeBody)

	const total = 40
	for id := int64(1); id <= total; id++ {
		server.Track(id)
		server.OwnerSet(id, 10)
	}

	client := newTestWorld()

	small := make([]byte, 256)
	n, shortfall, status := server.Write(10, small, nil)
	assert.Equal(t, OK, status)
	assert.Greater(t, shortfall, 0, "маленький буфер должен вернуть оценку недостачи")

	snap, _ := server.snapshots.Get(10)
	assert.Greater(t, len(snap), 0)
	assert.Less(t, len(snap), total, "в снапшоте должны быть только реально отправленные сущности")

	_, status = client.Read(10, small[:n], nil)
	assert.Equal(t, OK, status)

	big := make([]byte, 65536)
	n2, shortfall2, status2 := server.Write(10, big, nil)
	assert.Equal(t, OK, status2)
	assert.Zero(t, shortfall2, "достаточный буфер должен принять всё без остатка")

	snap2, _ := server.snapshots.Get(10)
	assert.Len(t, snap2, total)

	_, status = client.Read(10, big[:n2], nil)
	assert.Equal(t, OK, status)
	assert.Equal(t, total, client.Count(), "клиент должен сойтись к полному набору сущностей")
}

// TestScenario_OwnershipHandoffPropagates exercises an OWNER segment
// flowing from server to client and silently updating ownership there.
func TestScenario_OwnershipHandoffPropagates(t *testing.T) {
	server := newTestWorld()
	server.RegisterHandler(EventCreateWrite, echoHandler(1))
	server.RegisterHandler(EventOwnerWrite, echoHandler(1))

	server.Track(5)
	server.OwnerSet(5, 20)

	client := newTestWorld()
	client.RegisterHandler(EventCreateRead, func(w *World, ev *Event) int { return 0 })

	buf := make([]byte, 4096)
	n, _, status := server.Write(20, buf, nil)
	assert.Equal(t, OK, status)

	_, status = client.Read(20, buf[:n], nil)
	assert.Equal(t, OK, status)

	owner, _ := client.OwnerGet(5)
	assert.Equal(t, int64(20), owner)
}
