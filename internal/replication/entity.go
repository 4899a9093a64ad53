package replication

// VisibilityMode is the tri-state override an entity can carry, either
// globally or per observing owner (§3).
type VisibilityMode int8

const (
	VisibilityDefault VisibilityMode = iota
	VisibilityNever
	VisibilityAlways
)

// InvalidOwner is the sentinel owner id meaning "unowned".
const InvalidOwner int64 = -1

// Entity is a tracked object in the replicated world. Zero value is not
// meaningful; entities are created through World.Track.
type Entity struct {
	ID                 int64
	OwnerID            int64
	OwnershipToken     uint16
	Chunks             [MaxChunksPerEntity]ChunkID
	Dimension          int32
	ObservedRadius     int8
	GlobalVisibility   VisibilityMode
	PerOwnerVisibility map[int64]VisibilityMode
	Foreign            bool
	OwnerUpdated       bool
	UserData           interface{}
}

func newEntity(id int64) *Entity {
	e := &Entity{
		ID:      id,
		OwnerID: InvalidOwner,
	}
	for i := range e.Chunks {
		e.Chunks[i] = InvalidChunk
	}
	return e
}

// isObserver reports whether this entity projects visibility for its
// owner via chunk radius (§3: "observed_radius > 0 and owner is set").
func (e *Entity) isObserver() bool {
	return e.ObservedRadius > 0 && e.OwnerID != InvalidOwner && e.Chunks[0] != InvalidChunk
}
