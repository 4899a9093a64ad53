package replication

// Track adds an untracked id as a new local entity (§4.2). Fails if id
// is already tracked (local or foreign) or negative.
func (w *World) Track(id int64) Status {
	if id < 0 {
		return ErrInvalidEntity
	}
	if _, exists := w.entities[id]; exists {
		return ErrEntityAlreadyTracked
	}
	e := newEntity(id)
	w.entities[id] = e
	w.orderAppend(id)
	return OK
}

// Untrack removes a local entity. Rejects foreign entities (§4.2) and
// unknown ids.
func (w *World) Untrack(id int64) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	if e.Foreign {
		return ErrEntityForeign
	}
	owner := e.OwnerID
	delete(w.entities, id)
	w.orderRemove(id)

	if owner != InvalidOwner {
		stillOwns := false
		for _, otherID := range w.order {
			if other := w.entities[otherID]; other != nil && other.OwnerID == owner {
				stillOwns = true
				break
			}
		}
		if !stillOwns {
			w.snapshots.Delete(owner)
			w.log.Debug("owner %d snapshot dropped with its last entity %d", owner, id)
		}
	}
	// Tear down any per-owner visibility map pointing at this entity;
	// it lived only on the entity itself, so deleting the entity above
	// already frees it. Nothing further to do here.
	return OK
}

// untrackForeign is the reader-side counterpart to Untrack: a REMOVE
// segval may remove a foreign entity, which the local API forbids
// (§4.5).
func (w *World) untrackForeign(id int64) {
	delete(w.entities, id)
	w.orderRemove(id)
}

// Tracked reports whether id is tracked, local or foreign.
func (w *World) Tracked(id int64) bool {
	_, ok := w.entities[id]
	return ok
}

// Foreign reports whether a tracked id was learned via Read rather than
// created locally.
func (w *World) Foreign(id int64) bool {
	e, ok := w.entities[id]
	return ok && e.Foreign
}

// entity returns the entity for id along with its existence, for
// internal callers that already validated the id.
func (w *World) entity(id int64) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// OwnerSet assigns owner to entity id. Fails on foreign entities. Every
// change that leaves owner valid mints a fresh token distinct from the
// previous one and sets OwnerUpdated (§4.2).
func (w *World) OwnerSet(id, owner int64) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	if e.Foreign {
		return ErrEntityForeign
	}
	return w.assignOwner(e, owner, 0, true)
}

// assignOwner is the shared bookkeeping behind OwnerSet and the reader's
// OWNER-segval handling. When mint is true a fresh token distinct from
// the entity's previous one is generated (local owner_set); otherwise
// token is used verbatim, as received in an OWNER segval.
func (w *World) assignOwner(e *Entity, owner int64, token uint16, mint bool) Status {
	if owner != InvalidOwner {
		if mint {
			token = w.rng.nextToken(e.OwnershipToken)
		}
		w.log.Trace("entity %d ownership: %d -> %d", e.ID, e.OwnerID, owner)
		e.OwnerID = owner
		e.OwnershipToken = token
		e.OwnerUpdated = mint
		if !w.snapshots.Has(owner) {
			w.snapshots.Ensure(owner)
		}
		return OK
	}
	e.OwnerID = InvalidOwner
	e.OwnershipToken = 0
	e.OwnerUpdated = false
	return OK
}

// OwnerGet returns the current owner of entity id.
func (w *World) OwnerGet(id int64) (int64, Status) {
	e, exists := w.entities[id]
	if !exists {
		return InvalidOwner, ErrEntityUntracked
	}
	return e.OwnerID, OK
}

// ChunkSet sets the entity's primary chunk slot (index 0) and clears
// the remaining slots.
func (w *World) ChunkSet(id int64, chunk ChunkID) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	e.Chunks[0] = chunk
	for i := 1; i < MaxChunksPerEntity; i++ {
		e.Chunks[i] = InvalidChunk
	}
	return OK
}

// ChunkGet returns the entity's primary chunk.
func (w *World) ChunkGet(id int64) (ChunkID, Status) {
	e, exists := w.entities[id]
	if !exists {
		return InvalidChunk, ErrEntityUntracked
	}
	return e.Chunks[0], OK
}

// ChunkArraySet writes up to MaxChunksPerEntity chunk ids, clearing any
// unused trailing slots to InvalidChunk.
func (w *World) ChunkArraySet(id int64, chunks []ChunkID) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	n := len(chunks)
	if n > MaxChunksPerEntity {
		n = MaxChunksPerEntity
	}
	for i := 0; i < n; i++ {
		e.Chunks[i] = chunks[i]
	}
	for i := n; i < MaxChunksPerEntity; i++ {
		e.Chunks[i] = InvalidChunk
	}
	return OK
}

// ChunkArrayGet copies the entity's occupied chunks (up to the first
// InvalidChunk sentinel) into buf, returning the number of valid slots
// and whether buf was too small to hold them all.
func (w *World) ChunkArrayGet(id int64, buf []ChunkID) (n int, truncated bool, status Status) {
	e, exists := w.entities[id]
	if !exists {
		return 0, false, ErrEntityUntracked
	}
	count := 0
	for count < MaxChunksPerEntity && e.Chunks[count] != InvalidChunk {
		count++
	}
	copyN := count
	if copyN > len(buf) {
		copyN = len(buf)
	}
	for i := 0; i < copyN; i++ {
		buf[i] = e.Chunks[i]
	}
	return count, copyN < count, OK
}

// DimensionSet / DimensionGet access the entity's dimension partition.
func (w *World) DimensionSet(id int64, dim int32) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	e.Dimension = dim
	return OK
}

func (w *World) DimensionGet(id int64) (int32, Status) {
	e, exists := w.entities[id]
	if !exists {
		return 0, ErrEntityUntracked
	}
	return e.Dimension, OK
}

// ObservedRadiusSet / ObservedRadiusGet control an entity's observer
// radius (§3).
func (w *World) ObservedRadiusSet(id int64, radius int8) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	e.ObservedRadius = radius
	return OK
}

func (w *World) ObservedRadiusGet(id int64) (int8, Status) {
	e, exists := w.entities[id]
	if !exists {
		return 0, ErrEntityUntracked
	}
	return e.ObservedRadius, OK
}

// GlobalVisibilitySet / GlobalVisibilityGet control an entity's global
// visibility override.
func (w *World) GlobalVisibilitySet(id int64, mode VisibilityMode) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	e.GlobalVisibility = mode
	return OK
}

func (w *World) GlobalVisibilityGet(id int64) (VisibilityMode, Status) {
	e, exists := w.entities[id]
	if !exists {
		return VisibilityDefault, ErrEntityUntracked
	}
	return e.GlobalVisibility, OK
}

// VisibilityOwnerSet overrides entity's visibility for a specific
// owner. Rejects attempts to hide an entity from its own owner (§4.2).
func (w *World) VisibilityOwnerSet(id, owner int64, mode VisibilityMode) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	if e.OwnerID == owner && owner != InvalidOwner {
		return ErrVisibilityIgnored
	}
	if mode == VisibilityDefault {
		if e.PerOwnerVisibility != nil {
			delete(e.PerOwnerVisibility, owner)
		}
		return OK
	}
	if e.PerOwnerVisibility == nil {
		e.PerOwnerVisibility = make(map[int64]VisibilityMode)
	}
	e.PerOwnerVisibility[owner] = mode
	return OK
}

// VisibilityOwnerGet returns entity's per-owner visibility override for
// owner, or VisibilityDefault if none is set.
func (w *World) VisibilityOwnerGet(id, owner int64) (VisibilityMode, Status) {
	e, exists := w.entities[id]
	if !exists {
		return VisibilityDefault, ErrEntityUntracked
	}
	if e.PerOwnerVisibility == nil {
		return VisibilityDefault, OK
	}
	return e.PerOwnerVisibility[owner], OK
}

// UserDataSet / UserDataGet access the entity's opaque user pointer.
func (w *World) UserDataSet(id int64, data interface{}) Status {
	e, exists := w.entities[id]
	if !exists {
		return ErrEntityUntracked
	}
	e.UserData = data
	return OK
}

func (w *World) UserDataGet(id int64) (interface{}, Status) {
	e, exists := w.entities[id]
	if !exists {
		return nil, ErrEntityUntracked
	}
	return e.UserData, OK
}
