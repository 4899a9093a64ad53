package replication

// Read applies a buffer produced by a peer's Write to owner's local
// view of the world: CREATE tracks a new foreign entity, UPDATE feeds
// an existing one's payload to its handler, REMOVE drops a foreign
// entity, and OWNER silently reassigns ownership to owner using the
// token carried in the segval — no callback fires on a successful
// OWNER segval, only on failure (§4.5 Callback surface). Anything that
// doesn't parse as a well-formed segment is ErrReadInvalid, including
// trailing bytes too short to hold a segment header; the unconsumed
// byte count is reported as residual alongside the status.
func (w *World) Read(owner int64, buf []byte, userData interface{}) (residual int, status Status) {
	cursor := 0
	bytesRead := 0
	defer func() { w.metrics.ObserveRead(owner, bytesRead, status) }()
	if owner == InvalidOwner {
		return len(buf), ErrInvalidOwner
	}

	for cursor < len(buf) {
		if len(buf)-cursor < segmentHeaderSize {
			// §4.5: a non-zero residual with no room for a valid segment
			// header cannot be well-formed framing.
			return len(buf) - cursor, ErrReadInvalid
		}
		kind, amount, valueBytes := getSegmentHeader(buf[cursor : cursor+segmentHeaderSize])
		if kind > SegmentOwner {
			w.log.Warn("read from owner %d: unknown segment kind %d", owner, kind)
			return len(buf) - cursor, ErrReadInvalid
		}
		segStart := cursor + segmentHeaderSize
		segEnd := segStart + int(valueBytes)
		if segEnd > len(buf) {
			return len(buf) - cursor, ErrReadInvalid
		}

		pos := segStart
		var processed uint16
		for processed < amount {
			if segEnd-pos < segvalHeaderSize {
				return len(buf) - cursor, ErrReadInvalid
			}
			entityID, token, payloadLen := getSegvalHeader(buf[pos : pos+segvalHeaderSize])
			payloadStart := pos + segvalHeaderSize
			payloadEnd := payloadStart + int(payloadLen)
			if payloadEnd > segEnd {
				return len(buf) - cursor, ErrReadInvalid
			}
			payload := buf[payloadStart:payloadEnd]

			w.applySegval(kind, entityID, token, owner, payload, userData)

			pos = payloadEnd
			processed++
		}
		if pos != segEnd {
			return len(buf) - cursor, ErrReadInvalid
		}

		bytesRead = segEnd
		cursor = segEnd
	}

	return len(buf) - cursor, OK
}

func (w *World) applySegval(kind SegmentKind, entityID int64, token uint16, owner int64, payload []byte, userData interface{}) {
	switch kind {
	case SegmentCreate:
		// §4.5: track a new entity; if it already exists (or the id is
		// not one Track would accept), this is an error-create, not a
		// create.
		if _, exists := w.entity(entityID); exists || entityID < 0 {
			w.dispatchRead(EventErrorCreate, entityID, owner, payload, userData)
			return
		}
		e := newEntity(entityID)
		e.Foreign = true
		w.entities[entityID] = e
		w.orderAppend(entityID)
		w.dispatchRead(EventCreateRead, entityID, owner, payload, userData)

	case SegmentUpdate:
		// §4.5: accepted iff the entity exists AND (it is foreign, OR its
		// local owner_id matches the sender AND its stored token matches).
		e, exists := w.entity(entityID)
		if !exists {
			w.dispatchRead(EventErrorUpdate, entityID, owner, payload, userData)
			return
		}
		authorized := e.Foreign || (e.OwnerID == owner && e.OwnershipToken == token)
		if !authorized {
			w.dispatchRead(EventErrorUpdate, entityID, owner, payload, userData)
			return
		}
		w.dispatchRead(EventUpdateRead, entityID, owner, payload, userData)

	case SegmentRemove:
		// §4.5: accepted iff the entity exists AND is foreign.
		e, exists := w.entity(entityID)
		if !exists || !e.Foreign {
			w.dispatchRead(EventErrorRemove, entityID, owner, payload, userData)
			return
		}
		w.dispatchRead(EventRemoveRead, entityID, owner, payload, userData)
		w.untrackForeign(entityID)

	case SegmentOwner:
		// §4.5: accepted iff the entity exists AND is foreign. The
		// transient clear of Foreign lets assignOwner run its normal
		// bookkeeping (snapshot lazily created for the new owner) without
		// tripping any "can't reassign a foreign entity" guard elsewhere.
		e, exists := w.entity(entityID)
		if !exists || !e.Foreign {
			w.dispatchRead(EventErrorOwner, entityID, owner, payload, userData)
			return
		}
		e.Foreign = false
		w.assignOwner(e, owner, token, false) // mint=false leaves OwnerUpdated cleared
		e.Foreign = true
	}
}
