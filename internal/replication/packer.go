package replication

// ownerGroupIndex is the position of the OWNER group within the slice
// groupByKind returns (CREATE, UPDATE, REMOVE, OWNER — §4.4 fixed order).
const ownerGroupIndex = 3

// writeCandidate is one pending segval a Write pass may emit.
type writeCandidate struct {
	kind EventKind
	seg  SegmentKind
	id   int64
}

// Write serializes everything owner is owed this pass into buf: CREATE
// segments for newly visible entities, UPDATE for ones already in the
// owner's snapshot, REMOVE for ones that fell out of visibility, and
// OWNER for entities whose ownership token changed since the last call
// (§4.4). It returns the number of bytes written and a conservative
// estimate of how many more bytes would have been needed had the
// buffer not run out (shortfall is 0 when everything fit).
func (w *World) Write(owner int64, buf []byte, userData interface{}) (written int, shortfall int, status Status) {
	if owner == InvalidOwner {
		return 0, 0, ErrInvalidOwner
	}

	visible, _, qstatus := w.Query(owner, 0)
	if qstatus.IsError() {
		return 0, 0, qstatus
	}
	visibleSet := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		visibleSet[id] = struct{}{}
	}

	prev, _ := w.snapshots.Get(owner)
	prevSet := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		prevSet[id] = struct{}{}
	}

	var candidates []writeCandidate
	for _, id := range visible {
		_, already := prevSet[id]
		e := w.entities[id]
		if already || (e != nil && e.Foreign) {
			candidates = append(candidates, writeCandidate{EventUpdateWrite, SegmentUpdate, id})
		} else {
			candidates = append(candidates, writeCandidate{EventCreateWrite, SegmentCreate, id})
		}
	}
	for _, id := range prev {
		if _, stillVisible := visibleSet[id]; stillVisible {
			continue
		}
		if e := w.entities[id]; e != nil && e.Foreign {
			continue
		}
		candidates = append(candidates, writeCandidate{EventRemoveWrite, SegmentRemove, id})
	}
	var ownerCandidates []writeCandidate
	for _, id := range w.order {
		e := w.entities[id]
		if e.OwnerID == owner && e.OwnerUpdated {
			ownerCandidates = append(ownerCandidates, writeCandidate{EventOwnerWrite, SegmentOwner, id})
		}
	}

	groups := groupByKind(candidates)

	newSnapshot := make([]int64, 0, len(prev)+len(visible))
	keep := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		keep[id] = struct{}{}
	}

	cursor := 0
	aborted := false

	for groupIdx, group := range groups {
		if groupIdx == ownerGroupIndex {
			// OWNER is only owed to entities that made it into the new
			// snapshot this pass (§4.4: "entity was already added to the
			// new snapshot") — a rejected or not-yet-emitted CREATE must
			// not be followed by an OWNER segval the receiver can't place.
			filtered := ownerCandidates[:0:0]
			for _, c := range ownerCandidates {
				if _, ok := keep[c.id]; ok {
					filtered = append(filtered, c)
				}
			}
			group = filtered
		}
		if len(group) == 0 {
			continue
		}
		if aborted {
			w.estimateShortfall(&shortfall, group)
			continue
		}
		if len(buf)-cursor < segmentHeaderSize {
			w.estimateShortfall(&shortfall, group)
			aborted = true
			continue
		}
		headerAt := cursor
		cursor += segmentHeaderSize
		segStart := cursor
		amount := uint16(0)

		for i, c := range group {
			if aborted {
				w.estimateShortfall(&shortfall, group[i:])
				break
			}
			if len(buf)-cursor < segvalHeaderSize {
				w.estimateShortfall(&shortfall, group[i:])
				aborted = true
				break
			}
			payloadBuf := buf[cursor+segvalHeaderSize:]
			n := w.dispatchWrite(c.kind, c.id, owner, payloadBuf, userData)
			if n < 0 {
				// Voluntary rejection: not a shortfall, retried next call.
				w.metrics.ObserveReject(c.kind)
				continue
			}
			if n > len(payloadBuf) {
				// The payload didn't fit: count this value's full cost and
				// the rest of the group toward the shortfall and stop
				// emitting. The candidate is retried on the next call.
				shortfall += n
				w.estimateShortfall(&shortfall, group[i:])
				aborted = true
				break
			}
			// §6: the token field is zero except on an UPDATE of a foreign
			// entity (echoing the stored token back to the authority) and on
			// an OWNER handoff (carrying the freshly minted token).
			e := w.entities[c.id]
			var token uint16
			if e != nil {
				switch {
				case c.seg == SegmentOwner:
					token = e.OwnershipToken
				case c.seg == SegmentUpdate && e.Foreign:
					token = e.OwnershipToken
				}
			}
			putSegvalHeader(buf[cursor:cursor+segvalHeaderSize], c.id, token, uint16(n))
			cursor += segvalHeaderSize + n
			amount++

			switch c.seg {
			case SegmentCreate:
				keep[c.id] = struct{}{}
			case SegmentRemove:
				delete(keep, c.id)
			case SegmentOwner:
				if e != nil {
					e.OwnerUpdated = false
				}
			}
		}

		if amount == 0 {
			cursor = headerAt
			continue
		}
		valueBytes := uint32(cursor - segStart)
		putSegmentHeader(buf[headerAt:headerAt+segmentHeaderSize], group[0].seg, amount, valueBytes)
	}

	for _, id := range prev {
		if _, ok := keep[id]; ok {
			newSnapshot = append(newSnapshot, id)
			delete(keep, id)
		}
	}
	for id := range keep {
		newSnapshot = append(newSnapshot, id)
	}
	w.snapshots.Set(owner, newSnapshot)

	w.metrics.ObserveWrite(owner, cursor, shortfall)
	return cursor, shortfall, OK
}

func (w *World) estimateShortfall(shortfall *int, remaining []writeCandidate) {
	*shortfall += len(remaining) * segvalHeaderSize
}

func groupByKind(candidates []writeCandidate) [][]writeCandidate {
	var create, update, remove, own []writeCandidate
	for _, c := range candidates {
		switch c.seg {
		case SegmentCreate:
			create = append(create, c)
		case SegmentUpdate:
			update = append(update, c)
		case SegmentRemove:
			remove = append(remove, c)
		case SegmentOwner:
			own = append(own, c)
		}
	}
	return [][]writeCandidate{create, update, remove, own}
}
