package replication

// Query computes the set of entity ids owner should see this tick
// (§4.3). maxResults caps the non-owned portion; pass 0 to use the
// World's configured default. The returned bool reports whether the
// result was truncated.
func (w *World) Query(owner int64, maxResults int) ([]int64, bool, Status) {
	if owner == InvalidOwner {
		return nil, false, ErrInvalidOwner
	}
	if maxResults <= 0 {
		maxResults = w.cfg.MaxQueryResults
	}
	if maxResults > 65535 {
		maxResults = 65535
	}

	seen := make(map[int64]struct{})
	ownerDims := make(map[int32]struct{})
	var owned []int64

	for _, id := range w.order {
		e := w.entities[id]
		if e.OwnerID == owner {
			owned = append(owned, id)
			seen[id] = struct{}{}
			ownerDims[e.Dimension] = struct{}{}
		}
	}

	dimChunks := make(map[int32]map[ChunkID]struct{})
	for _, id := range owned {
		e := w.entities[id]
		if !e.isObserver() {
			continue
		}
		set := dimChunks[e.Dimension]
		if set == nil {
			set = make(map[ChunkID]struct{})
			dimChunks[e.Dimension] = set
		}
		for _, c := range e.Chunks {
			if c == InvalidChunk {
				break
			}
			set[c] = struct{}{}
			for _, n := range w.index.radius(c, e.ObservedRadius) {
				set[n] = struct{}{}
			}
		}
	}

	result := make([]int64, 0, len(owned)+maxResults)
	result = append(result, owned...)
	effectiveCap := maxResults + len(owned)
	overflow := false

	for _, id := range w.order {
		if _, already := seen[id]; already {
			continue
		}
		e := w.entities[id]

		mode := VisibilityDefault
		if e.PerOwnerVisibility != nil {
			if v, ok := e.PerOwnerVisibility[owner]; ok {
				mode = v
			}
		}
		if mode == VisibilityDefault {
			mode = e.GlobalVisibility
		}

		var include bool
		switch mode {
		case VisibilityNever:
			include = false
		case VisibilityAlways:
			_, include = ownerDims[e.Dimension]
		default:
			if set, ok := dimChunks[e.Dimension]; ok {
				for _, c := range e.Chunks {
					if c == InvalidChunk {
						break
					}
					if _, inSet := set[c]; inSet {
						include = true
						break
					}
				}
			}
		}
		if !include {
			continue
		}
		if len(result) >= effectiveCap {
			overflow = true
			break
		}
		result = append(result, id)
		seen[id] = struct{}{}
	}

	w.metrics.ObserveQuery(len(result), overflow)
	return result, overflow, OK
}
