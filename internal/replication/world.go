// Package replication implements a server-authoritative world
// replication engine: a chunked spatial index, a per-owner visibility
// query, an ownership-token protocol and a bounded binary wire codec
// for synchronizing entity state between peers. The package owns none
// of transport, persistence or owner-identity authentication; see
// SPEC_FULL.md for the boundary this draws with the reference host in
// internal/replserver.
package replication

import "github.com/annel0/replicad/internal/logging"

// Config configures a World's chunk grid and query bounds (§3).
type Config struct {
	Grid GridConfig

	// MaxQueryResults caps how many non-owned entities Query/Write will
	// admit per call, clamped to [1, 65535] (§6).
	MaxQueryResults int

	// Seed initializes the token PRNG; zero picks a random seed.
	Seed int64
}

// DefaultConfig returns the donor-style default: a 256-cube grid,
// middle-biased origin, and the spec's default query cap.
func DefaultConfig() Config {
	return Config{
		Grid:            DefaultGridConfig(),
		MaxQueryResults: 16384,
	}
}

func (c Config) normalized() Config {
	if c.MaxQueryResults <= 0 {
		c.MaxQueryResults = 16384
	}
	if c.MaxQueryResults > 65535 {
		c.MaxQueryResults = 65535
	}
	if c.Grid.CountX == 0 && c.Grid.CountY == 0 && c.Grid.CountZ == 0 {
		c.Grid = DefaultGridConfig()
	}
	return c
}

// World owns every replicated entity, the per-owner snapshot cache and
// the registered event handlers. All World methods run synchronously on
// the caller's goroutine; a World carries no internal locks and must
// not be shared across goroutines without external synchronization
// (§5 Concurrency & Resource Model).
type World struct {
	cfg   Config
	index chunkIndex

	entities map[int64]*Entity
	order    []int64
	orderPos map[int64]int

	snapshots SnapshotStore
	handlers  map[EventKind]Handler

	rng *tokenRNG

	userData interface{}
	metrics  MetricsSink
	log      *logging.Logger
}

// Option configures a World at construction time.
type Option func(*World)

// WithSnapshotStore overrides the default in-memory SnapshotStore, e.g.
// with a Redis-backed implementation for multi-instance deployments.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(w *World) { w.snapshots = s }
}

// WithUserData attaches a default opaque pointer handed to callbacks
// when a call doesn't supply its own.
func WithUserData(data interface{}) Option {
	return func(w *World) { w.userData = data }
}

// WithMetrics attaches a MetricsSink the engine reports instrumentation
// to (query result sizes and overflows, write/read volumes, rejects,
// shortfall).
func WithMetrics(m MetricsSink) Option {
	return func(w *World) { w.metrics = m }
}

// New creates a World from cfg, applying any Options.
func New(cfg Config, opts ...Option) *World {
	cfg = cfg.normalized()
	w := &World{
		cfg:      cfg,
		index:    newChunkIndex(cfg.Grid),
		entities: make(map[int64]*Entity),
		orderPos: make(map[int64]int),
		handlers: make(map[EventKind]Handler),
		rng:      newTokenRNG(cfg.Seed),
		metrics:  noopMetrics{},
		log:      logging.GetReplicationLogger(),
	}
	w.snapshots = newMemorySnapshotStore()
	for _, opt := range opts {
		opt(w)
	}
	if w.metrics == nil {
		w.metrics = noopMetrics{}
	}
	return w
}

// Destroy drops every tracked entity and, when the World uses the
// default in-memory SnapshotStore, every owner snapshot. Snapshots held
// by any other SnapshotStore are left in place. The World value itself
// can simply be dropped afterward.
func (w *World) Destroy() {
	if mem, ok := w.snapshots.(*memorySnapshotStore); ok {
		mem.byOwner = make(map[int64]*snapshot)
	}
	w.entities = make(map[int64]*Entity)
	w.order = nil
	w.orderPos = make(map[int64]int)
}

// Count returns the number of tracked entities (local and foreign).
func (w *World) Count() int { return len(w.entities) }

// ChunkFromRealPos maps a real-space point to a chunk id using the
// World's configured grid (§4.1).
func (w *World) ChunkFromRealPos(x, y, z float64) ChunkID {
	return w.index.fromReal(x, y, z)
}

func (w *World) orderAppend(id int64) {
	w.orderPos[id] = len(w.order)
	w.order = append(w.order, id)
}

func (w *World) orderRemove(id int64) {
	pos, ok := w.orderPos[id]
	if !ok {
		return
	}
	last := len(w.order) - 1
	movedID := w.order[last]
	w.order[pos] = movedID
	w.order = w.order[:last]
	delete(w.orderPos, id)
	if pos != last {
		w.orderPos[movedID] = pos
	}
}
