// Package replserver is a reference host for internal/replication: it
// wires the engine to transport-adjacent concerns the engine itself
// stays ignorant of — owner authentication, event fan-out and wire
// compression — the way SPEC_FULL.md §C draws that boundary.
package replserver

import (
	"crypto/rand"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/replicad/internal/auth"
	"github.com/annel0/replicad/internal/config"
	"github.com/annel0/replicad/internal/eventbus"
	"github.com/annel0/replicad/internal/logging"
	"github.com/annel0/replicad/internal/replication"
	"github.com/annel0/replicad/internal/replication/metrics"
	"github.com/annel0/replicad/internal/replserver/badgerstore"
	"github.com/annel0/replicad/internal/replserver/redisstore"
)

// Host owns a replication.World plus the surrounding infrastructure a
// deployed server needs: JWT-based owner identity, an EventBus fan-out
// of admitted write segments, and a zstd codec for framing buffers
// handed to whatever transport the caller chooses.
type Host struct {
	World *replication.World

	bus           eventbus.EventBus
	compressor    *Compressor
	jwtSecret     []byte
	appHandlers   map[replication.EventKind]replication.Handler
	closeSnapshot func() error
	log           *logging.Logger

	// Users backs LoginOwner, when account persistence is wired in.
	// A Host that only ever deals in pre-issued owner tokens can leave
	// this nil and call IssueOwnerToken/AuthenticateOwner directly.
	Users auth.UserRepository
}

// New builds a Host from cfg, a started EventBus, and a Prometheus
// namespace for the engine's metrics, which are registered on
// prometheus.DefaultRegisterer. jwtSecret authenticates owner tokens minted by
// IssueOwnerToken/validated by AuthenticateOwner; pass nil to generate
// a random development secret.
func New(cfg config.ReplicationConfig, bus eventbus.EventBus, promNamespace string, jwtSecret []byte) (*Host, error) {
	if jwtSecret == nil {
		jwtSecret = make([]byte, 32)
		if _, err := rand.Read(jwtSecret); err != nil {
			return nil, fmt.Errorf("failed to generate owner JWT secret: %w", err)
		}
	}

	compressor, err := NewCompressor()
	if err != nil {
		return nil, err
	}

	sink := metrics.New(promNamespace, prometheus.DefaultRegisterer)

	snapStore, closeSnapStore, err := openSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	worldCfg := replication.Config{
		Grid: replication.GridConfig{
			CountX:    int32(orDefault(cfg.GridCountX, 256)),
			CountY:    int32(orDefault(cfg.GridCountY, 256)),
			CountZ:    int32(orDefault(cfg.GridCountZ, 256)),
			ChunkSize: float64(orDefault(cfg.ChunkSize, 16)),
			OffsetX:   replication.OffsetMiddle,
			OffsetY:   replication.OffsetMiddle,
			OffsetZ:   replication.OffsetMiddle,
		},
		MaxQueryResults: cfg.GetMaxQueryResults(),
		Seed:            cfg.Seed,
	}

	h := &Host{
		bus:           bus,
		compressor:    compressor,
		jwtSecret:     jwtSecret,
		appHandlers:   make(map[replication.EventKind]replication.Handler),
		closeSnapshot: closeSnapStore,
		log:           logging.GetServerLogger(),
	}
	worldOpts := []replication.Option{replication.WithMetrics(sink)}
	if snapStore != nil {
		worldOpts = append(worldOpts, replication.WithSnapshotStore(snapStore))
	}
	h.World = replication.New(worldCfg, worldOpts...)
	h.wireEvents(h.World)
	return h, nil
}

// openSnapshotStore builds the SnapshotStore backing cfg.SnapshotBackend.
// "" and "memory" leave the engine's own default in place (nil, nil).
func openSnapshotStore(cfg config.ReplicationConfig) (replication.SnapshotStore, func() error, error) {
	switch cfg.SnapshotBackend {
	case "redis":
		store, err := redisstore.New(redisstore.Config{Addr: cfg.GetRedisAddr()})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis snapshot store: %w", err)
		}
		return store, store.Close, nil
	case "badger":
		dir := cfg.BadgerDir
		if dir == "" {
			dir = "./replserver-snapshots"
		}
		store, err := badgerstore.Open(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger snapshot store: %w", err)
		}
		return store, store.Close, nil
	case "", "memory":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q (want memory, redis, or badger)", cfg.SnapshotBackend)
	}
}

// SetUserRepository wires a persistent account store behind LoginOwner.
// repo is typically an *auth.MongoUserRepo or *auth.MariaUserRepo backing
// long-lived accounts; tests and single-process demos can pass
// *auth.MemoryUserRepo instead.
func (h *Host) SetUserRepository(repo auth.UserRepository) {
	h.Users = repo
}

// RegisterAppHandler installs the application's own write handler for
// kind; it still runs (and still gets to reject) underneath the Host's
// event-publishing wrapper.
func (h *Host) RegisterAppHandler(kind replication.EventKind, handler replication.Handler) {
	h.appHandlers[kind] = handler
}

// Close releases the Host's codec and, if one was opened, its durable
// snapshot store. The underlying World and EventBus are owned by the
// caller and are not touched here.
func (h *Host) Close() {
	h.compressor.Close()
	if h.closeSnapshot != nil {
		_ = h.closeSnapshot()
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
