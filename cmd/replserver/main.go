// Command replserver boots a small in-process replication.World behind
// a replserver.Host and exercises Track/OwnerSet/ChunkSet/Query/Write
// against a synthetic scene, so the engine and its wiring can be
// poked at without a real transport attached.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/annel0/replicad/internal/auth"
	"github.com/annel0/replicad/internal/config"
	"github.com/annel0/replicad/internal/eventbus"
	"github.com/annel0/replicad/internal/logging"
	"github.com/annel0/replicad/internal/replication"
	"github.com/annel0/replicad/internal/replserver"
	"github.com/annel0/replicad/internal/replserver/adminapi"
)

func main() {
	var (
		entityCount     = flag.Int("entities", 64, "Number of synthetic entities to seed")
		owners          = flag.Int("owners", 4, "Number of synthetic owners")
		radius          = flag.Int("radius", 3, "Observed chunk radius for each owner's entity")
		namespace       = flag.String("metrics-namespace", "replserver", "Prometheus namespace for engine metrics")
		verbose         = flag.Bool("verbose", false, "Lower the replication component's console log level to DEBUG")
		usersBackend    = flag.String("users-backend", "memory", "Owner account store: memory, mongo, or maria")
		mongoURI        = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB URI when -users-backend=mongo")
		mongoDB         = flag.String("mongo-db", "replserver", "MongoDB database name when -users-backend=mongo")
		mariaHost       = flag.String("maria-host", "localhost", "MariaDB host when -users-backend=maria")
		mariaDB         = flag.String("maria-db", "replserver", "MariaDB database name when -users-backend=maria")
		adminAddr       = flag.String("admin-addr", "", "If set, serve /healthz, /metrics and /owners/:id/visible on this address (e.g. :8090)")
		busBackend      = flag.String("bus-backend", "memory", "Event fan-out backend: memory or nats")
		natsURL         = flag.String("nats-url", "nats://127.0.0.1:4222", "NATS URL when -bus-backend=nats")
		natsStream      = flag.String("nats-stream", "EVENTS", "JetStream stream name when -bus-backend=nats")
		configPath      = flag.String("config", "", "Path to a YAML config file (see internal/config.Config); flags below override its replication settings when explicitly set")
		snapshotBackend = flag.String("snapshot-backend", "", "Snapshot store: memory, redis, or badger (default memory)")
		redisAddr       = flag.String("redis-addr", "", "Redis address when -snapshot-backend=redis")
		badgerDir       = flag.String("badger-dir", "", "BadgerDB directory when -snapshot-backend=badger")
	)
	flag.Parse()

	if err := logging.InitLogger(); err != nil {
		log.Fatalf("❌ failed to initialize logging: %v", err)
	}
	defer logging.CloseLogger()
	defer logging.GetLoggerManager().CloseAll()
	logging.Info("🌍 starting replserver")

	fileCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ failed to load config %q: %v", *configPath, err)
	}
	replCfg := config.ReplicationConfig{}
	if fileCfg != nil {
		replCfg = fileCfg.Replication
	}
	if *snapshotBackend != "" {
		replCfg.SnapshotBackend = *snapshotBackend
	}
	if *redisAddr != "" {
		replCfg.RedisAddr = *redisAddr
	}
	if *badgerDir != "" {
		replCfg.BadgerDir = *badgerDir
	}

	bus, err := openEventBus(*busBackend, *natsURL, *natsStream)
	if err != nil {
		log.Fatalf("❌ failed to open event bus (%s): %v", *busBackend, err)
	}
	if err := eventbus.StartLoggingListener(bus); err != nil {
		log.Fatalf("❌ failed to attach event bus logging listener: %v", err)
	}

	host, err := replserver.New(replCfg, bus, *namespace, nil)
	if err != nil {
		log.Fatalf("❌ failed to start replserver host: %v", err)
	}
	defer host.Close()

	if *verbose {
		// The replication component logger exists once the Host's World is
		// constructed.
		if err := logging.GetLoggerManager().SetLogLevel("replication", logging.DEBUG, logging.TRACE); err != nil {
			log.Printf("⚠️ failed to raise replication log verbosity: %v", err)
		}
	}

	users, err := openUserRepository(*usersBackend, *mongoURI, *mongoDB, *mariaHost, *mariaDB)
	if err != nil {
		log.Fatalf("❌ failed to open owner account store (%s): %v", *usersBackend, err)
	}
	host.SetUserRepository(users)

	if *adminAddr != "" {
		admin := adminapi.New(host)
		go func() {
			if err := admin.Run(*adminAddr); err != nil {
				log.Printf("⚠️ admin API stopped: %v", err)
			}
		}()
		fmt.Printf("🛠️  admin API listening on %s\n", *adminAddr)
	}

	world := host.World
	host.RegisterAppHandler(replication.EventCreateWrite, demoPayload)
	host.RegisterAppHandler(replication.EventUpdateWrite, demoPayload)

	seedScene(world, *entityCount, *owners, int8(*radius))

	fmt.Printf("🌍 seeded %d entities across %d owners\n", *entityCount, *owners)

	for owner := int64(0); owner < int64(*owners); owner++ {
		visible, overflow, status := world.Query(owner, 0)
		if status.IsError() {
			log.Fatalf("❌ Query(%d) failed: %v", owner, status)
		}

		frame, shortfall, err := host.WriteFrame(owner, 64*1024, nil)
		if err != nil {
			log.Fatalf("❌ WriteFrame(%d) failed: %v", owner, err)
		}

		fmt.Printf("owner %d: sees %d entities (overflow=%v), framed %d bytes (shortfall=%d)\n",
			owner, len(visible), overflow, len(frame), shortfall)
	}
}

// demoPayload is a stand-in application write handler: it stamps the
// current time into the segment's payload so Write has something real
// to serialize.
func demoPayload(w *replication.World, ev *replication.Event) int {
	if len(ev.Buffer) < 8 {
		return -1
	}
	now := time.Now().UnixNano()
	for i := 0; i < 8; i++ {
		ev.Buffer[i] = byte(now >> (8 * i))
	}
	return 8
}

// openUserRepository builds the owner account store backing
// Host.LoginOwner. "memory" is the zero-setup default for demos and
// tests; "mongo" and "maria" hand off to the corresponding persistent
// internal/auth repositories for a real deployment.
func openUserRepository(backend, mongoURI, mongoDB, mariaHost, mariaDB string) (auth.UserRepository, error) {
	switch backend {
	case "mongo":
		return auth.NewMongoUserRepo(auth.MongoConfig{
			URI:        mongoURI,
			Database:   mongoDB,
			Collection: "users",
			Counters:   "counters",
		})
	case "maria":
		return auth.NewMariaUserRepo(auth.MariaConfig{
			Host:     mariaHost,
			Database: mariaDB,
		})
	case "memory", "":
		return auth.NewMemoryUserRepo()
	default:
		return nil, fmt.Errorf("unknown users-backend %q (want memory, mongo, or maria)", backend)
	}
}

// openEventBus builds the fan-out EventBus wireEvents publishes onto.
// "memory" needs no infrastructure and is fine for the demo above;
// "nats" hands off to a JetStream-backed bus for a real deployment
// where more than one replserver process shares the same owner
// population.
func openEventBus(backend, natsURL, natsStream string) (eventbus.EventBus, error) {
	switch backend {
	case "nats":
		return eventbus.NewJetStreamBus(natsURL, natsStream, 24*time.Hour)
	case "memory", "":
		return eventbus.NewMemoryBus(1024), nil
	default:
		return nil, fmt.Errorf("unknown bus-backend %q (want memory or nats)", backend)
	}
}

func seedScene(world *replication.World, entityCount, owners int, radius int8) {
	for id := int64(0); id < int64(entityCount); id++ {
		if status := world.Track(id); status.IsError() {
			log.Fatalf("❌ Track(%d) failed: %v", id, status)
		}

		owner := id % int64(owners)
		if status := world.OwnerSet(id, owner); status.IsError() {
			log.Fatalf("❌ OwnerSet(%d, %d) failed: %v", id, owner, status)
		}

		chunk := world.ChunkFromRealPos(float64(id%32)*16, 0, float64(id/32)*16)
		if status := world.ChunkSet(id, chunk); status.IsError() {
			log.Fatalf("❌ ChunkSet(%d) failed: %v", id, status)
		}

		if id%int64(owners) == owner {
			world.ObservedRadiusSet(id, radius)
		}
	}
}
