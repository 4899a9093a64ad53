// Package redisstore provides a Redis-backed replication.SnapshotStore
// for hosts running more than one replserver instance against the same
// owner population.
package redisstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/replicad/internal/logging"
	"github.com/annel0/replicad/internal/replication"
)

// Store хранит снапшоты владельцев в Redis как отсортированные
// множества (ZSET) под ключом "replsnap:<owner>", так что порядок
// вставки сохраняется через score. Это тот же контракт, что и у
// дефолтного in-memory хранилища движка, но пережинаемый между
// инстансами хоста.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Config конфигурирует подключение Redis для Store.
type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix заменяет дефолтный "replsnap:".
	KeyPrefix string
	// TTL, если ненулевой, выставляется на ключ снапшота при каждом Set
	// — защита от утечки владельцев, которые никогда не делают Delete.
	TTL time.Duration
}

// New создаёт Store и проверяет соединение с Redis.
func New(cfg Config) (*Store, error) {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "replsnap:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Replication snapshot store connected to Redis: %s", cfg.Addr)
	return &Store{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(owner int64) string {
	return s.prefix + encodeOwner(owner)
}

func encodeOwner(owner int64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(owner))
	return string(b[:])
}

// Get returns the owner's snapshot in insertion order.
func (s *Store) Get(owner int64) ([]int64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	members, err := s.client.ZRange(ctx, s.key(owner), 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			logging.Error("Redis snapshot Get failed for owner %d: %v", owner, err)
		}
		return nil, false
	}
	if len(members) == 0 {
		key := s.key(owner)
		exists, err := s.client.Exists(ctx, key, key+":exists").Result()
		if err != nil || exists == 0 {
			return nil, false
		}
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		var id int64
		if _, err := fmt.Sscanf(m, "%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, true
}

// Set atomically replaces the owner's snapshot.
func (s *Store) Set(owner int64, ids []int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := s.key(owner)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key, key+":exists")
	for i, id := range ids {
		pipe.ZAdd(ctx, key, &redis.Z{Score: float64(i), Member: fmt.Sprintf("%d", id)})
	}
	if len(ids) == 0 {
		// ZADD не вызывается для пустого списка, создаём маркер
		// существования, чтобы Has/Get различали "пусто" и "нет записи".
		pipe.Set(ctx, key+":exists", 1, s.ttl)
	} else if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logging.Error("Redis snapshot Set failed for owner %d: %v", owner, err)
	}
}

// Delete drops the owner's snapshot entirely.
func (s *Store) Delete(owner int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key := s.key(owner)
	if err := s.client.Del(ctx, key, key+":exists").Err(); err != nil {
		logging.Error("Redis snapshot Delete failed for owner %d: %v", owner, err)
	}
}

// Has reports whether owner currently has a snapshot record.
func (s *Store) Has(owner int64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key := s.key(owner)
	n, err := s.client.Exists(ctx, key, key+":exists").Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Ensure creates an empty snapshot record for owner if one doesn't
// exist yet.
func (s *Store) Ensure(owner int64) {
	if s.Has(owner) {
		return
	}
	s.Set(owner, nil)
}

var _ replication.SnapshotStore = (*Store)(nil)
