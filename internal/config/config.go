package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	EventBus    EventBusConfig    `yaml:"eventbus"`
	Replication ReplicationConfig `yaml:"replication"`
}

// ReplicationConfig настраивает движок репликации мира (internal/replication)
// и хост internal/replserver, оборачивающий его транспортом и хранилищем.
type ReplicationConfig struct {
	// GridCountX/Y/Z — размеры чанковой сетки; 0 означает значение по
	// умолчанию (256 по каждой оси).
	GridCountX int `yaml:"grid_count_x"`
	GridCountY int `yaml:"grid_count_y"`
	GridCountZ int `yaml:"grid_count_z"`
	ChunkSize  int `yaml:"chunk_size"`

	// MaxQueryResults ограничивает число сущностей, отдаваемых Query/Write
	// за один вызов, 0 — использовать дефолт движка.
	MaxQueryResults int `yaml:"max_query_results"`

	// Seed инициализирует PRNG токенов владения; 0 — случайное зерно.
	Seed int64 `yaml:"seed"`

	// SnapshotBackend выбирает реализацию SnapshotStore: "memory" (по
	// умолчанию), "redis" или "badger".
	SnapshotBackend string `yaml:"snapshot_backend"`
	RedisAddr       string `yaml:"redis_addr"`
	BadgerDir       string `yaml:"badger_dir"`

	// EventsSubject читается из YAML, но replserver его не использует:
	// при -bus-backend=nats события CREATE/UPDATE/REMOVE/OWNER
	// публикуются в subject events.replication.<create|update|remove|owner>.
	EventsSubject string `yaml:"events_subject"`
}

// GetMaxQueryResults возвращает MaxQueryResults с поддержкой env fallback.
func (r *ReplicationConfig) GetMaxQueryResults() int {
	return getPortWithEnvFallback(r.MaxQueryResults, "REPL_MAX_QUERY_RESULTS", 16384)
}

// GetRedisAddr возвращает адрес Redis с поддержкой env fallback.
func (r *ReplicationConfig) GetRedisAddr() string {
	if r.RedisAddr != "" {
		return r.RedisAddr
	}
	if v := os.Getenv("REPL_REDIS_ADDR"); v != "" {
		return v
	}
	return "localhost:6379"
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV REPLSERVER_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("REPLSERVER_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
