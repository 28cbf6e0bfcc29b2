package config

import "time"

type StorageConfig interface {
	GetSessionStore() string
	GetDurableStore() string
	GetSessionTTL() time.Duration
	GetRedisAddr() string
	GetRedisDB() int
}

type Storage struct {
	SessionStore string        `env:"SESSION_STORE" envDefault:"memory"`
	DurableStore string        `env:"DURABLE_STORE" envDefault:"file"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
}

var _ StorageConfig = Storage{}

// GetSessionStore is "memory" or "file".
func (s Storage) GetSessionStore() string {
	return s.SessionStore
}

// GetDurableStore is "file" or "redis".
func (s Storage) GetDurableStore() string {
	return s.DurableStore
}

func (s Storage) GetSessionTTL() time.Duration {
	return s.SessionTTL
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}
