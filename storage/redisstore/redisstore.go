// Package redisstore backs the durable store with Redis so several demo
// processes can share registered users.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-social-login/storage"
	rdb "github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

type Store struct {
	c      *rdb.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New connects lazily; prefix namespaces every key (e.g. "social-login:").
func New(addr string, db int, prefix string) *Store {
	return &Store{c: rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), prefix: prefix}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b, err := s.c.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.c.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Store) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.c.Del(ctx, s.prefix+key).Err()
}

func (s *Store) Close() error {
	return s.c.Close()
}
