// Package memory is a session-scoped store: entries expire after the session TTL.
package memory

import (
	"time"

	"github.com/jrsteele09/go-social-login/storage"
	gocache "github.com/patrickmn/go-cache"
)

type Store struct{ c *gocache.Cache }

var _ storage.Store = (*Store)(nil)

// New creates a store whose entries live for ttl. A ttl <= 0 never expires.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Store{c: gocache.New(ttl, time.Minute)}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return append([]byte(nil), b...), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.c.SetDefault(key, append([]byte(nil), value...))
	return nil
}

func (s *Store) Delete(key string) error {
	s.c.Delete(key)
	return nil
}
