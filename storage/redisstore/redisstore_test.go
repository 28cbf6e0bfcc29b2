package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-social-login/storage/redisstore"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *redisstore.Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s := redisstore.New(addr, 0, "social-login-test:"+uuid.NewString()+":")
	require.NoError(t, s.Ping(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get("signupUsers")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("signupUsers", []byte("[]")))
	b, ok, err := s.Get("signupUsers")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(b))

	require.NoError(t, s.Delete("signupUsers"))
	_, ok, err = s.Get("signupUsers")
	require.NoError(t, err)
	require.False(t, ok)
}
