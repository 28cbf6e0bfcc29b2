package memory_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-social-login/storage"
	"github.com/jrsteele09/go-social-login/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := memory.New(time.Minute)

	_, ok, err := s.Get("currentUser")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("currentUser", []byte(`{"id":"google_123"}`)))
	b, ok, err := s.Get("currentUser")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"google_123"}`, string(b))

	require.NoError(t, s.Delete("currentUser"))
	_, ok, _ = s.Get("currentUser")
	require.False(t, ok)
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := memory.New(0)
	v := []byte("abc")
	require.NoError(t, s.Set("k", v))
	v[0] = 'z'

	b, _, _ := s.Get("k")
	require.Equal(t, "abc", string(b))
}

func TestStore_Expiry(t *testing.T) {
	s := memory.New(20 * time.Millisecond)
	require.NoError(t, s.Set("oauth_state", []byte("x")))

	require.Eventually(t, func() bool {
		_, ok, _ := s.Get("oauth_state")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStore_JSONHelpers(t *testing.T) {
	s := memory.New(time.Minute)
	require.NoError(t, storage.SetJSON(s, "list", []string{"a", "b"}))

	var out []string
	ok, err := storage.GetJSON(s, "list", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, out)

	require.NoError(t, s.Set("bad", []byte("{")))
	_, err = storage.GetJSON(s, "bad", &out)
	require.Error(t, err)
}
