package users_test

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-social-login/internal/errors"
	"github.com/jrsteele09/go-social-login/internal/utils"
	"github.com/jrsteele09/go-social-login/storage"
	"github.com/jrsteele09/go-social-login/storage/memory"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/stretchr/testify/require"
)

func newAccountStore(t *testing.T) (*users.AccountStore, storage.Store) {
	t.Helper()
	s := memory.New(0)
	return users.NewAccountStore(s, users.WithNowTime(func() time.Time { return testNow })), s
}

func validRegistration() users.RegisterRequest {
	return users.RegisterRequest{
		Email:           "jane@example.com",
		Username:        "jane_doe",
		Password:        "Passw0rdX",
		ConfirmPassword: "Passw0rdX",
		AcceptTerms:     true,
		Newsletter:      true,
	}
}

func TestAccountStore_Register(t *testing.T) {
	accounts, _ := newAccountStore(t)

	u, err := accounts.Register(validRegistration())
	require.NoError(t, err)
	require.Equal(t, "local_1709294400000", u.ID)
	require.Equal(t, users.ProviderLocal, u.AuthProvider)
	require.Equal(t, users.RoleUser, u.Role)
	require.True(t, u.Newsletter)
	require.False(t, u.Verified)

	t.Run("duplicate email", func(t *testing.T) {
		req := validRegistration()
		req.Username = "someone_else"
		req.Email = "JANE@example.com"
		_, err := accounts.Register(req)
		require.True(t, errors.Is(err, apperrors.ErrUserExists))
	})

	t.Run("duplicate username", func(t *testing.T) {
		req := validRegistration()
		req.Email = "other@example.com"
		_, err := accounts.Register(req)
		require.True(t, errors.Is(err, apperrors.ErrUserExists))
	})

	t.Run("same millisecond gets a distinct id", func(t *testing.T) {
		req := validRegistration()
		req.Email = "second@example.com"
		req.Username = "second"
		second, err := accounts.Register(req)
		require.NoError(t, err)
		require.Equal(t, "local_1709294400001", second.ID)
	})
}

func TestAccountStore_RegisterValidation(t *testing.T) {
	accounts, _ := newAccountStore(t)

	tests := []struct {
		name   string
		modify func(*users.RegisterRequest)
		msg    string
	}{
		{"bad email", func(r *users.RegisterRequest) { r.Email = "nope" }, "valid email"},
		{"short username", func(r *users.RegisterRequest) { r.Username = "ab" }, "at least 3 characters"},
		{"username charset", func(r *users.RegisterRequest) { r.Username = "jane-doe" }, "letters, numbers, and underscores"},
		{"weak password", func(r *users.RegisterRequest) { r.Password, r.ConfirmPassword = "password", "password" }, "uppercase"},
		{"mismatch", func(r *users.RegisterRequest) { r.ConfirmPassword = "Different1" }, "do not match"},
		{"terms", func(r *users.RegisterRequest) { r.AcceptTerms = false }, "Terms of Service"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.modify(&req)
			_, err := accounts.Register(req)
			require.Error(t, err)
			require.True(t, errors.Is(err, apperrors.ErrInvalidUserData))
			require.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestAccountStore_Authenticate(t *testing.T) {
	accounts, _ := newAccountStore(t)
	_, err := accounts.Register(validRegistration())
	require.NoError(t, err)

	u, err := accounts.Authenticate("jane_doe", "Passw0rdX")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", u.Email)

	u, err = accounts.Authenticate("jane@example.com", "Passw0rdX")
	require.NoError(t, err)
	require.Equal(t, "jane_doe", u.Username)

	_, err = accounts.Authenticate("jane_doe", "wrong-password")
	require.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = accounts.Authenticate("", "whatever")
	require.True(t, errors.Is(err, apperrors.ErrInvalidUserData))

	t.Run("oauth accounts cannot use passwords", func(t *testing.T) {
		oauthUser, _ := users.MockUser("google", testNow)
		require.NoError(t, accounts.Save(oauthUser))
		_, err := accounts.Authenticate(oauthUser.Username, "anything")
		require.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	})
}

func TestAccountStore_SeedDefaults(t *testing.T) {
	accounts, store := newAccountStore(t)
	require.NoError(t, accounts.SeedDefaults())

	admin, err := accounts.Authenticate("admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, admin.Role)

	_, err = accounts.Authenticate("demo", "demo123")
	require.NoError(t, err)

	// A second seed leaves existing data alone.
	require.NoError(t, store.Set(users.KeyLoginUsers, []byte(`[]`)))
	require.NoError(t, accounts.SeedDefaults())
	list, err := accounts.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestAccountStore_SaveFindUpdateDelete(t *testing.T) {
	accounts, _ := newAccountStore(t)
	u, _ := users.MockUser("github", testNow)

	_, found, err := accounts.FindByID(u.ID)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, accounts.Save(u))
	got, found, err := accounts.FindByID(u.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, u, got)

	updated, err := accounts.Update(u.ID, users.ProfileUpdate{
		Name:       utils.Ptr("Octo Cat"),
		Bio:        utils.Ptr("ships code"),
		Newsletter: utils.Ptr(true),
	})
	require.NoError(t, err)
	require.Equal(t, "Octo Cat", updated.Name)
	require.Equal(t, "ships code", updated.Bio)
	require.Equal(t, u.Email, updated.Email)
	require.True(t, updated.Newsletter)

	_, err = accounts.Update("missing", users.ProfileUpdate{})
	require.True(t, errors.Is(err, apperrors.ErrUserNotFound))

	require.NoError(t, accounts.Delete(u.ID))
	_, found, _ = accounts.FindByID(u.ID)
	require.False(t, found)
	require.True(t, errors.Is(accounts.Delete(u.ID), apperrors.ErrUserNotFound))
}

func TestAccountStore_SaveKeepsPasswordHash(t *testing.T) {
	accounts, _ := newAccountStore(t)
	u, err := accounts.Register(validRegistration())
	require.NoError(t, err)

	u.Name = "Jane"
	require.NoError(t, accounts.Save(u))

	_, err = accounts.Authenticate("jane_doe", "Passw0rdX")
	require.NoError(t, err)
}

func TestAccountStore_DeleteSeededUser(t *testing.T) {
	accounts, _ := newAccountStore(t)
	require.NoError(t, accounts.SeedDefaults())

	require.NoError(t, accounts.Delete("local_demo"))
	_, found, err := accounts.FindByID("local_demo")
	require.NoError(t, err)
	require.False(t, found)
}

func TestAccountStore_RememberedUsername(t *testing.T) {
	accounts, _ := newAccountStore(t)

	_, ok, err := accounts.RememberedUsername()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, accounts.RememberUsername("admin"))
	name, ok, err := accounts.RememberedUsername()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "admin", name)

	require.NoError(t, accounts.ForgetUsername())
	_, ok, _ = accounts.RememberedUsername()
	require.False(t, ok)
}

func TestAccountStore_ClearAll(t *testing.T) {
	accounts, _ := newAccountStore(t)
	require.NoError(t, accounts.SeedDefaults())
	require.NoError(t, accounts.RememberUsername("admin"))

	require.NoError(t, accounts.ClearAll())
	list, err := accounts.List()
	require.NoError(t, err)
	require.Empty(t, list)
	_, ok, _ := accounts.RememberedUsername()
	require.False(t, ok)
}
