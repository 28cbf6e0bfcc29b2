package oauthflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-login/oauthflow"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/storage/memory"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/stretchr/testify/require"
)

const mockDelay = 50 * time.Millisecond

func setupMockController(t *testing.T) (*oauthflow.Controller, *sessions.Store, *users.AccountStore) {
	t.Helper()
	registry, err := providers.NewRegistry(providers.Defaults("http://localhost:5173"))
	require.NoError(t, err)
	store, err := sessions.NewStore(memory.New(0))
	require.NoError(t, err)
	accounts := users.NewAccountStore(memory.New(0))

	ctrl, err := oauthflow.NewController(oauthflow.Deps{
		Providers: registry,
		Sessions:  store,
		Accounts:  accounts,
	}, oauthflow.WithMockMode(true), oauthflow.WithMockDelay(mockDelay))
	require.NoError(t, err)
	return ctrl, store, accounts
}

func TestMockMode_Login(t *testing.T) {
	ctrl, store, accounts := setupMockController(t)

	for _, tc := range []struct {
		provider string
		id       string
		email    string
		name     string
	}{
		{"google", "google_123", "user@gmail.com", "Google User"},
		{"github", "github_456", "user@github.com", "GitHub User"},
	} {
		t.Run(tc.provider, func(t *testing.T) {
			start := time.Now()
			p := ctrl.Login(context.Background(), tc.provider)
			require.Empty(t, p.Token())

			res, err := wait(t, p)
			require.NoError(t, err)
			require.GreaterOrEqual(t, time.Since(start), mockDelay)

			require.Equal(t, tc.id, res.User.ID)
			require.Equal(t, tc.email, res.User.Email)
			require.Equal(t, tc.name, res.User.Name)
			require.Equal(t, tc.provider, res.User.Provider)
			require.False(t, res.Existing, "mock login creates the account")

			require.Equal(t, "mock_"+tc.provider+"_token", res.Token.AccessToken)
			require.Equal(t, "Bearer", res.Token.TokenType)
			require.Equal(t, 3600, res.Token.ExpiresIn)

			current, ok, err := store.CurrentUser()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tc.id, current.ID)

			_, found, err := accounts.FindByID(tc.id)
			require.NoError(t, err)
			require.True(t, found)
		})
	}
}

func TestMockMode_NotBeforeDelay(t *testing.T) {
	ctrl, _, _ := setupMockController(t)

	p := ctrl.Signup(context.Background(), "google")
	select {
	case <-p.Done():
		t.Fatal("mock attempt resolved before the delay")
	case <-time.After(mockDelay / 2):
	}
	_, err := wait(t, p)
	require.NoError(t, err)
}

func TestMockMode_SignupVersusLogin(t *testing.T) {
	ctrl, _, _ := setupMockController(t)
	ctx := context.Background()

	res, err := wait(t, ctrl.Signup(ctx, "github"))
	require.NoError(t, err)
	require.False(t, res.Existing)

	_, err = wait(t, ctrl.Signup(ctx, "github"))
	requireKind(t, err, oauthflow.KindAccountAlreadyExists)

	res, err = wait(t, ctrl.Login(ctx, "github"))
	require.NoError(t, err)
	require.True(t, res.Existing)
}

func TestMockMode_UnsupportedProvider(t *testing.T) {
	ctrl, _, _ := setupMockController(t)

	_, err := wait(t, ctrl.Login(context.Background(), "facebook"))
	requireKind(t, err, oauthflow.KindUnsupportedProvider)
}

func TestMockMode_Cancelled(t *testing.T) {
	ctrl, store, _ := setupMockController(t)

	ctx, cancel := context.WithCancel(context.Background())
	p := ctrl.Login(ctx, "google")
	cancel()

	_, err := wait(t, p)
	requireKind(t, err, oauthflow.KindProviderDenied)
	_, ok, _ := store.CurrentUser()
	require.False(t, ok)
}
