package oauthflow_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-login/consent"
	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/internal/metrics"
	"github.com/jrsteele09/go-social-login/oauthflow"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/server"
	"github.com/jrsteele09/go-social-login/server/mockusers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/state"
	"github.com/jrsteele09/go-social-login/storage/memory"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

type serverConfig struct {
	config.EnvVars
	config.Cors
	config.OAuth
}

func newMockProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := serverConfig{
		EnvVars: config.EnvVars{Env: "TEST"},
		Cors:    config.Cors{Origins: []string{"*"}},
		OAuth:   config.OAuth{GoogleClientID: "YOUR_GOOGLE_CLIENT_ID"},
	}
	s, err := server.New(cfg, mockusers.NewInMemoryRepo())
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

// manualSurface opens windows that never deliver on their own.
type manualSurface struct {
	opened  chan consent.Request
	windows chan *consent.BasicWindow
}

func newManualSurface() *manualSurface {
	return &manualSurface{
		opened:  make(chan consent.Request, 8),
		windows: make(chan *consent.BasicWindow, 8),
	}
}

func (m *manualSurface) Open(_ context.Context, req consent.Request, _ consent.DeliverFunc) (consent.Window, error) {
	w := consent.NewWindow()
	m.opened <- req
	m.windows <- w
	return w, nil
}

func (m *manualSurface) nextRequest(t *testing.T) consent.Request {
	t.Helper()
	select {
	case req := <-m.opened:
		return req
	case <-time.After(waitTimeout):
		t.Fatal("consent surface was never opened")
	}
	return consent.Request{}
}

type testFixture struct {
	srv      *httptest.Server
	registry *providers.Registry
	sessions *sessions.Store
	accounts *users.AccountStore
	reg      *prometheus.Registry
	ctrl     *oauthflow.Controller
}

func setupTestFixture(t *testing.T, opts ...oauthflow.ControllerOption) *testFixture {
	t.Helper()
	f := &testFixture{srv: newMockProviderServer(t)}

	var err error
	f.registry, err = providers.NewRegistry(providers.Defaults("http://localhost:5173"),
		providers.WithMockBaseURL(f.srv.URL),
		providers.WithSeedFunc(state.NewSeed),
	)
	require.NoError(t, err)

	f.sessions, err = sessions.NewStore(memory.New(0))
	require.NoError(t, err)
	f.accounts = users.NewAccountStore(memory.New(0))

	f.reg = prometheus.NewRegistry()
	m, err := metrics.New(f.reg)
	require.NoError(t, err)

	options := append([]oauthflow.ControllerOption{
		oauthflow.WithMetrics(m),
		oauthflow.WithConsentSurface(consent.NewMockProvider(consent.WithConsentDelay(10 * time.Millisecond))),
	}, opts...)
	f.ctrl, err = oauthflow.NewController(oauthflow.Deps{
		Providers: f.registry,
		Sessions:  f.sessions,
		Accounts:  f.accounts,
	}, options...)
	require.NoError(t, err)
	return f
}

func wait(t *testing.T, p *oauthflow.Pending) (oauthflow.Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	res, err := p.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "attempt never resolved")
	return res, err
}

func requireKind(t *testing.T, err error, kind oauthflow.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, oauthflow.KindOf(err), "error: %v", err)
}
