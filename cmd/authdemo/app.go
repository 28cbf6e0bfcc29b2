package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-social-login/auth"
	"github.com/jrsteele09/go-social-login/consent"
	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/internal/metrics"
	"github.com/jrsteele09/go-social-login/oauthflow"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/state"
	"github.com/jrsteele09/go-social-login/storage"
	"github.com/jrsteele09/go-social-login/storage/filestore"
	"github.com/jrsteele09/go-social-login/storage/memory"
	"github.com/jrsteele09/go-social-login/storage/redisstore"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// defaultOrigin is where the browser UI would be served; real redirect URIs hang off it.
const defaultOrigin = "http://localhost:5173"

const redisPrefix = "social-login:"

// app is the wired object graph the account and flow commands use.
type app struct {
	registry *providers.Registry
	sessions *sessions.Store
	accounts *users.AccountStore
	flows    *oauthflow.Controller
	service  *auth.Service
	closers  []func() error
}

type appOptions struct {
	denyReason string
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func newApp(cfg config.Config, opts appOptions) (*app, error) {
	a := &app{}
	fs := afero.NewOsFs()

	registry, err := newRegistry(cfg, fs)
	if err != nil {
		return nil, err
	}
	a.registry = registry

	sessionStore, err := newSessionStore(cfg, fs)
	if err != nil {
		return nil, err
	}
	durable, err := a.newDurableStore(cfg, fs)
	if err != nil {
		return nil, err
	}

	a.sessions, err = sessions.NewStore(sessionStore)
	if err != nil {
		return nil, err
	}
	a.accounts = users.NewAccountStore(durable)
	if err := a.accounts.SeedDefaults(); err != nil {
		return nil, err
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}

	flowOpts := []oauthflow.ControllerOption{
		oauthflow.WithMockMode(cfg.GetMockOAuth()),
		oauthflow.WithMockDelay(cfg.GetMockDelay()),
		oauthflow.WithConsentTimeout(cfg.GetConsentTimeout()),
		oauthflow.WithMetrics(m),
	}
	if !cfg.GetMockOAuth() {
		if cfg.GetProviderBaseURL() == "" {
			return nil, fmt.Errorf("PROVIDER_BASE_URL is required when MOCK_OAUTH=false")
		}
		surfaceOpts := []consent.MockProviderOption{consent.WithConsentDelay(cfg.GetMockDelay())}
		if opts.denyReason != "" {
			surfaceOpts = append(surfaceOpts, consent.Deny(opts.denyReason))
		}
		flowOpts = append(flowOpts, oauthflow.WithConsentSurface(consent.NewMockProvider(surfaceOpts...)))
	}

	a.flows, err = oauthflow.NewController(oauthflow.Deps{
		Providers: registry,
		Sessions:  a.sessions,
		Accounts:  a.accounts,
	}, flowOpts...)
	if err != nil {
		return nil, err
	}

	a.service, err = auth.NewService(auth.Repos{
		Accounts:  a.accounts,
		Sessions:  a.sessions,
		Flows:     a.flows,
		Providers: registry,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newRegistry(cfg config.Config, fs afero.Fs) (*providers.Registry, error) {
	opts := []providers.RegistryOption{
		providers.WithSeedFunc(state.NewSeed),
		providers.WithClientCredentials(cfg.GetClientCredentials),
	}
	if path := cfg.GetProvidersFile(); path != "" {
		overrides, err := providers.LoadFile(fs, path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, providers.WithOverrides(overrides...))
	}
	if base := cfg.GetProviderBaseURL(); base != "" {
		opts = append(opts, providers.WithMockBaseURL(base))
	}
	return providers.NewRegistry(providers.Defaults(defaultOrigin), opts...)
}

func newSessionStore(cfg config.Config, fs afero.Fs) (storage.Store, error) {
	switch cfg.GetSessionStore() {
	case "memory":
		return memory.New(cfg.GetSessionTTL()), nil
	case "file":
		return filestore.New(fs, filepath.Join(cfg.GetDataFolder(), "session.json"))
	}
	return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.GetSessionStore())
}

func (a *app) newDurableStore(cfg config.Config, fs afero.Fs) (storage.Store, error) {
	switch cfg.GetDurableStore() {
	case "file":
		return filestore.New(fs, filepath.Join(cfg.GetDataFolder(), "accounts.json"))
	case "redis":
		s := redisstore.New(cfg.GetRedisAddr(), cfg.GetRedisDB(), redisPrefix)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.GetRedisAddr(), err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	return nil, fmt.Errorf("unknown DURABLE_STORE %q", cfg.GetDurableStore())
}
