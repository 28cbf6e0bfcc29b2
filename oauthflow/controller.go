// Package oauthflow runs OAuth login and signup attempts: it issues the state
// token, opens the consent surface, validates the callback, exchanges the code,
// fetches and normalizes the profile and records the outcome in the session.
package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-social-login/consent"
	"github.com/jrsteele09/go-social-login/internal/metrics"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/state"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConsentTimeout = 5 * time.Minute
	DefaultMockDelay      = time.Second

	unknownProviderLabel = "unknown"
)

// CallbackMessage is the inbound callback routed to an attempt by its state token.
type CallbackMessage = consent.Message

// ProviderLookup resolves provider configurations by name.
type ProviderLookup interface {
	Get(name string) (providers.Config, error)
}

// SessionStore is the per-tab state the controller writes to.
type SessionStore interface {
	SetPendingFlow(state, action string, createdAt time.Time) error
	PendingFlow() (sessions.PendingFlow, bool, error)
	ClearPendingFlowIf(state string) (bool, error)
	SetToken(provider string, rec sessions.TokenRecord) error
	SetCurrentUser(u users.CanonicalUser) error
}

// AccountRepo is the durable list of known accounts.
type AccountRepo interface {
	FindByID(id string) (users.CanonicalUser, bool, error)
	Save(u users.CanonicalUser) error
}

// Deps are the collaborators every controller needs.
type Deps struct {
	Providers ProviderLookup
	Sessions  SessionStore
	Accounts  AccountRepo
}

// Controller starts and tracks OAuth attempts for one tab.
type Controller struct {
	providers ProviderLookup
	sessions  SessionStore
	accounts  AccountRepo

	generator      *state.Generator
	surface        consent.Surface
	httpClient     *http.Client
	mockMode       bool
	mockDelay      time.Duration
	consentTimeout time.Duration
	nowTime        func() time.Time
	metrics        *metrics.Metrics

	mu        sync.Mutex
	attempts  map[string]*Pending // Routing table, keyed by state token
	verifiers map[string]*oidc.IDTokenVerifier
}

type ControllerOption func(*Controller)

// WithMockMode makes every attempt resolve from fixtures without contacting a provider.
func WithMockMode(enabled bool) ControllerOption {
	return func(c *Controller) { c.mockMode = enabled }
}

// WithMockDelay sets how long a mock attempt takes.
func WithMockDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.mockDelay = d }
}

// WithConsentTimeout bounds how long an attempt waits for its callback.
func WithConsentTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.consentTimeout = d }
}

func WithConsentSurface(s consent.Surface) ControllerOption {
	return func(c *Controller) { c.surface = s }
}

// WithHTTPClient sets the client used for the token, userinfo and JWKS requests.
func WithHTTPClient(client *http.Client) ControllerOption {
	return func(c *Controller) { c.httpClient = client }
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) { c.nowTime = nowFunc }
}

func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

func WithStateGenerator(g *state.Generator) ControllerOption {
	return func(c *Controller) { c.generator = g }
}

func NewController(deps Deps, options ...ControllerOption) (*Controller, error) {
	if deps.Providers == nil {
		return nil, errors.New("[NewController] providers is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[NewController] sessions is required")
	}
	if deps.Accounts == nil {
		return nil, errors.New("[NewController] accounts is required")
	}

	c := &Controller{
		providers:      deps.Providers,
		sessions:       deps.Sessions,
		accounts:       deps.Accounts,
		httpClient:     http.DefaultClient,
		mockDelay:      DefaultMockDelay,
		consentTimeout: DefaultConsentTimeout,
		nowTime:        time.Now,
		attempts:       make(map[string]*Pending),
		verifiers:      make(map[string]*oidc.IDTokenVerifier),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.generator == nil {
		c.generator = state.NewGenerator(state.WithNowTime(c.nowTime))
	}
	if c.surface == nil && !c.mockMode {
		return nil, errors.New("[NewController] consent surface is required outside mock mode")
	}
	return c, nil
}

// Login starts a login attempt with provider.
func (c *Controller) Login(ctx context.Context, provider string) *Pending {
	return c.start(ctx, provider, state.ActionLogin)
}

// Signup starts a signup attempt with provider.
func (c *Controller) Signup(ctx context.Context, provider string) *Pending {
	return c.start(ctx, provider, state.ActionSignup)
}

func (c *Controller) start(ctx context.Context, provider string, action state.Action) *Pending {
	p := newPending(uuid.NewString(), provider, action, c.nowTime())

	cfg, err := c.providers.Get(provider)
	if err != nil {
		c.finish(p, Result{}, newError(KindUnsupportedProvider, provider, err))
		return p
	}

	if c.mockMode {
		go c.runMock(ctx, p, cfg)
		return p
	}

	token, err := c.generator.Generate(cfg, action)
	if err != nil {
		c.finish(p, Result{}, &Error{Kind: KindInternal, Provider: provider, Reason: "state token generation failed", Err: err})
		return p
	}
	p.token = token

	// A new attempt takes the slot; any older attempt still routed by its
	// token will fail state validation when its callback arrives.
	if err := c.sessions.SetPendingFlow(token, string(action), p.startedAt); err != nil {
		p.token = ""
		c.finish(p, Result{}, &Error{Kind: KindInternal, Provider: provider, Reason: "session store unavailable", Err: err})
		return p
	}
	c.mu.Lock()
	c.attempts[token] = p
	c.mu.Unlock()

	authURL := cfg.OAuth2Config().AuthCodeURL(token)
	log.Info().Str("attempt", p.id).Str("provider", provider).Str("action", string(action)).Msg("oauth attempt started")

	go c.run(ctx, p, cfg, authURL)
	return p
}

func (c *Controller) run(ctx context.Context, p *Pending, cfg providers.Config, authURL string) {
	win, err := c.surface.Open(ctx, consent.Request{Provider: cfg.Name, AuthURL: authURL, State: p.token}, c.Deliver)
	if err != nil {
		if errors.Is(err, consent.ErrPopupBlocked) {
			c.fail(p, newError(KindPopupBlocked, cfg.Name, err))
		} else {
			c.fail(p, &Error{Kind: KindProviderDenied, Provider: cfg.Name, Reason: "consent window failed to open", Err: err})
		}
		return
	}
	defer win.Close()
	p.setState(StateAwaitingConsent)

	timer := time.NewTimer(c.consentTimeout)
	defer timer.Stop()

	select {
	case msg := <-p.inbox:
		c.handleMessage(ctx, p, cfg, msg)
	case <-win.Closed():
		// The surface may close right after delivering.
		select {
		case msg := <-p.inbox:
			c.handleMessage(ctx, p, cfg, msg)
		default:
			c.fail(p, &Error{Kind: KindProviderDenied, Provider: cfg.Name, Reason: "consent window closed"})
		}
	case <-timer.C:
		c.fail(p, errorf(KindTimeout, cfg.Name, "no callback within %s", c.consentTimeout))
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.fail(p, newError(KindTimeout, cfg.Name, ctx.Err()))
		} else {
			c.fail(p, &Error{Kind: KindProviderDenied, Provider: cfg.Name, Reason: "cancelled", Err: ctx.Err()})
		}
	}
}

// Deliver routes a callback to the attempt that issued its state. Messages
// whose state matches no attempt are dropped with ErrInvalidState.
func (c *Controller) Deliver(msg CallbackMessage) error {
	c.mu.Lock()
	p, ok := c.attempts[msg.State]
	c.mu.Unlock()
	if !ok {
		log.Debug().Str("provider", msg.Provider).Msg("callback for unknown attempt ignored")
		return errorf(KindInvalidState, msg.Provider, "no attempt for state")
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		return errorf(KindInvalidState, msg.Provider, "attempt already received a callback")
	}
}

func (c *Controller) handleMessage(ctx context.Context, p *Pending, cfg providers.Config, msg CallbackMessage) {
	if msg.Provider != "" && msg.Provider != cfg.Name {
		c.fail(p, errorf(KindInvalidState, cfg.Name, "callback from %s", msg.Provider))
		return
	}
	live, ok, err := c.sessions.PendingFlow()
	if err != nil {
		c.fail(p, newError(KindInvalidState, cfg.Name, err))
		return
	}
	if !ok || live.State != p.token {
		c.fail(p, errorf(KindInvalidState, cfg.Name, "state does not match the pending attempt"))
		return
	}
	if err := c.checkSlotAge(cfg.Name, live); err != nil {
		c.fail(p, err)
		return
	}
	if msg.Error != "" {
		var detail error
		if msg.ErrorDescription != "" {
			detail = errors.New(msg.ErrorDescription)
		}
		c.fail(p, &Error{Kind: KindProviderDenied, Provider: cfg.Name, Reason: msg.Error, Err: detail})
		return
	}

	res, err := c.complete(ctx, p, cfg, p.action, msg.Code, p.token)
	if err != nil {
		c.fail(p, err)
		return
	}
	c.finish(p, res, nil)
}

// HandleCallback processes a provider redirect directly. state must be the
// live slot's token. When an attempt is waiting on that token the callback is
// routed to it and its outcome is returned.
func (c *Controller) HandleCallback(ctx context.Context, provider, code, stateToken string) (Result, error) {
	cfg, err := c.providers.Get(provider)
	if err != nil {
		return Result{}, newError(KindUnsupportedProvider, provider, err)
	}

	c.mu.Lock()
	p, waiting := c.attempts[stateToken]
	c.mu.Unlock()
	if waiting {
		if err := c.Deliver(CallbackMessage{Provider: provider, Code: code, State: stateToken}); err != nil {
			return Result{}, err
		}
		return p.Wait(ctx)
	}

	live, ok, err := c.sessions.PendingFlow()
	if err != nil {
		return Result{}, newError(KindInvalidState, provider, err)
	}
	if !ok || stateToken == "" || live.State != stateToken {
		return Result{}, errorf(KindInvalidState, provider, "state does not match the pending attempt")
	}
	if err := c.checkSlotAge(provider, live); err != nil {
		c.clearSlot(stateToken)
		c.observe(provider, state.Action(live.Action), live.CreatedAt, err)
		return Result{}, err
	}
	action := state.Action(live.Action)
	if !action.Valid() {
		action = state.ActionLogin
	}

	started := c.nowTime()
	res, err := c.complete(ctx, nil, cfg, action, code, stateToken)
	c.observe(provider, action, started, err)
	if err != nil {
		c.clearSlot(stateToken)
		return Result{}, err
	}
	return res, nil
}

// checkSlotAge rejects a slot older than the consent timeout, whichever
// controller or process issued it.
func (c *Controller) checkSlotAge(provider string, live sessions.PendingFlow) error {
	if live.CreatedAt.IsZero() {
		return nil
	}
	if age := c.nowTime().Sub(live.CreatedAt); age > c.consentTimeout {
		return errorf(KindTimeout, provider, "attempt started %s ago", age.Round(time.Second))
	}
	return nil
}

// complete runs exchange, profile fetch, account checks and session writes.
func (c *Controller) complete(ctx context.Context, p *Pending, cfg providers.Config, action state.Action, code, stateToken string) (Result, error) {
	if code == "" {
		return Result{}, errorf(KindTokenExchangeFailed, cfg.Name, "no authorization code")
	}
	ctx = c.clientContext(ctx)

	p.setState(StateExchangingCode)
	tok, err := c.exchange(ctx, cfg, code)
	if err != nil {
		return Result{}, newError(KindTokenExchangeFailed, cfg.Name, err)
	}

	p.setState(StateFetchingProfile)
	user, err := c.fetchUser(ctx, cfg, tok)
	if err != nil {
		return Result{}, newError(KindProfileFetchFailed, cfg.Name, err)
	}

	user, existing, err := c.reconcile(cfg.Name, action, user, false)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		User:     user,
		Token:    tokenRecord(cfg.Name, tok, c.nowTime()),
		Provider: cfg.Name,
		Action:   action,
		Existing: existing,
	}
	if err := c.commit(res); err != nil {
		return Result{}, err
	}
	c.clearSlot(stateToken)
	return res, nil
}

// reconcile applies the account rules: a signup must be new, a login must
// already exist unless createOnLogin is set.
func (c *Controller) reconcile(provider string, action state.Action, user users.CanonicalUser, createOnLogin bool) (users.CanonicalUser, bool, error) {
	existing, found, err := c.accounts.FindByID(user.ID)
	if err != nil {
		return users.CanonicalUser{}, false, newError(KindInternal, provider, err)
	}
	switch {
	case action == state.ActionSignup && found:
		return users.CanonicalUser{}, false, errorf(KindAccountAlreadyExists, provider, "account %s already exists", user.ID)
	case action == state.ActionLogin && found:
		return existing, true, nil
	case action == state.ActionLogin && !createOnLogin:
		return users.CanonicalUser{}, false, errorf(KindAccountNotFound, provider, "no account for %s", user.ID)
	}
	if err := c.accounts.Save(user); err != nil {
		return users.CanonicalUser{}, false, newError(KindInternal, provider, fmt.Errorf("save account: %w", err))
	}
	return user, false, nil
}

func (c *Controller) commit(res Result) error {
	if err := c.sessions.SetToken(res.Provider, res.Token); err != nil {
		return newError(KindInternal, res.Provider, fmt.Errorf("store token: %w", err))
	}
	if err := c.sessions.SetCurrentUser(res.User); err != nil {
		return newError(KindInternal, res.Provider, fmt.Errorf("store user: %w", err))
	}
	return nil
}

func (c *Controller) clearSlot(stateToken string) {
	if stateToken == "" {
		return
	}
	if _, err := c.sessions.ClearPendingFlowIf(stateToken); err != nil {
		log.Err(err).Msg("failed to clear pending oauth slot")
	}
}

func (c *Controller) fail(p *Pending, err error) {
	c.finish(p, Result{}, err)
}

// finish resolves p, forgets its routing entry and releases its slot on failure.
func (c *Controller) finish(p *Pending, res Result, err error) {
	p.resolve(res, err, func() {
		if p.token != "" {
			c.mu.Lock()
			if c.attempts[p.token] == p {
				delete(c.attempts, p.token)
			}
			c.mu.Unlock()
			if err != nil {
				c.clearSlot(p.token)
			}
		}
		c.observe(p.provider, p.action, p.startedAt, err)

		logger := log.With().Str("attempt", p.id).Str("provider", p.provider).Str("action", string(p.action)).Logger()
		if err != nil {
			logger.Warn().Str("kind", string(KindOf(err))).Err(err).Msg("oauth attempt failed")
			return
		}
		logger.Info().Str("user", res.User.ID).Bool("existing", res.Existing).Msg("oauth attempt complete")
	})
}

func (c *Controller) observe(provider string, action state.Action, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = string(KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	if _, err := c.providers.Get(provider); err != nil {
		provider = unknownProviderLabel
	}
	c.metrics.ObserveFlow(provider, string(action), result, c.nowTime().Sub(started))
}
