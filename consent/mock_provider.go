package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/rs/zerolog/log"
)

const defaultConsentDelay = 100 * time.Millisecond

// MockProvider plays the user in front of the mock responder: it loads the
// authorize endpoint, waits, approves (or denies), follows the redirect to
// the callback echo endpoint and delivers what came back.
type MockProvider struct {
	client       *http.Client
	consentDelay time.Duration
	denyReason   string
	nowTime      func() time.Time
}

type MockProviderOption func(*MockProvider)

func WithHTTPClient(c *http.Client) MockProviderOption {
	return func(m *MockProvider) { m.client = c }
}

// WithConsentDelay sets how long the simulated user takes to decide.
func WithConsentDelay(d time.Duration) MockProviderOption {
	return func(m *MockProvider) { m.consentDelay = d }
}

// Deny makes the simulated user refuse; reason is sent as the error parameter.
func Deny(reason string) MockProviderOption {
	return func(m *MockProvider) { m.denyReason = reason }
}

// WithNowTime sets the clock used to mint authorization codes (primarily for testing).
func WithNowTime(nowFunc func() time.Time) MockProviderOption {
	return func(m *MockProvider) { m.nowTime = nowFunc }
}

func NewMockProvider(options ...MockProviderOption) *MockProvider {
	m := &MockProvider{
		client:       http.DefaultClient,
		consentDelay: defaultConsentDelay,
		nowTime:      time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Open returns at once; the consent exchange runs until it delivers or the window closes.
func (m *MockProvider) Open(ctx context.Context, req Request, deliver DeliverFunc) (Window, error) {
	authURL, err := url.Parse(req.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("[Open] auth url: %w", err)
	}
	redirect := authURL.Query().Get("redirect_uri")
	if redirect == "" {
		return nil, fmt.Errorf("[Open] auth url has no redirect_uri")
	}

	win := NewWindow()
	go m.run(ctx, win, req, redirect, deliver)
	return win, nil
}

func (m *MockProvider) run(ctx context.Context, win *BasicWindow, req Request, redirect string, deliver DeliverFunc) {
	defer win.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-win.Closed():
			cancel()
		case <-ctx.Done():
		}
	}()

	logger := log.With().Str("provider", req.Provider).Logger()

	var authorize oauth2.AuthorizeResponse
	if status, errBody, err := m.getJSON(ctx, req.AuthURL, &authorize); err != nil {
		logger.Err(err).Msg("authorize request failed")
		return
	} else if status != http.StatusOK {
		m.send(deliver, Message{Provider: req.Provider, State: req.State, Error: errBody.Error})
		return
	}
	logger.Debug().Str("message", authorize.Message).Msg("consent screen shown")

	select {
	case <-time.After(m.consentDelay):
	case <-ctx.Done():
		return
	}

	q := url.Values{}
	q.Set("state", req.State)
	if m.denyReason != "" {
		q.Set("error", m.denyReason)
	} else {
		q.Set("code", fmt.Sprintf("%s-auth-code-%d", req.Provider, m.nowTime().UnixMilli()))
	}

	var echoed oauth2.CallbackResponse
	status, errBody, err := m.getJSON(ctx, redirect+"?"+q.Encode(), &echoed)
	if err != nil {
		logger.Err(err).Msg("callback request failed")
		return
	}
	if status != http.StatusOK {
		m.send(deliver, Message{Provider: req.Provider, State: req.State, Error: errBody.Error})
		return
	}
	m.send(deliver, Message{Provider: echoed.Provider, Code: echoed.Code, State: echoed.State})
}

func (m *MockProvider) send(deliver DeliverFunc, msg Message) {
	if err := deliver(msg); err != nil {
		log.Debug().Err(err).Str("provider", msg.Provider).Msg("callback not accepted")
	}
}

// getJSON decodes a 200 body into v and any other body into the error response.
func (m *MockProvider) getJSON(ctx context.Context, rawURL string, v any) (int, oauth2.ErrorResponse, error) {
	var errBody oauth2.ErrorResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, errBody, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, errBody, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, errBody, err
	}
	if resp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(body, &errBody); err != nil || errBody.Error == "" {
			errBody.Error = resp.Status
		}
		return resp.StatusCode, errBody, nil
	}
	return resp.StatusCode, errBody, json.Unmarshal(body, v)
}
