package consent_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-login/consent"
	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/server"
	"github.com/jrsteele09/go-social-login/server/mockusers"
	"github.com/stretchr/testify/require"
)

type serverConfig struct {
	config.EnvVars
	config.Cors
	config.OAuth
}

func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := server.New(serverConfig{
		EnvVars: config.EnvVars{Env: "TEST"},
		OAuth:   config.OAuth{GoogleClientID: "YOUR_GOOGLE_CLIENT_ID"},
	}, mockusers.NewInMemoryRepo())
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func authURL(base, provider, clientID, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", base+"/oauth/"+provider+"/callback")
	q.Set("response_type", "code")
	q.Set("state", state)
	return base + "/oauth/" + provider + "/authorize?" + q.Encode()
}

func collect() (consent.DeliverFunc, <-chan consent.Message) {
	ch := make(chan consent.Message, 1)
	return func(m consent.Message) error {
		ch <- m
		return nil
	}, ch
}

func receive(t *testing.T, ch <-chan consent.Message) consent.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
	return consent.Message{}
}

var fixedNow = time.UnixMilli(1709294400000)

func TestMockProvider_Approves(t *testing.T) {
	srv := newMockServer(t)
	surface := consent.NewMockProvider(
		consent.WithConsentDelay(time.Millisecond),
		consent.WithNowTime(func() time.Time { return fixedNow }),
	)
	deliver, ch := collect()

	win, err := surface.Open(context.Background(), consent.Request{
		Provider: "github",
		AuthURL:  authURL(srv.URL, "github", "any", "state-1"),
		State:    "state-1",
	}, deliver)
	require.NoError(t, err)

	msg := receive(t, ch)
	require.Equal(t, consent.Message{Provider: "github", Code: "github-auth-code-1709294400000", State: "state-1"}, msg)

	select {
	case <-win.Closed():
	case <-time.After(5 * time.Second):
		t.Fatal("window not closed after delivery")
	}
}

func TestMockProvider_Denies(t *testing.T) {
	srv := newMockServer(t)
	surface := consent.NewMockProvider(consent.WithConsentDelay(time.Millisecond), consent.Deny("access_denied"))
	deliver, ch := collect()

	_, err := surface.Open(context.Background(), consent.Request{
		Provider: "google",
		AuthURL:  authURL(srv.URL, "google", "YOUR_GOOGLE_CLIENT_ID", "s"),
		State:    "s",
	}, deliver)
	require.NoError(t, err)

	msg := receive(t, ch)
	require.Equal(t, "access_denied", msg.Error)
	require.Equal(t, "s", msg.State)
	require.Empty(t, msg.Code)
}

func TestMockProvider_AuthorizeRejected(t *testing.T) {
	srv := newMockServer(t)
	surface := consent.NewMockProvider(consent.WithConsentDelay(time.Millisecond))
	deliver, ch := collect()

	_, err := surface.Open(context.Background(), consent.Request{
		Provider: "google",
		AuthURL:  authURL(srv.URL, "google", "wrong-client", "s"),
		State:    "s",
	}, deliver)
	require.NoError(t, err)

	msg := receive(t, ch)
	require.Equal(t, "Invalid client_id", msg.Error)
}

func TestMockProvider_ClosedBeforeConsent(t *testing.T) {
	srv := newMockServer(t)
	surface := consent.NewMockProvider(consent.WithConsentDelay(time.Hour))
	deliver, ch := collect()

	win, err := surface.Open(context.Background(), consent.Request{
		Provider: "github",
		AuthURL:  authURL(srv.URL, "github", "any", "s"),
		State:    "s",
	}, deliver)
	require.NoError(t, err)
	win.Close()

	select {
	case m := <-ch:
		t.Fatalf("unexpected delivery %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMockProvider_RequiresRedirect(t *testing.T) {
	_, err := consent.NewMockProvider().Open(context.Background(), consent.Request{AuthURL: "http://localhost/authorize"}, func(consent.Message) error { return nil })
	require.Error(t, err)
}

func TestBlocked(t *testing.T) {
	_, err := consent.Blocked{}.Open(context.Background(), consent.Request{}, nil)
	require.ErrorIs(t, err, consent.ErrPopupBlocked)
}

func TestBasicWindow_CloseTwice(t *testing.T) {
	w := consent.NewWindow()
	w.Close()
	w.Close()
	<-w.Closed()
}
