package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/server"
	"github.com/jrsteele09/go-social-login/server/keys"
	"github.com/jrsteele09/go-social-login/server/mockusers"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testConfig struct {
	config.EnvVars
	config.Cors
	config.OAuth
}

type testFixture struct {
	srv    *httptest.Server
	signer *keys.KeyPairSigner
	users  *mockusers.InMemoryRepo
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	signer, err := keys.NewGeneratedSigner("test-key")
	require.NoError(t, err)
	users := mockusers.NewInMemoryRepo()

	cfg := testConfig{
		EnvVars: config.EnvVars{Env: "TEST"},
		Cors:    config.Cors{Origins: []string{"*"}},
		OAuth: config.OAuth{
			GoogleClientID:     "YOUR_GOOGLE_CLIENT_ID",
			GoogleClientSecret: "YOUR_GOOGLE_CLIENT_SECRET",
		},
	}
	s, err := server.New(cfg, users, server.WithSigner(signer), server.WithNowTime(func() time.Time { return testNow }))
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testFixture{srv: srv, signer: signer, users: users}
}

func (f *testFixture) get(t *testing.T, path string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func (f *testFixture) postForm(t *testing.T, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(f.srv.URL+path, form)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return out
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", body["status"])
	require.Equal(t, "Mock OAuth Server is running", body["message"])
	require.Equal(t, []any{"google", "github"}, body["providers"])
	require.Equal(t, "2024-03-01T12:00:00.000Z", body["timestamp"])
}

func TestAuthorize(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("google checks client_id", func(t *testing.T) {
		resp, body := f.get(t, "/oauth/google/authorize?client_id=wrong", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Invalid client_id", body["error"])
	})

	t.Run("google accepted", func(t *testing.T) {
		resp, body := f.get(t, "/oauth/google/authorize?client_id=YOUR_GOOGLE_CLIENT_ID&state=s1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Authorization initiated", body["message"])
		require.Contains(t, body["authUrl"], "https://accounts.google.com/")
		require.Contains(t, body["authUrl"], "state=s1")
	})

	t.Run("github accepts any client", func(t *testing.T) {
		resp, body := f.get(t, "/oauth/github/authorize?client_id=anything", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Authorization initiated", body["message"])
	})

	t.Run("unknown provider", func(t *testing.T) {
		resp, _ := f.get(t, "/oauth/twitter/authorize", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestToken(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("wrong grant type", func(t *testing.T) {
		resp, body := f.postForm(t, "/oauth/google/token", url.Values{"grant_type": {"client_credentials"}})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_grant", body["error"])

		resp, body = f.postForm(t, "/oauth/github/token", url.Values{"grant_type": {"refresh_token"}})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_grant", body["error"])
	})

	t.Run("github", func(t *testing.T) {
		resp, body := f.postForm(t, "/oauth/github/token", url.Values{
			"grant_type": {"authorization_code"},
			"code":       {"github-auth-code-1"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Content-Type"), "application/json")
		require.Equal(t, "github-token-456", body["access_token"])
		require.Equal(t, "Bearer", body["token_type"])
		require.Equal(t, float64(3600), body["expires_in"])
		require.Equal(t, "github-refresh-456", body["refresh_token"])
		require.Equal(t, "user:email read:user", body["scope"])
		require.NotContains(t, body, "id_token")
	})

	t.Run("google json body with id_token", func(t *testing.T) {
		resp, err := http.Post(f.srv.URL+"/oauth/google/token", "application/json",
			strings.NewReader(`{"grant_type":"authorization_code","code":"c","client_id":"YOUR_GOOGLE_CLIENT_ID"}`))
		require.NoError(t, err)
		body := decode(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "google-token-123", body["access_token"])
		require.Equal(t, "google-refresh-123", body["refresh_token"])

		raw, ok := body["id_token"].(string)
		require.True(t, ok)
		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(raw, claims, f.signer.GetVerificationKey, jwt.WithTimeFunc(func() time.Time { return testNow }))
		require.NoError(t, err)
		require.Equal(t, "google-user-123", claims["sub"])
		require.Equal(t, "YOUR_GOOGLE_CLIENT_ID", claims["aud"])
		require.Equal(t, f.srv.URL, claims["iss"])
		require.Equal(t, "user@gmail.com", claims["email"])
	})
}

func TestUserInfo(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
		errMsg string
		id     string
	}{
		{"google missing header", "/oauth/google/userinfo", "", http.StatusUnauthorized, "Unauthorized", ""},
		{"google malformed header", "/oauth/google/userinfo", "Token google-token-123", http.StatusUnauthorized, "Unauthorized", ""},
		{"google wrong token", "/oauth/google/userinfo", "Bearer github-token-456", http.StatusUnauthorized, "Invalid token", ""},
		{"google ok", "/oauth/google/userinfo", "Bearer google-token-123", http.StatusOK, "", "google-user-123"},
		{"github wrong token", "/oauth/github/user", "Bearer nope", http.StatusUnauthorized, "Invalid token", ""},
		{"github ok", "/oauth/github/user", "Bearer github-token-456", http.StatusOK, "", "github-user-789"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.auth != "" {
				header.Set("Authorization", tc.auth)
			}
			resp, body := f.get(t, tc.path, header)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.errMsg != "" {
				require.Equal(t, tc.errMsg, body["error"])
				return
			}
			require.Equal(t, tc.id, body["id"])
		})
	}
}

func TestCallback(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.get(t, "/oauth/github/callback?error=access_denied&state=s", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "access_denied", body["error"])

	resp, body = f.get(t, "/oauth/google/callback?state=s", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No authorization code provided", body["error"])

	resp, err := http.Get(f.srv.URL + "/oauth/google/callback?code=google-auth-code-1&state=s")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var echoed oauth2.CallbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&echoed))
	require.Equal(t, oauth2.CallbackResponse{
		Success:  true,
		Provider: "google",
		Code:     "google-auth-code-1",
		State:    "s",
		Message:  "OAuth callback received successfully",
	}, echoed)
}

func TestJWKS(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Get(f.srv.URL + "/oauth/google/jwks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks keys.JWKS
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "test-key", jwks.Keys[0].Kid)
}

func TestMockUsers(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Get(f.srv.URL + "/mock/users/github")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)
	require.Equal(t, "github-user-789", list[0]["id"])

	resp, body := f.get(t, "/mock/users/twitter", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Provider not found", body["error"])

	resp, err = http.Post(f.srv.URL+"/mock/users/twitter", "application/json", strings.NewReader(`{"email":"bird@twitter.com"}`))
	require.NoError(t, err)
	created := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "twitter", created["provider"])
	require.Equal(t, "bird@twitter.com", created["email"])
	require.True(t, strings.HasPrefix(created["id"].(string), "twitter-user-"))

	resp, _ = f.get(t, "/mock/users/twitter", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/oauth/google/token", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestMetrics(t *testing.T) {
	f := setupTestFixture(t)

	f.get(t, "/health", nil)
	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `mock_provider_http_requests_total{method="GET",route="GET /health",status="200"} 1`)
}
