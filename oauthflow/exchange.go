package oauthflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-social-login/internal/utils"
	apioauth2 "github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/users"
	"golang.org/x/oauth2"
)

const maxProfileBytes = 1 << 20

// clientContext makes x/oauth2 and go-oidc use the configured HTTP client.
func (c *Controller) clientContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oidc.ClientContext(ctx, c.httpClient)
}

// exchange trades the authorization code for a token. The client secret is
// sent from this process only.
func (c *Controller) exchange(ctx context.Context, cfg providers.Config, code string) (*oauth2.Token, error) {
	tok, err := cfg.OAuth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return tok, nil
}

// fetchUser loads the userinfo payload with the bearer token, checks any
// id_token against it and normalizes the result.
func (c *Controller) fetchUser(ctx context.Context, cfg providers.Config, tok *oauth2.Token) (users.CanonicalUser, error) {
	payload, err := c.fetchProfile(ctx, cfg, tok)
	if err != nil {
		return users.CanonicalUser{}, err
	}

	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" && cfg.VerifiesIDTokens() {
		if err := c.verifyIDToken(ctx, cfg, rawIDToken, payload); err != nil {
			return users.CanonicalUser{}, err
		}
	}

	return users.Normalize(cfg.Name, payload, c.nowTime())
}

func (c *Controller) fetchProfile(ctx context.Context, cfg providers.Config, tok *oauth2.Token) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cfg.OAuth2Config().Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e apioauth2.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("userinfo: %s: %s", resp.Status, e.Error)
		}
		return nil, fmt.Errorf("userinfo: %s", resp.Status)
	}
	return body, nil
}

// verifyIDToken checks signature, issuer, audience and expiry, and that the
// token's subject is the profile that was fetched.
func (c *Controller) verifyIDToken(ctx context.Context, cfg providers.Config, rawIDToken string, payload []byte) error {
	idToken, err := c.verifier(cfg).Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("id_token verification failed: %w", err)
	}
	subject, err := users.ProfileSubject(cfg.Name, payload)
	if err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if idToken.Subject != subject {
		return fmt.Errorf("id_token subject %q does not match profile %q", idToken.Subject, subject)
	}
	return nil
}

// verifier returns the cached verifier for a provider. The key set outlives
// any single attempt, so it is bound to a background context.
func (c *Controller) verifier(cfg providers.Config) *oidc.IDTokenVerifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.verifiers[cfg.Name]; ok {
		return v
	}
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), c.httpClient), cfg.JWKSURL)
	v := oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
		ClientID: cfg.ClientID,
		Now:      c.nowTime,
	})
	c.verifiers[cfg.Name] = v
	return v
}

// tokenRecord converts an x/oauth2 token into the stored record.
func tokenRecord(provider string, tok *oauth2.Token, now time.Time) sessions.TokenRecord {
	resp := apioauth2.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		ExpiresIn:   int(tok.ExpiresIn),
	}
	if tok.RefreshToken != "" {
		resp.RefreshToken = utils.Ptr(tok.RefreshToken)
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		resp.Scope = utils.Ptr(scope)
	}
	if v, ok := tok.Extra("expires_in").(float64); ok && resp.ExpiresIn == 0 {
		resp.ExpiresIn = int(v)
	}
	if resp.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int(tok.Expiry.Sub(now).Round(time.Second).Seconds())
	}
	return sessions.TokenRecordFromResponse(provider, resp, now)
}
