// Package providers is the static registry of supported OAuth providers.
package providers

import (
	"encoding/json"
	"strings"

	"golang.org/x/oauth2"
)

const (
	Google = "google"
	GitHub = "github"
)

// Config describes one OAuth provider. It is immutable once placed in a Registry.
type Config struct {
	Name         string `yaml:"name" validate:"required"`
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url" validate:"required,url"`
	Scope        string `yaml:"scope" validate:"required"`
	AuthURL      string `yaml:"auth_url" validate:"required,url"`
	TokenURL     string `yaml:"token_url" validate:"required,url"`
	UserInfoURL  string `yaml:"userinfo_url" validate:"required,url"`

	// OIDC verification of the token response's id_token. Both or neither.
	Issuer  string `yaml:"issuer" validate:"required_with=JWKSURL,omitempty,url"`
	JWKSURL string `yaml:"jwks_url" validate:"required_with=Issuer,omitempty,url"`

	// StateSeed prefixes every state token generated for this provider.
	StateSeed string `yaml:"-"`
}

// Scopes splits the space-delimited scope string.
func (c Config) Scopes() []string {
	return strings.Fields(c.Scope)
}

// VerifiesIDTokens reports whether id_tokens from this provider are checked.
func (c Config) VerifiesIDTokens() bool {
	return c.Issuer != "" && c.JWKSURL != ""
}

// OAuth2Config builds the x/oauth2 client configuration. Credentials travel in
// the form body, which is what the mock responder reads.
func (c Config) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// MarshalJSON omits the client secret.
func (c Config) MarshalJSON() ([]byte, error) {
	type public struct {
		Name        string `json:"name"`
		ClientID    string `json:"client_id"`
		RedirectURL string `json:"redirect_url"`
		Scope       string `json:"scope"`
		AuthURL     string `json:"auth_url"`
		TokenURL    string `json:"token_url"`
		UserInfoURL string `json:"userinfo_url"`
		Issuer      string `json:"issuer,omitempty"`
		JWKSURL     string `json:"jwks_url,omitempty"`
	}
	return json.Marshal(public{
		Name:        c.Name,
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURL,
		Scope:       c.Scope,
		AuthURL:     c.AuthURL,
		TokenURL:    c.TokenURL,
		UserInfoURL: c.UserInfoURL,
		Issuer:      c.Issuer,
		JWKSURL:     c.JWKSURL,
	})
}

// Defaults returns the built-in provider configurations. origin is the
// application origin the callbacks return to.
func Defaults(origin string) []Config {
	origin = strings.TrimRight(origin, "/")
	return []Config{
		{
			Name:         Google,
			ClientID:     "YOUR_GOOGLE_CLIENT_ID",
			ClientSecret: "YOUR_GOOGLE_CLIENT_SECRET",
			RedirectURL:  origin + "/oauth/google/callback",
			Scope:        "openid email profile",
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
			Issuer:       "https://accounts.google.com",
			JWKSURL:      "https://www.googleapis.com/oauth2/v3/certs",
		},
		{
			Name:         GitHub,
			ClientID:     "YOUR_GITHUB_CLIENT_ID",
			ClientSecret: "YOUR_GITHUB_CLIENT_SECRET",
			RedirectURL:  origin + "/oauth/github/callback",
			Scope:        "user:email read:user",
			AuthURL:      "https://github.com/login/oauth/authorize",
			TokenURL:     "https://github.com/login/oauth/access_token",
			UserInfoURL:  "https://api.github.com/user",
		},
	}
}

// MockEndpoints points a provider's endpoints at the mock responder rooted at base.
func MockEndpoints(c Config, base string) Config {
	base = strings.TrimRight(base, "/") + "/oauth/" + c.Name
	c.AuthURL = base + "/authorize"
	c.TokenURL = base + "/token"
	c.RedirectURL = base + "/callback"
	c.Issuer, c.JWKSURL = "", ""
	switch c.Name {
	case GitHub:
		c.UserInfoURL = base + "/user"
	case Google:
		c.UserInfoURL = base + "/userinfo"
		c.Issuer = strings.TrimSuffix(base, "/oauth/"+c.Name)
		c.JWKSURL = base + "/jwks"
	default:
		c.UserInfoURL = base + "/userinfo"
	}
	return c
}
