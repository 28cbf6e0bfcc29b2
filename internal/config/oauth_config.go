package config

import "time"

type OAuthConfig interface {
	GetConsentTimeout() time.Duration
	GetProviderBaseURL() string
	GetProvidersFile() string
	GetClientCredentials(provider string) (clientID, clientSecret string)
}

type OAuth struct {
	ConsentTimeout     time.Duration `env:"CONSENT_TIMEOUT" envDefault:"5m"`
	ProviderBaseURL    string        `env:"PROVIDER_BASE_URL"`
	ProvidersFile      string        `env:"PROVIDERS_FILE"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID" envDefault:"YOUR_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET" envDefault:"YOUR_GOOGLE_CLIENT_SECRET"`
	GithubClientID     string        `env:"GITHUB_CLIENT_ID" envDefault:"YOUR_GITHUB_CLIENT_ID"`
	GithubClientSecret string        `env:"GITHUB_CLIENT_SECRET" envDefault:"YOUR_GITHUB_CLIENT_SECRET"`
}

var _ OAuthConfig = OAuth{}

// GetConsentTimeout is how long an attempt may wait for the consent surface.
func (o OAuth) GetConsentTimeout() time.Duration {
	if o.ConsentTimeout <= 0 {
		return 5 * time.Minute
	}
	return o.ConsentTimeout
}

// GetProviderBaseURL points every provider endpoint at a mock responder when set.
func (o OAuth) GetProviderBaseURL() string {
	return o.ProviderBaseURL
}

func (o OAuth) GetProvidersFile() string {
	return o.ProvidersFile
}

func (o OAuth) GetClientCredentials(provider string) (string, string) {
	switch provider {
	case "google":
		return o.GoogleClientID, o.GoogleClientSecret
	case "github":
		return o.GithubClientID, o.GithubClientSecret
	}
	return "", ""
}
