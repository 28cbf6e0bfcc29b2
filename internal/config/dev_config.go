package config

import "time"

type DevConfig interface {
	GetMockOAuth() bool
	GetMockDelay() time.Duration
}

// Dev holds the development-mode switches. With mock OAuth enabled the flow
// never leaves the process.
type Dev struct {
	MockOAuth bool          `env:"MOCK_OAUTH" envDefault:"true"`
	MockDelay time.Duration `env:"MOCK_DELAY" envDefault:"1s"`
}

var _ DevConfig = Dev{}

func (d Dev) GetMockOAuth() bool {
	return d.MockOAuth
}

func (d Dev) GetMockDelay() time.Duration {
	return d.MockDelay
}
