// Package state creates the opaque correlation tokens that tie an
// authorization request to its callback.
package state

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/jrsteele09/go-social-login/providers"
)

const (
	randomBytes = 16
	seedLength  = 13
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Action tags an attempt as a login or a signup.
type Action string

const (
	ActionLogin  Action = "login"
	ActionSignup Action = "signup"
)

func (a Action) Valid() bool {
	return a == ActionLogin || a == ActionSignup
}

// Generator produces state tokens of the form <seed>_<action>_<millis>_<random>.
// The layout carries no security meaning; only the random suffix makes the
// token unguessable.
type Generator struct {
	nowTime func() time.Time
}

type GeneratorOption func(*Generator)

// WithNowTime sets the clock used for the time component (primarily for testing).
func WithNowTime(nowFunc func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.nowTime = nowFunc
	}
}

func NewGenerator(options ...GeneratorOption) *Generator {
	g := &Generator{nowTime: time.Now}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Generate returns a fresh token for one attempt against cfg.
func (g *Generator) Generate(cfg providers.Config, action Action) (string, error) {
	if !action.Valid() {
		return "", fmt.Errorf("[Generate] invalid action %q", action)
	}
	seed := cfg.StateSeed
	if seed == "" {
		seed = cfg.Name + "_auth"
	}

	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[Generate] random: %w", err)
	}
	return fmt.Sprintf("%s_%s_%d_%s", seed, action, g.nowTime().UnixMilli(), base64.RawURLEncoding.EncodeToString(b)), nil
}

// NewSeed returns a provider-scoped seed such as "google_auth_k3j9x0a1b2c3d".
// It matches providers.SeedFunc.
func NewSeed(provider string) (string, error) {
	out := make([]byte, seedLength)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("[NewSeed] random: %w", err)
		}
		out[i] = base36[n.Int64()]
	}
	return provider + "_auth_" + string(out), nil
}

var _ providers.SeedFunc = NewSeed
