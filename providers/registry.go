package providers

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-social-login/internal/errors"
)

// ErrUnsupportedProvider is returned by Get for names that are not registered.
var ErrUnsupportedProvider = apperrors.ErrUnsupportedProvider

// SeedFunc creates the state seed for a provider name.
type SeedFunc func(provider string) (string, error)

// Registry is a read-only set of provider configurations.
type Registry struct {
	configs map[string]Config
}

// RegistryOption adjusts configs before they are frozen in the registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	seed      SeedFunc
	mockBase  string
	overrides map[string]Config
	creds     func(provider string) (string, string)
}

// WithSeedFunc sets the state seed generator. Without it configs keep their StateSeed.
func WithSeedFunc(f SeedFunc) RegistryOption {
	return func(o *registryOptions) { o.seed = f }
}

// WithMockBaseURL points every provider at the mock responder rooted at base.
func WithMockBaseURL(base string) RegistryOption {
	return func(o *registryOptions) { o.mockBase = base }
}

// WithOverrides replaces registered configs by name (e.g. from a YAML file).
func WithOverrides(configs ...Config) RegistryOption {
	return func(o *registryOptions) {
		for _, c := range configs {
			o.overrides[c.Name] = c
		}
	}
}

// WithClientCredentials replaces client id/secret where creds returns a non-empty id.
func WithClientCredentials(creds func(provider string) (clientID, clientSecret string)) RegistryOption {
	return func(o *registryOptions) { o.creds = creds }
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewRegistry validates and freezes the given configs.
func NewRegistry(configs []Config, opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{overrides: make(map[string]Config)}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{configs: make(map[string]Config, len(configs))}
	for _, c := range configs {
		r.configs[c.Name] = c
	}
	for name, c := range o.overrides {
		r.configs[name] = c
	}

	for name, c := range r.configs {
		if o.creds != nil {
			if id, secret := o.creds(name); id != "" {
				c.ClientID, c.ClientSecret = id, secret
			}
		}
		if o.mockBase != "" {
			c = MockEndpoints(c, o.mockBase)
		}
		if o.seed != nil {
			seed, err := o.seed(name)
			if err != nil {
				return nil, fmt.Errorf("[NewRegistry] seed %s: %w", name, err)
			}
			c.StateSeed = seed
		}
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("[NewRegistry] provider %s: %w: %v", name, apperrors.ErrInvalidProvider, err)
		}
		r.configs[name] = c
	}
	return r, nil
}

// Get returns the configuration registered under name.
func (r *Registry) Get(name string) (Config, error) {
	c, ok := r.configs[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return c, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
