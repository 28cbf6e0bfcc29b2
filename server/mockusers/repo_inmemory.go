package mockusers

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu        sync.RWMutex
	order     []string
	profiles  map[string][]Profile // provider -> profiles in insertion order
	newUserID func(provider string) string
}

var _ Repo = (*InMemoryRepo)(nil)

type Option func(*InMemoryRepo)

// WithIDFunc sets how ids for created profiles are minted (primarily for testing).
func WithIDFunc(f func(provider string) string) Option {
	return func(r *InMemoryRepo) { r.newUserID = f }
}

// NewInMemoryRepo creates a repository seeded with DefaultProfiles.
func NewInMemoryRepo(options ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		profiles: make(map[string][]Profile),
		newUserID: func(provider string) string {
			return fmt.Sprintf("%s-user-%s", provider, uuid.NewString())
		},
	}
	for _, opt := range options {
		opt(r)
	}
	for _, provider := range []string{"google", "github"} {
		for _, p := range DefaultProfiles()[provider] {
			r.add(provider, p)
		}
	}
	return r
}

func (r *InMemoryRepo) add(provider string, p Profile) {
	if _, ok := r.profiles[provider]; !ok {
		r.order = append(r.order, provider)
	}
	r.profiles[provider] = append(r.profiles[provider], p)
}

func (r *InMemoryRepo) List(provider string) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.profiles[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, provider)
	}
	out := make([]Profile, 0, len(list))
	for _, p := range list {
		out = append(out, p.clone())
	}
	return out, nil
}

func (r *InMemoryRepo) First(provider string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.profiles[provider]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, provider)
	}
	return list[0].clone(), nil
}

// Create stores data with a generated id; id and provider cannot be overridden.
func (r *InMemoryRepo) Create(provider string, data Profile) (Profile, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	p := data.clone()
	p["id"] = r.newUserID(provider)
	p["provider"] = provider

	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(provider, p)
	return p.clone(), nil
}

func (r *InMemoryRepo) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
