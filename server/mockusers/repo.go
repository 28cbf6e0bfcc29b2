// Package mockusers stores the profiles the mock provider hands out.
package mockusers

import "errors"

var ErrProviderNotFound = errors.New("provider not found")

// Profile is a provider userinfo payload, kept as loose JSON like the
// provider would return it.
type Profile map[string]any

// ID returns the profile's "id" field as a string.
func (p Profile) ID() string {
	id, _ := p["id"].(string)
	return id
}

func (p Profile) clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type Repo interface {
	// List returns a provider's profiles in insertion order.
	List(provider string) ([]Profile, error)

	// First returns the profile the userinfo endpoint answers with.
	First(provider string) (Profile, error)

	// Create stores a new profile under a generated id, registering the
	// provider if it is not known yet.
	Create(provider string, data Profile) (Profile, error)

	// Providers returns the known provider names in registration order.
	Providers() []string
}
