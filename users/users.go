package users

import (
	"time"
)

// Role is the coarse role carried on every account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ProviderLocal marks accounts registered with a username and password.
const ProviderLocal = "local"

// CanonicalUser is the one identity record every provider payload is mapped to.
// Each provider linkage gets its own ID; accounts are never merged.
type CanonicalUser struct {
	ID           string    `json:"id"`                   // Provider-namespaced identifier, e.g. google_123
	Email        string    `json:"email,omitempty"`      // Email reported by the provider
	Username     string    `json:"username,omitempty"`   // Local username or derived handle
	Name         string    `json:"name,omitempty"`       // Display name
	Picture      string    `json:"picture,omitempty"`    // Avatar / picture URL
	Provider     string    `json:"provider"`             // google, github or local
	AuthProvider string    `json:"authProvider"`         // Provider the account authenticates with
	Role         Role      `json:"role,omitempty"`       // admin or user
	Verified     bool      `json:"verified"`             // Email verified by the provider
	Newsletter   bool      `json:"newsletter,omitempty"` // Local signups only
	CreatedAt    time.Time `json:"createdAt"`

	// GitHub extras
	GithubURL string `json:"githubUrl,omitempty"`
	Company   string `json:"company,omitempty"`
	Location  string `json:"location,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// IsLocal reports whether the account was created with a password.
func (u CanonicalUser) IsLocal() bool {
	return u.AuthProvider == ProviderLocal
}

// ProfileUpdate carries the fields a user may change. Nil fields are left alone.
type ProfileUpdate struct {
	Email      *string
	Name       *string
	Picture    *string
	Company    *string
	Location   *string
	Bio        *string
	Newsletter *bool
}

func (u CanonicalUser) apply(p ProfileUpdate) CanonicalUser {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.Email, p.Email)
	set(&u.Name, p.Name)
	set(&u.Picture, p.Picture)
	set(&u.Company, p.Company)
	set(&u.Location, p.Location)
	set(&u.Bio, p.Bio)
	if p.Newsletter != nil {
		u.Newsletter = *p.Newsletter
	}
	return u
}
