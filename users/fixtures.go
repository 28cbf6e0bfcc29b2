package users

import "time"

const placeholderAvatar = "https://via.placeholder.com/150"

// mockFixtures are the users synthesized by the development-mode flow.
var mockFixtures = map[string]CanonicalUser{
	"google": {
		ID:       "google_123",
		Email:    "user@gmail.com",
		Username: "user_google",
		Name:     "Google User",
		Picture:  placeholderAvatar,
		Provider: "google",
		Verified: true,
	},
	"github": {
		ID:       "github_456",
		Email:    "user@github.com",
		Username: "githubuser",
		Name:     "GitHub User",
		Picture:  placeholderAvatar,
		Provider: "github",
		Verified: true,
	},
}

// MockUser returns the development fixture for provider, stamped with now.
func MockUser(provider string, now time.Time) (CanonicalUser, bool) {
	u, ok := mockFixtures[provider]
	if !ok {
		return CanonicalUser{}, false
	}
	u.AuthProvider = provider
	u.Role = RoleUser
	u.CreatedAt = now.UTC()
	return u, true
}
