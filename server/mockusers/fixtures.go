package mockusers

const placeholderAvatar = "https://via.placeholder.com/150"

// DefaultProfiles returns the seeded provider users. The first entry per
// provider is the one every valid access token resolves to.
func DefaultProfiles() map[string][]Profile {
	return map[string][]Profile{
		"google": {
			{
				"id":             "google-user-123",
				"email":          "user@gmail.com",
				"name":           "Google Test User",
				"picture":        placeholderAvatar,
				"verified_email": true,
				"provider":       "google",
			},
			{
				"id":             "google-admin-456",
				"email":          "admin@gmail.com",
				"name":           "Google Admin",
				"picture":        placeholderAvatar,
				"verified_email": true,
				"provider":       "google",
			},
		},
		"github": {
			{
				"id":         "github-user-789",
				"login":      "githubuser",
				"email":      "user@github.com",
				"name":       "GitHub Test User",
				"avatar_url": placeholderAvatar,
				"html_url":   "https://github.com/githubuser",
				"company":    "Test Company",
				"location":   "San Francisco, CA",
				"bio":        "Software developer and open source enthusiast",
				"provider":   "github",
			},
			{
				"id":         "github-dev-101",
				"login":      "githubdev",
				"email":      "dev@github.com",
				"name":       "GitHub Developer",
				"avatar_url": placeholderAvatar,
				"html_url":   "https://github.com/githubdev",
				"company":    "Dev Corp",
				"location":   "New York, NY",
				"bio":        "Full-stack developer",
				"provider":   "github",
			},
		},
	}
}
