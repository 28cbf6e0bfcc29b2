package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-social-login/internal/errors"
)

// GoogleProfile is the payload of Google's userinfo endpoint.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// GithubProfile is the payload of GitHub's /user endpoint.
type GithubProfile struct {
	ID        FlexibleID `json:"id"`
	Login     string     `json:"login"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	AvatarURL string     `json:"avatar_url"`
	HTMLURL   string     `json:"html_url"`
	Company   string     `json:"company"`
	Location  string     `json:"location"`
	Bio       string     `json:"bio"`
}

// FlexibleID accepts an id encoded as a JSON string or number.
// GitHub returns numbers; the mock responder returns strings.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

// NormalizeGoogle maps a Google profile to a CanonicalUser created at now.
func NormalizeGoogle(p GoogleProfile, now time.Time) CanonicalUser {
	username := ""
	if local, _, ok := strings.Cut(p.Email, "@"); ok || local != "" {
		username = local + "_google"
	}
	return CanonicalUser{
		ID:           "google_" + p.ID,
		Email:        p.Email,
		Username:     username,
		Name:         p.Name,
		Picture:      p.Picture,
		Provider:     "google",
		AuthProvider: "google",
		Role:         RoleUser,
		Verified:     p.VerifiedEmail,
		CreatedAt:    now.UTC(),
	}
}

// NormalizeGithub maps a GitHub profile to a CanonicalUser created at now.
// GitHub accounts are treated as verified.
func NormalizeGithub(p GithubProfile, now time.Time) CanonicalUser {
	return CanonicalUser{
		ID:           "github_" + string(p.ID),
		Email:        p.Email,
		Username:     p.Login,
		Name:         p.Name,
		Picture:      p.AvatarURL,
		Provider:     "github",
		AuthProvider: "github",
		Role:         RoleUser,
		Verified:     true,
		CreatedAt:    now.UTC(),
		GithubURL:    p.HTMLURL,
		Company:      p.Company,
		Location:     p.Location,
		Bio:          p.Bio,
	}
}

// Normalize decodes a provider userinfo payload and maps it to a CanonicalUser.
func Normalize(provider string, payload []byte, now time.Time) (CanonicalUser, error) {
	switch provider {
	case "google":
		var p GoogleProfile
		if err := json.Unmarshal(payload, &p); err != nil {
			return CanonicalUser{}, fmt.Errorf("decode google profile: %w", err)
		}
		if p.ID == "" {
			return CanonicalUser{}, fmt.Errorf("google profile has no id")
		}
		return NormalizeGoogle(p, now), nil
	case "github":
		var p GithubProfile
		if err := json.Unmarshal(payload, &p); err != nil {
			return CanonicalUser{}, fmt.Errorf("decode github profile: %w", err)
		}
		if p.ID == "" {
			return CanonicalUser{}, fmt.Errorf("github profile has no id")
		}
		return NormalizeGithub(p, now), nil
	}
	return CanonicalUser{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedProvider, provider)
}

// ProfileSubject returns the provider-side id inside a payload, used to match
// the subject of a verified id_token.
func ProfileSubject(provider string, payload []byte) (string, error) {
	switch provider {
	case "google":
		var p GoogleProfile
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", err
		}
		return p.ID, nil
	case "github":
		var p GithubProfile
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", err
		}
		return string(p.ID), nil
	}
	return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedProvider, provider)
}
