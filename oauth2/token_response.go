package oauth2

// TokenResponse is the body returned by the mock provider's token endpoint.
// It follows the RFC 6749 token response shape.
type TokenResponse struct {
	// AccessToken is the opaque bearer token for the userinfo endpoint.
	// Example: "google-token-123"
	// Usage: Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	// Note: A hint only; the mock never expires tokens.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is returned alongside every access token.
	// Example: "google-refresh-123"
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope echoes the granted scopes, space separated.
	// Example: "openid email profile"
	Scope *string `json:"scope,omitempty"`

	// IdToken is an RS256 signed OpenID Connect ID token.
	// Only present: Google, when the "openid" scope was granted
	// Usage: Verified against the provider's JWKS, "sub" must match the profile id
	IdToken *string `json:"id_token,omitempty"`
}
