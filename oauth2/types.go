// Package oauth2 holds the wire types spoken by the mock OAuth provider.
package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// This is the only grant the mock provider accepts.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsCodeGrant is machine-to-machine auth; rejected with invalid_grant.
	ClientCredentialsCodeGrant GrantType = "client_credentials"

	// RefreshTokenCodeGrant exchanges a refresh token; rejected with invalid_grant.
	RefreshTokenCodeGrant GrantType = "refresh_token"
)

// ErrorResponse is the body of every non-2xx mock response.
// Example: {"error":"invalid_grant"}
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthorizeResponse is returned by the authorize endpoint instead of a redirect.
type AuthorizeResponse struct {
	Message string `json:"message"`
	AuthURL string `json:"authUrl"`
}

// CallbackResponse echoes the parameters a provider redirected back with.
type CallbackResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider"`
	Code     string `json:"code"`
	State    string `json:"state"`
	Message  string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Providers []string `json:"providers"`
	Timestamp string   `json:"timestamp"`
}
