package server

// Route path constants
const (
	RouteHealth = "/health"

	// Provider endpoints ({provider} is google or github)
	RouteAuthorize = "/oauth/{provider}/authorize"
	RouteToken     = "/oauth/{provider}/token"
	RouteCallback  = "/oauth/{provider}/callback"

	// Provider specific endpoints
	RouteGoogleUserInfo = "/oauth/google/userinfo"
	RouteGithubUser     = "/oauth/github/user"
	RouteGoogleJWKS     = "/oauth/google/jwks"

	// Fixture management
	RouteMockUsers = "/mock/users/{provider}"

	RouteMetrics = "/metrics"
)
