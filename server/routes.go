package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteGoogleUserInfo, ChainMiddleware(s.UserInfoHandler("google"), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteGithubUser, ChainMiddleware(s.UserInfoHandler("github"), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteGoogleJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteMockUsers, ChainMiddleware(s.ListMockUsersHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteMockUsers, ChainMiddleware(s.CreateMockUserHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}

// APIMiddleware is applied to every JSON route.
func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.MetricsMiddleware,
	}
}
