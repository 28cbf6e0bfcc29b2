// Package server is the mock OAuth provider: authorize, token, userinfo and
// callback endpoints for google and github, plus health and fixture routes.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/internal/metrics"
	"github.com/jrsteele09/go-social-login/server/keys"
	"github.com/jrsteele09/go-social-login/server/mockusers"
	"github.com/rs/zerolog/log"
)

// Config is what the mock provider reads from the application config.
type Config interface {
	config.EnvConfig
	config.CorsConfig
	GetClientCredentials(provider string) (clientID, clientSecret string)
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.HandlerFunc
	routes  []string
	config  Config
	users   mockusers.Repo
	signer  keys.Signer
	metrics *metrics.Metrics
	nowTime func() time.Time
}

type Option func(*Server)

// WithSigner sets the key id_tokens are signed with. Without it a key is generated.
func WithSigner(signer keys.Signer) Option {
	return func(s *Server) { s.signer = signer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithNowTime sets the clock used for token timestamps (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) { s.nowTime = nowFunc }
}

func New(cfg Config, users mockusers.Repo, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if users == nil {
		return nil, fmt.Errorf("[Server New] mock users repo is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		users:   users,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.signer == nil {
		signer, err := keys.NewGeneratedSigner("mock-google-1")
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create id_token signer: %w", err)
		}
		s.signer = signer
	}
	if s.metrics == nil {
		m, err := metrics.New(nil)
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create metrics: %w", err)
		}
		s.metrics = m
	}

	s.initRoutes()
	s.logRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.RecoverMiddleware, s.CorsMiddleware)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// baseURL is the origin the request reached this server on. It is the issuer
// of every id_token.
func baseURL(r *http.Request) string {
	return getScheme(r) + "://" + r.Host
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
