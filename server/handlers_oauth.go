package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-social-login/internal/utils"
	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	tokenLifetime   = 3600
)

// cannedTokens is the one token each provider ever issues.
var cannedTokens = map[string]oauth2.TokenResponse{
	"google": {
		AccessToken:  "google-token-123",
		TokenType:    "Bearer",
		ExpiresIn:    tokenLifetime,
		RefreshToken: utils.Ptr("google-refresh-123"),
		Scope:        utils.Ptr("openid email profile"),
	},
	"github": {
		AccessToken:  "github-token-456",
		TokenType:    "Bearer",
		ExpiresIn:    tokenLifetime,
		RefreshToken: utils.Ptr("github-refresh-456"),
		Scope:        utils.Ptr("user:email read:user"),
	},
}

// upstreamAuthURL is the real consent page a provider's authorize call stands in for.
func upstreamAuthURL(provider string) string {
	for _, c := range providers.Defaults("") {
		if c.Name == provider {
			return c.AuthURL
		}
	}
	return ""
}

func knownProvider(w http.ResponseWriter, r *http.Request) (string, bool) {
	provider := r.PathValue("provider")
	if _, ok := cannedTokens[provider]; !ok {
		writeJSONError(w, "Provider not found", http.StatusNotFound)
		return "", false
	}
	return provider, true
}

// AuthorizeHandler acknowledges an authorization request. It never redirects;
// the consent surface drives the callback itself.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := knownProvider(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		if provider == providers.Google {
			if expected, _ := s.config.GetClientCredentials(provider); q.Get("client_id") != expected {
				writeJSONError(w, "Invalid client_id", http.StatusBadRequest)
				return
			}
		}

		log.Debug().Str("provider", provider).Str("redirect_uri", q.Get("redirect_uri")).Str("scope", q.Get("scope")).Msg("authorization request")

		writeJSON(w, http.StatusOK, oauth2.AuthorizeResponse{
			Message: "Authorization initiated",
			AuthURL: upstreamAuthURL(provider) + "?" + r.URL.RawQuery,
		})
	}
}

// TokenHandler exchanges any authorization code for the provider's canned token.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := knownProvider(w, r)
		if !ok {
			return
		}

		params, err := tokenParams(r)
		if err != nil {
			writeJSONError(w, "invalid_request", http.StatusBadRequest)
			return
		}
		if oauth2.GrantType(params["grant_type"]) != oauth2.AuthorizationCodeGrant {
			writeJSONError(w, "invalid_grant", http.StatusBadRequest)
			return
		}

		resp := cannedTokens[provider]
		if provider == providers.Google && slices.Contains(strings.Fields(utils.Value(resp.Scope)), "openid") {
			idToken, err := s.signIDToken(r, params["client_id"])
			if err != nil {
				log.Err(err).Msg("failed to sign id_token")
				writeJSONError(w, "server_error", http.StatusInternalServerError)
				return
			}
			resp.IdToken = &idToken
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, resp)
	}
}

// tokenParams reads a token request sent as a form or as a JSON object.
func tokenParams(r *http.Request) (map[string]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		params := make(map[string]string, len(body))
		for k, v := range body {
			if s, ok := v.(string); ok {
				params[k] = s
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	return params, nil
}

// signIDToken issues an id_token for the first google profile.
func (s *Server) signIDToken(r *http.Request, clientID string) (string, error) {
	if clientID == "" {
		clientID, _ = s.config.GetClientCredentials(providers.Google)
	}
	profile, err := s.users.First(providers.Google)
	if err != nil {
		return "", err
	}

	now := s.nowTime()
	claims := jwt.MapClaims{
		"iss": baseURL(r),
		"sub": profile.ID(),
		"aud": clientID,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime * time.Second).Unix(),
	}
	for _, k := range []string{"email", "name", "picture"} {
		if v, ok := profile[k]; ok {
			claims[k] = v
		}
	}
	if v, ok := profile["verified_email"]; ok {
		claims["email_verified"] = v
	}
	return s.signer.Sign(claims)
}

// UserInfoHandler returns the provider's first profile to the holder of its token.
func (s *Server) UserInfoHandler(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != cannedTokens[provider].AccessToken {
			writeJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		profile, err := s.users.First(provider)
		if err != nil {
			writeJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// CallbackHandler echoes the redirect a provider would send back.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := knownProvider(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		if errParam := q.Get("error"); errParam != "" {
			writeJSONError(w, errParam, http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			writeJSONError(w, "No authorization code provided", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, oauth2.CallbackResponse{
			Success:  true,
			Provider: provider,
			Code:     code,
			State:    q.Get("state"),
			Message:  "OAuth callback received successfully",
		})
	}
}

// JWKSHandler publishes the key google id_tokens are signed with.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			writeJSONError(w, "Failed to get JWKS", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, jwks)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes the mock provider's {"error": ...} body
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, oauth2.ErrorResponse{Error: message})
}
