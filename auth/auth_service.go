// Package auth is the facade the UI talks to: local registration and login,
// OAuth login and signup, logout and account maintenance.
package auth

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-social-login/oauthflow"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Accounts is the durable account store.
type Accounts interface {
	Register(req users.RegisterRequest) (users.CanonicalUser, error)
	Authenticate(username, password string) (users.CanonicalUser, error)
	Update(id string, update users.ProfileUpdate) (users.CanonicalUser, error)
	Delete(id string) error
	RememberUsername(username string) error
	ForgetUsername() error
	ClearAll() error
}

// Sessions is the per-tab identity store.
type Sessions interface {
	SetCurrentUser(u users.CanonicalUser) error
	CurrentUser() (users.CanonicalUser, bool, error)
	HasAnyToken(providers ...string) (bool, error)
	Logout(providers ...string) error
}

// Flows starts OAuth attempts.
type Flows interface {
	Login(ctx context.Context, provider string) *oauthflow.Pending
	Signup(ctx context.Context, provider string) *oauthflow.Pending
}

// Providers lists the configured provider names.
type Providers interface {
	Names() []string
}

// Repos holds all dependencies of the Service.
type Repos struct {
	Accounts  Accounts
	Sessions  Sessions
	Flows     Flows
	Providers Providers
}

// Outcome is what an OAuth login or signup reports back to the UI. Failures
// are carried in Error and Kind, never returned.
type Outcome struct {
	Success bool                `json:"success"`
	User    users.CanonicalUser `json:"user,omitzero"`
	Error   string              `json:"error,omitempty"`
	Kind    oauthflow.Kind      `json:"kind,omitempty"`
}

type Service struct {
	repos Repos
}

func NewService(repos Repos) (*Service, error) {
	if repos.Accounts == nil {
		return nil, errors.New("[NewService] Accounts repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.Flows == nil {
		return nil, errors.New("[NewService] Flows is required")
	}
	if repos.Providers == nil {
		return nil, errors.New("[NewService] Providers is required")
	}
	return &Service{repos: repos}, nil
}

// Register creates a local account and signs it in.
func (s *Service) Register(req users.RegisterRequest) (users.CanonicalUser, error) {
	user, err := s.repos.Accounts.Register(req)
	if err != nil {
		return users.CanonicalUser{}, errors.Wrap(err, "[Register] failed")
	}
	if err := s.repos.Sessions.SetCurrentUser(user); err != nil {
		return users.CanonicalUser{}, errors.Wrap(err, "[Register] set current user")
	}
	log.Info().Str("user", user.ID).Msg("local account registered")
	return user, nil
}

// Authenticate signs in a local account. With remember set the username is
// kept for the next visit; otherwise any remembered name is forgotten.
func (s *Service) Authenticate(username, password string, remember bool) (users.CanonicalUser, error) {
	user, err := s.repos.Accounts.Authenticate(username, password)
	if err != nil {
		return users.CanonicalUser{}, errors.Wrap(err, "[Authenticate] failed")
	}
	if err := s.repos.Sessions.SetCurrentUser(user); err != nil {
		return users.CanonicalUser{}, errors.Wrap(err, "[Authenticate] set current user")
	}

	if remember {
		err = s.repos.Accounts.RememberUsername(username)
	} else {
		err = s.repos.Accounts.ForgetUsername()
	}
	if err != nil {
		log.Warn().Err(err).Msg("remembered username not updated")
	}
	return user, nil
}

func (s *Service) OAuthLogin(ctx context.Context, provider string) Outcome {
	return s.outcome(ctx, s.repos.Flows.Login(ctx, provider))
}

func (s *Service) OAuthSignup(ctx context.Context, provider string) Outcome {
	return s.outcome(ctx, s.repos.Flows.Signup(ctx, provider))
}

func (s *Service) outcome(ctx context.Context, p *oauthflow.Pending) Outcome {
	res, err := p.Wait(ctx)
	if err != nil {
		kind := oauthflow.KindOf(err)
		msg := Message(kind)
		if kind == "" {
			msg = fmt.Sprintf("%s %s failed: %v", p.Provider(), p.Action(), err)
		}
		log.Info().Str("provider", p.Provider()).Str("action", string(p.Action())).Str("kind", string(kind)).Msg("oauth attempt failed")
		return Outcome{Error: msg, Kind: kind}
	}
	return Outcome{Success: true, User: res.User}
}

// Message is the user-facing text for a failure kind.
func Message(kind oauthflow.Kind) string {
	switch kind {
	case oauthflow.KindUnsupportedProvider:
		return "This sign-in provider is not supported"
	case oauthflow.KindInvalidState:
		return "The sign-in response could not be verified. Please try again"
	case oauthflow.KindProviderDenied:
		return "Sign-in was cancelled or denied"
	case oauthflow.KindTokenExchangeFailed:
		return "Could not complete sign-in with the provider"
	case oauthflow.KindProfileFetchFailed:
		return "Could not load your profile from the provider"
	case oauthflow.KindTimeout:
		return "Sign-in timed out. Please try again"
	case oauthflow.KindAccountAlreadyExists:
		return "Account already exists with this OAuth provider"
	case oauthflow.KindAccountNotFound:
		return "No account found for this provider. Please sign up first"
	case oauthflow.KindPopupBlocked:
		return "The sign-in window was blocked. Please allow popups and try again"
	case oauthflow.KindInternal:
		return "Sign-in could not be completed because of a problem on our side. Please try again"
	}
	return "Authentication failed"
}

// Logout drops the current user, every provider token and any pending attempt slot.
func (s *Service) Logout() error {
	if err := s.repos.Sessions.Logout(s.repos.Providers.Names()...); err != nil {
		return errors.Wrap(err, "[Logout] failed")
	}
	return nil
}

func (s *Service) CurrentUser() (users.CanonicalUser, bool, error) {
	return s.repos.Sessions.CurrentUser()
}

// IsAuthenticated reports whether a user is signed in or any provider token
// is held.
func (s *Service) IsAuthenticated() bool {
	if _, ok, err := s.repos.Sessions.CurrentUser(); err == nil && ok {
		return true
	}
	hasToken, err := s.repos.Sessions.HasAnyToken(s.repos.Providers.Names()...)
	return err == nil && hasToken
}

// UpdateProfile changes an account and refreshes the session copy when it is
// the signed-in user.
func (s *Service) UpdateProfile(id string, update users.ProfileUpdate) (users.CanonicalUser, error) {
	user, err := s.repos.Accounts.Update(id, update)
	if err != nil {
		return users.CanonicalUser{}, errors.Wrap(err, "[UpdateProfile] failed")
	}
	if s.isCurrent(id) {
		if err := s.repos.Sessions.SetCurrentUser(user); err != nil {
			return users.CanonicalUser{}, errors.Wrap(err, "[UpdateProfile] set current user")
		}
	}
	return user, nil
}

// DeleteAccount removes an account, logging out when it is the signed-in user.
func (s *Service) DeleteAccount(id string) error {
	current := s.isCurrent(id)
	if err := s.repos.Accounts.Delete(id); err != nil {
		return errors.Wrap(err, "[DeleteAccount] failed")
	}
	if current {
		return s.Logout()
	}
	return nil
}

// ClearAll wipes the durable demo data and signs out.
func (s *Service) ClearAll() error {
	if err := s.repos.Accounts.ClearAll(); err != nil {
		return errors.Wrap(err, "[ClearAll] failed")
	}
	return s.Logout()
}

func (s *Service) isCurrent(id string) bool {
	u, ok, err := s.repos.Sessions.CurrentUser()
	return err == nil && ok && u.ID == id
}
