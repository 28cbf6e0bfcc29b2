// Package sessions is the per-tab identity store: the signed-in user, the
// tokens issued by each provider and the in-flight OAuth slot.
package sessions

import (
	"strconv"
	"sync"
	"time"

	"github.com/jrsteele09/go-social-login/internal/utils"
	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-social-login/storage"
)

// Session storage keys.
const (
	KeyCurrentUser = "currentUser"
	KeyOAuthState  = "oauth_state"
	KeyOAuthAction = "oauth_action"
	KeyOAuthIssued = "oauth_created_at" // Unix millis
	tokenKeyPrefix = "oauth_token_"
)

// TokenKey is the key a provider's token is stored under.
func TokenKey(provider string) string {
	return tokenKeyPrefix + provider
}

// TokenRecord is what a provider issued for the signed-in user.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in,omitempty"` // Seconds, as reported by the provider
	Expiry       time.Time `json:"expiry,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Provider     string    `json:"provider"`
	StoredAt     time.Time `json:"stored_at"`
}

// TokenRecordFromResponse builds a record from a token endpoint response received at now.
func TokenRecordFromResponse(provider string, resp oauth2.TokenResponse, now time.Time) TokenRecord {
	rec := TokenRecord{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		RefreshToken: utils.Value(resp.RefreshToken),
		Scope:        utils.Value(resp.Scope),
		Provider:     provider,
		StoredAt:     now.UTC(),
	}
	if resp.ExpiresIn > 0 {
		rec.Expiry = rec.StoredAt.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return rec
}

// Expired reports whether the token's expiry has passed at now. Records
// without an expiry never expire.
func (r TokenRecord) Expired(now time.Time) bool {
	return !r.Expiry.IsZero() && !now.Before(r.Expiry)
}

// PendingFlow is the single live OAuth slot for the tab.
type PendingFlow struct {
	State     string
	Action    string
	CreatedAt time.Time // Zero for slots written without a creation time
}

// Store keeps session state in a session-scoped storage.Store.
type Store struct {
	store storage.Store

	slotMu sync.Mutex // Serializes the multi-key slot operations
}

func NewStore(store storage.Store) (*Store, error) {
	if store == nil {
		return nil, errors.New("[NewStore] store is required")
	}
	return &Store{store: store}, nil
}

func (s *Store) SetCurrentUser(u users.CanonicalUser) error {
	return errors.Wrap(storage.SetJSON(s.store, KeyCurrentUser, u), "set current user")
}

// CurrentUser returns the signed-in user, or false when nobody is signed in.
func (s *Store) CurrentUser() (users.CanonicalUser, bool, error) {
	var u users.CanonicalUser
	ok, err := storage.GetJSON(s.store, KeyCurrentUser, &u)
	if err != nil {
		return users.CanonicalUser{}, false, errors.Wrap(err, "get current user")
	}
	return u, ok, nil
}

func (s *Store) ClearCurrentUser() error {
	return s.store.Delete(KeyCurrentUser)
}

// SetToken stores rec as the token for provider, replacing any previous one.
func (s *Store) SetToken(provider string, rec TokenRecord) error {
	rec.Provider = provider
	return errors.Wrapf(storage.SetJSON(s.store, TokenKey(provider), rec), "set %s token", provider)
}

func (s *Store) Token(provider string) (TokenRecord, bool, error) {
	var rec TokenRecord
	ok, err := storage.GetJSON(s.store, TokenKey(provider), &rec)
	if err != nil {
		return TokenRecord{}, false, errors.Wrapf(err, "get %s token", provider)
	}
	return rec, ok, nil
}

func (s *Store) ClearToken(provider string) error {
	return s.store.Delete(TokenKey(provider))
}

// HasAnyToken reports whether a token is stored for any of providers.
func (s *Store) HasAnyToken(providers ...string) (bool, error) {
	for _, p := range providers {
		_, ok, err := s.store.Get(TokenKey(p))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// SetPendingFlow overwrites the live slot.
func (s *Store) SetPendingFlow(state, action string, createdAt time.Time) error {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	if err := s.store.Set(KeyOAuthState, []byte(state)); err != nil {
		return errors.Wrap(err, "set oauth state")
	}
	if err := s.store.Set(KeyOAuthAction, []byte(action)); err != nil {
		return errors.Wrap(err, "set oauth action")
	}
	return errors.Wrap(s.store.Set(KeyOAuthIssued, []byte(strconv.FormatInt(createdAt.UnixMilli(), 10))), "set oauth created at")
}

// PendingFlow returns the live slot, or false when none is set.
func (s *Store) PendingFlow() (PendingFlow, bool, error) {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	return s.pendingFlow()
}

func (s *Store) pendingFlow() (PendingFlow, bool, error) {
	state, ok, err := storage.GetString(s.store, KeyOAuthState)
	if err != nil || !ok {
		return PendingFlow{}, false, err
	}
	action, _, err := storage.GetString(s.store, KeyOAuthAction)
	if err != nil {
		return PendingFlow{}, false, err
	}
	pf := PendingFlow{State: state, Action: action}

	issued, ok, err := storage.GetString(s.store, KeyOAuthIssued)
	if err != nil {
		return PendingFlow{}, false, err
	}
	if ok {
		millis, err := strconv.ParseInt(issued, 10, 64)
		if err != nil {
			return PendingFlow{}, false, errors.Wrap(err, "parse oauth created at")
		}
		pf.CreatedAt = time.UnixMilli(millis).UTC()
	}
	return pf, true, nil
}

// ClearPendingFlow empties the slot.
func (s *Store) ClearPendingFlow() error {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	return s.clearPendingFlow()
}

func (s *Store) clearPendingFlow() error {
	for _, key := range []string{KeyOAuthState, KeyOAuthAction, KeyOAuthIssued} {
		if err := s.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// ClearPendingFlowIf empties the slot only while it still holds state.
// It reports whether the slot was cleared.
func (s *Store) ClearPendingFlowIf(state string) (bool, error) {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	current, ok, err := s.pendingFlow()
	if err != nil || !ok || current.State != state {
		return false, err
	}
	return true, s.clearPendingFlow()
}

// Logout removes the current user, every listed provider token and the slot.
func (s *Store) Logout(providers ...string) error {
	if err := s.ClearCurrentUser(); err != nil {
		return errors.Wrap(err, "clear current user")
	}
	for _, p := range providers {
		if err := s.ClearToken(p); err != nil {
			return errors.Wrapf(err, "clear %s token", p)
		}
	}
	return errors.Wrap(s.ClearPendingFlow(), "clear pending flow")
}
