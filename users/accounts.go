package users

import (
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-social-login/internal/errors"
	"github.com/jrsteele09/go-social-login/storage"
	"github.com/pkg/errors"
)

// Durable storage keys.
const (
	KeySignupUsers        = "signupUsers"
	KeyLoginUsers         = "loginUsers"
	KeyRememberedUsername = "rememberedUsername"
)

// storedUser is the persisted shape: the canonical record plus, for local
// accounts, the bcrypt hash. The hash never leaves this package.
type storedUser struct {
	CanonicalUser
	PasswordHash string `json:"passwordHash,omitempty"`
}

// AccountStore keeps every known account, local and OAuth, in the durable store.
type AccountStore struct {
	store    storage.Store
	validate *validator.Validate
	nowTime  func() time.Time
	mu       sync.Mutex
}

type AccountStoreOption func(*AccountStore)

// WithNowTime sets the clock used for ids and timestamps (primarily for testing).
func WithNowTime(nowFunc func() time.Time) AccountStoreOption {
	return func(s *AccountStore) {
		s.nowTime = nowFunc
	}
}

func NewAccountStore(store storage.Store, options ...AccountStoreOption) *AccountStore {
	s := &AccountStore{
		store:    store,
		validate: newValidator(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// load merges signupUsers and loginUsers, keeping the first record per id.
func (s *AccountStore) load() ([]storedUser, error) {
	var signup, login []storedUser
	if _, err := storage.GetJSON(s.store, KeySignupUsers, &signup); err != nil {
		return nil, errors.Wrap(err, "load signup users")
	}
	if _, err := storage.GetJSON(s.store, KeyLoginUsers, &login); err != nil {
		return nil, errors.Wrap(err, "load login users")
	}

	all := make([]storedUser, 0, len(signup)+len(login))
	seen := make(map[string]struct{}, cap(all))
	for _, u := range append(signup, login...) {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		all = append(all, u)
	}
	return all, nil
}

func (s *AccountStore) persist(all []storedUser) error {
	return errors.Wrap(storage.SetJSON(s.store, KeySignupUsers, all), "save users")
}

// List returns every account without password hashes.
func (s *AccountStore) List() ([]CanonicalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]CanonicalUser, 0, len(all))
	for _, u := range all {
		out = append(out, u.CanonicalUser)
	}
	return out, nil
}

// FindByID looks an account up by its canonical id.
func (s *AccountStore) FindByID(id string) (CanonicalUser, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return CanonicalUser{}, false, err
	}
	for _, u := range all {
		if u.ID == id {
			return u.CanonicalUser, true, nil
		}
	}
	return CanonicalUser{}, false, nil
}

// Save inserts or replaces the account with u.ID, keeping any password hash.
func (s *AccountStore) Save(u CanonicalUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	return s.persist(upsert(all, storedUser{CanonicalUser: u}))
}

// uniqueLocalID returns local_<millis>, stepping forward past ids already taken.
func uniqueLocalID(all []storedUser, now time.Time) string {
	taken := make(map[string]struct{}, len(all))
	for _, u := range all {
		taken[u.ID] = struct{}{}
	}
	for t := now; ; t = t.Add(time.Millisecond) {
		id := "local_" + formatMillis(t)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

func upsert(all []storedUser, u storedUser) []storedUser {
	for i := range all {
		if all[i].ID == u.ID {
			if u.PasswordHash == "" {
				u.PasswordHash = all[i].PasswordHash
			}
			all[i] = u
			return all
		}
	}
	return append(all, u)
}

// Register validates the signup form and creates a local account.
func (s *AccountStore) Register(req RegisterRequest) (CanonicalUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return CanonicalUser{}, validationError(err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return CanonicalUser{}, errors.Wrap(err, "[Register] hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return CanonicalUser{}, err
	}
	for _, u := range all {
		if strings.EqualFold(u.Email, req.Email) || (u.Username != "" && u.Username == req.Username) {
			return CanonicalUser{}, apperrors.ErrUserExists
		}
	}

	now := s.nowTime()
	user := CanonicalUser{
		ID:           uniqueLocalID(all, now),
		Email:        req.Email,
		Username:     req.Username,
		Provider:     ProviderLocal,
		AuthProvider: ProviderLocal,
		Role:         RoleUser,
		Newsletter:   req.Newsletter,
		CreatedAt:    now.UTC(),
	}
	if err := s.persist(upsert(all, storedUser{CanonicalUser: user, PasswordHash: hash})); err != nil {
		return CanonicalUser{}, err
	}
	return user, nil
}

// Authenticate checks a local username (or email) and password.
func (s *AccountStore) Authenticate(username, password string) (CanonicalUser, error) {
	req := LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(req); err != nil {
		return CanonicalUser{}, validationError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return CanonicalUser{}, err
	}
	for _, u := range all {
		if !u.IsLocal() || (u.Username != req.Username && !strings.EqualFold(u.Email, req.Username)) {
			continue
		}
		if u.PasswordHash != "" && CheckPasswordHash(password, u.PasswordHash) {
			return u.CanonicalUser, nil
		}
	}
	return CanonicalUser{}, apperrors.ErrInvalidCredentials
}

// Update applies a profile update and returns the new record.
func (s *AccountStore) Update(id string, update ProfileUpdate) (CanonicalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return CanonicalUser{}, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].CanonicalUser = all[i].CanonicalUser.apply(update)
		if err := s.persist(all); err != nil {
			return CanonicalUser{}, err
		}
		return all[i].CanonicalUser, nil
	}
	return CanonicalUser{}, apperrors.ErrUserNotFound
}

// Delete removes the account from both user lists.
func (s *AccountStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, key := range []string{KeySignupUsers, KeyLoginUsers} {
		var list []storedUser
		ok, err := storage.GetJSON(s.store, key, &list)
		if err != nil {
			return errors.Wrapf(err, "load %s", key)
		}
		if !ok {
			continue
		}
		kept := list[:0]
		for _, u := range list {
			if u.ID == id {
				found = true
				continue
			}
			kept = append(kept, u)
		}
		if err := storage.SetJSON(s.store, key, kept); err != nil {
			return errors.Wrapf(err, "save %s", key)
		}
	}
	if !found {
		return apperrors.ErrUserNotFound
	}
	return nil
}

type seedUser struct {
	username string
	password string
	role     Role
}

var defaultLoginUsers = []seedUser{
	{username: "admin", password: "admin123", role: RoleAdmin},
	{username: "user", password: "user123", role: RoleUser},
	{username: "demo", password: "demo123", role: RoleUser},
}

// SeedDefaults writes the demo login users when none have been stored yet.
func (s *AccountStore) SeedDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.store.Get(KeyLoginUsers); err != nil || ok {
		return err
	}

	now := s.nowTime().UTC()
	seeded := make([]storedUser, 0, len(defaultLoginUsers))
	for _, su := range defaultLoginUsers {
		hash, err := HashPassword(su.password)
		if err != nil {
			return errors.Wrap(err, "[SeedDefaults] hash password")
		}
		seeded = append(seeded, storedUser{
			CanonicalUser: CanonicalUser{
				ID:           "local_" + su.username,
				Username:     su.username,
				Provider:     ProviderLocal,
				AuthProvider: ProviderLocal,
				Role:         su.role,
				CreatedAt:    now,
			},
			PasswordHash: hash,
		})
	}
	return errors.Wrap(storage.SetJSON(s.store, KeyLoginUsers, seeded), "[SeedDefaults] save")
}

func (s *AccountStore) RememberUsername(username string) error {
	return s.store.Set(KeyRememberedUsername, []byte(username))
}

func (s *AccountStore) RememberedUsername() (string, bool, error) {
	return storage.GetString(s.store, KeyRememberedUsername)
}

func (s *AccountStore) ForgetUsername() error {
	return s.store.Delete(KeyRememberedUsername)
}

// ClearAll removes every durable key owned by the store.
func (s *AccountStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{KeySignupUsers, KeyLoginUsers, KeyRememberedUsername} {
		if err := s.store.Delete(key); err != nil {
			return errors.Wrapf(err, "delete %s", key)
		}
	}
	return nil
}
