// Package auth implements the browserless login engine for the VW-group
// vehicle clouds.
//
// One Authenticator holds the credentials and token state for a single
// account on a single brand. Authenticate drives the scripted flow end to
// end: authorization URL, email form, password form, interstitial pages,
// terminal app redirect, token exchange. Concurrent callers of Authenticate
// are coalesced onto one flow.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carconnectivity/vag-auth/pkg/brand"
	"github.com/carconnectivity/vag-auth/pkg/logger"
	"github.com/carconnectivity/vag-auth/pkg/pkce"
)

// Credentials is the account identity used for the scripted login.
type Credentials struct {
	Email    string
	Password string
}

// Config seeds a new Authenticator. TokenStore may carry a previously
// persisted token set so the first Authenticate can skip the login flow.
type Config struct {
	Credentials Credentials
	TokenStore  *TokenStore
	SPin        string
}

// Settings is the merged view handed to settings subscribers after every
// successful authentication or explicit change. It carries everything an
// external persister needs to rebuild a Config, credentials included.
type Settings struct {
	Email    string
	Password string
	SPin     string
	Tokens   TokenStore
}

// Authenticator executes and caches the scripted login for one account on
// one brand.
type Authenticator struct {
	strategy brand.Strategy
	creds    Credentials
	http     *http.Client
	log      *logger.Logger
	now      func() time.Time
	group    singleflight.Group

	mu             sync.Mutex
	token          *TokenStore
	sPin           string
	subscribers    []func(Settings)
	lastRefreshErr error
}

// New returns an Authenticator for the given brand strategy. A nil logger
// silences the engine.
func New(strategy brand.Strategy, cfg Config, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.Discard()
	}
	return &Authenticator{
		strategy: strategy,
		creds:    cfg.Credentials,
		http:     newSessionClient(),
		log:      log,
		now:      time.Now,
		token:    cfg.TokenStore,
		sPin:     cfg.SPin,
	}
}

// Authenticate returns a valid token set, reusing the cached one when it is
// still fresh, refreshing when possible, and running the full scripted login
// otherwise. Concurrent calls share a single in-flight flow.
func (a *Authenticator) Authenticate(ctx context.Context) (*TokenStore, error) {
	v, err, _ := a.group.Do("authenticate", func() (any, error) {
		return a.authenticate(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TokenStore), nil
}

func (a *Authenticator) authenticate(ctx context.Context) (*TokenStore, error) {
	a.mu.Lock()
	cached := a.token
	a.mu.Unlock()

	if cached != nil && !cached.IsExpired(a.now()) {
		return cached, nil
	}

	if refreshed, err := a.tryRefresh(ctx, cached); err == nil && refreshed != nil {
		a.log.Debug("token refreshed", "brand", a.strategy.Name)
		a.storeToken(refreshed)
		return refreshed, nil
	}

	token, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Info("authenticated", "brand", a.strategy.Name, "email", a.creds.Email)
	a.storeToken(token)
	return token, nil
}

// login runs the scripted flow from authorization URL to token exchange.
func (a *Authenticator) login(ctx context.Context) (*TokenStore, error) {
	var pair pkce.Pair
	if a.strategy.UsePKCE {
		pair = pkce.New()
	}

	authURL, err := a.buildAuthorizationURL(ctx, pair)
	if err != nil {
		return nil, err
	}

	resp, err := a.get(ctx, authURL)
	if err != nil {
		return nil, &IdentityProviderError{Detail: "contacting identity provider", Cause: err}
	}
	resp, err = a.followRedirects(ctx, resp)
	if err != nil {
		return nil, &IdentityProviderError{Detail: "reaching login page", Cause: err}
	}

	passwordPage, err := a.submitEmail(ctx, resp, authURL)
	if err != nil {
		return nil, err
	}

	csrf, form, err := extractPasswordForm(passwordPage)
	if err != nil {
		return nil, err
	}

	result, err := a.submitPassword(ctx, csrf, form)
	if err != nil {
		return nil, err
	}

	return a.exchangeCode(ctx, result, pair)
}

// storeToken replaces the cached token set and notifies subscribers with the
// merged settings view. Notification is synchronous; a subscriber that wants
// the token persisted durably has it before storeToken returns.
func (a *Authenticator) storeToken(token *TokenStore) {
	a.mu.Lock()
	a.token = token
	settings := a.settingsLocked()
	subscribers := make([]func(Settings), len(a.subscribers))
	copy(subscribers, a.subscribers)
	a.mu.Unlock()

	for _, notify := range subscribers {
		notify(settings)
	}
}

func (a *Authenticator) settingsLocked() Settings {
	s := Settings{Email: a.creds.Email, Password: a.creds.Password, SPin: a.sPin}
	if a.token != nil {
		s.Tokens = *a.token
	}
	return s
}

// GetSettings returns the current merged settings view.
func (a *Authenticator) GetSettings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settingsLocked()
}

// OnSettingsUpdate registers a subscriber called synchronously after every
// token change.
func (a *Authenticator) OnSettingsUpdate(fn func(Settings)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// SetSPin stores the security PIN used for privileged vehicle operations.
// Changing it does not notify subscribers; the PIN is not part of the token
// lifecycle.
func (a *Authenticator) SetSPin(pin string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sPin = pin
}

// SPin returns the stored security PIN.
func (a *Authenticator) SPin() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sPin
}

// UserID returns the subject claim of the cached access token, or empty when
// no token is held.
func (a *Authenticator) UserID() string {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	if token == nil {
		return ""
	}
	sub, err := decodeSubject(token.AccessToken)
	if err != nil {
		return ""
	}
	return sub
}

// LastRefreshError returns the error recorded by the most recent failed
// refresh attempt, or nil when the last attempt succeeded. Refresh failures
// never surface from Authenticate, so this is the only place to inspect them.
func (a *Authenticator) LastRefreshError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRefreshErr
}

// Token returns the cached token set without triggering authentication. It
// may be nil or expired.
func (a *Authenticator) Token() *TokenStore {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}
