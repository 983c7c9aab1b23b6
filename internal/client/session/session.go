// Package session holds the signed-in state of the client: the current user,
// whether a token is present, and whether the first profile check is still
// running. Views subscribe to it instead of reading global state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atinyakov/codepath/internal/client/api"
	"github.com/atinyakov/codepath/internal/client/tokenstore"
	"github.com/atinyakov/codepath/internal/models"
	"go.uber.org/zap"
)

// ErrNoSession is returned by operations that need a token when none is held.
var ErrNoSession = errors.New("no active session")

// API is the subset of the CodePath API the controller drives.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.TokenPair, error)
	Refresh(ctx context.Context, token string) (models.TokenPair, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (models.User, error)
}

// State is a snapshot of the session.
type State struct {
	// User is nil when no profile is loaded.
	User *models.User
	// Token is the bearer token, "" when signed out.
	Token string
	// Loading is true until the first profile check finishes.
	Loading bool
}

// Authenticated reports whether a user profile is loaded.
func (s State) Authenticated() bool { return s.User != nil }

// Controller owns the session state and notifies subscribers of every change.
type Controller struct {
	api    API
	tokens tokenstore.Store
	log    *zap.Logger

	mu      sync.RWMutex
	user    *models.User
	token   string
	loading bool
	// epoch changes whenever the signed-in identity does (login, signup,
	// logout, a session given up by the HTTP client). Token rotation keeps it.
	epoch uint64

	obsMu     sync.Mutex
	observers map[uint64]func(State)
	nextObs   uint64
}

// New returns a Controller seeded with the stored token. It starts in the
// loading state; call Bootstrap to resolve it.
func New(ctx context.Context, client API, tokens tokenstore.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		api:       client,
		tokens:    tokens,
		log:       log,
		loading:   true,
		observers: make(map[uint64]func(State)),
	}
	token, ok, err := tokens.Get(ctx)
	if err != nil {
		log.Warn("failed to read stored token", zap.Error(err))
	} else if ok {
		c.token = token
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	st := State{Token: c.token, Loading: c.loading}
	if c.user != nil {
		u := *c.user
		st.User = &u
	}
	return st
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unsubscribes.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

func (c *Controller) notify() {
	st := c.State()

	c.obsMu.Lock()
	fns := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.obsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Bootstrap runs the first RefreshMe and clears the loading flag when it
// resolves, whatever the outcome.
func (c *Controller) Bootstrap(ctx context.Context) error {
	err := c.RefreshMe(ctx)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.notify()
	return err
}

// RefreshMe reloads the user behind the current token. Without a token, or on
// any failure, the user becomes absent.
func (c *Controller) RefreshMe(ctx context.Context) error {
	c.mu.RLock()
	token, epoch := c.token, c.epoch
	c.mu.RUnlock()

	if token == "" {
		c.setUser(epoch, nil)
		return nil
	}

	u, err := c.api.Me(ctx, token)
	if err != nil {
		c.mu.RLock()
		rotated := c.token != token
		c.mu.RUnlock()
		if rotated {
			// a rejection of a token that has since been replaced says
			// nothing about the current one
			c.log.Debug("profile check raced a token change", zap.Error(err))
			return nil
		}
		if c.setUser(epoch, nil) {
			return fmt.Errorf("refresh profile: %w", err)
		}
		return nil
	}
	c.setUser(epoch, &u)
	return nil
}

// setUser stores u unless the identity changed since epoch was read, in which
// case the result belongs to a session that no longer exists and is dropped.
func (c *Controller) setUser(epoch uint64, u *models.User) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("dropping profile of a replaced session")
		return false
	}
	c.user = u
	c.mu.Unlock()
	c.notify()
	return true
}

// Signup creates an account. On success the token is stored before the
// profile is fetched. On failure the session is left untouched and the error
// tells why (*api.StatusError for a rejection, api.ErrUnreachable for network).
func (c *Controller) Signup(ctx context.Context, email, password, displayName string) (bool, error) {
	req := models.SignupRequest{Email: email, Password: password}
	if dn := strings.TrimSpace(displayName); dn != "" {
		req.DisplayName = &dn
	}
	pair, err := c.api.Signup(ctx, req)
	if err != nil {
		return false, fmt.Errorf("signup: %w", err)
	}
	return c.establish(ctx, pair)
}

// Login signs in with email and password; same contract as Signup.
func (c *Controller) Login(ctx context.Context, email, password string) (bool, error) {
	pair, err := c.api.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return false, fmt.Errorf("login: %w", err)
	}
	return c.establish(ctx, pair)
}

func (c *Controller) establish(ctx context.Context, pair models.TokenPair) (bool, error) {
	if pair.AccessToken == "" {
		return false, errors.New("api returned no access token")
	}
	if err := c.tokens.Set(ctx, pair.AccessToken); err != nil {
		return false, fmt.Errorf("store token: %w", err)
	}

	c.mu.Lock()
	c.token = pair.AccessToken
	c.epoch++
	c.mu.Unlock()

	if err := c.RefreshMe(ctx); err != nil {
		c.log.Warn("signed in but profile refresh failed", zap.Error(err))
	}
	return true, nil
}

// Refresh trades the current token for a new one. A rejected refresh ends the
// session locally.
func (c *Controller) Refresh(ctx context.Context) (bool, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return false, ErrNoSession
	}

	pair, err := c.api.Refresh(ctx, token)
	if err != nil {
		if api.IsUnauthorized(err) {
			c.clearLocal(ctx)
		}
		return false, fmt.Errorf("refresh: %w", err)
	}
	if pair.AccessToken == "" {
		return false, errors.New("api returned no access token")
	}
	if err := c.tokens.Set(ctx, pair.AccessToken); err != nil {
		return false, fmt.Errorf("store token: %w", err)
	}
	c.TokenChanged(pair.AccessToken)
	return true, nil
}

// Logout clears the token and the user right away, then asks the API to
// revoke the old token. The API call is best-effort.
func (c *Controller) Logout(ctx context.Context) {
	token := c.clearLocal(ctx)
	if token == "" {
		return
	}
	if err := c.api.Logout(ctx, token); err != nil {
		c.log.Debug("server-side logout failed", zap.Error(err))
	}
}

// clearLocal drops the session and returns the token it held.
func (c *Controller) clearLocal(ctx context.Context) string {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.user = nil
	c.epoch++
	c.mu.Unlock()

	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error("failed to clear stored token", zap.Error(err))
	}
	c.notify()
	return token
}

// TokenChanged mirrors a token rotation done by the HTTP client. An empty
// token means the client gave up on the session.
func (c *Controller) TokenChanged(token string) {
	c.mu.Lock()
	c.token = token
	if token == "" {
		c.user = nil
		c.epoch++
	}
	c.mu.Unlock()
	c.notify()
}
