package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/data/credstore"
	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

var ErrCredentialExpired = errors.New("stored credential expired")

type API interface {
	Login(ctx context.Context, email, password string) (studyapi.Token, error)
	Register(ctx context.Context, in studyapi.RegisterRequest) (studyapi.Token, error)
	MeWithToken(ctx context.Context, token string) (user.Principal, error)
}

type Deps struct {
	Log   *logger.Logger
	API   API
	Store credstore.Store
	Clock clock.Clock
}

const (
	ReasonLogin        = "login"
	ReasonRegister     = "register"
	ReasonRestore      = "restore"
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
)

// Change is published after every transition between signed-in and signed-out.
type Change struct {
	Authenticated bool
	Reason        string
}

// Session is the process-wide identity context. It is safe for concurrent use and implements
// studyapi.Session.
type Session struct {
	log   *logger.Logger
	api   API
	store credstore.Store
	clock clock.Clock

	mu        sync.RWMutex
	token     string
	principal user.Principal
	epoch     uint64
	listeners []func(Change)

	restoreGroup singleflight.Group
}

func New(deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Store == nil {
		deps.Store = credstore.NewMemory()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &Session{
		log:   deps.Log.With("component", "identity"),
		api:   deps.API,
		store: deps.Store,
		clock: deps.Clock,
	}
}

// OnChange registers fn for sign-in and sign-out notifications. fn runs outside the session lock.
func (s *Session) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Principal() (user.Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, s.token != ""
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return apierr.New(apierr.KindInvalid, 0, "missing_credentials", apierr.ErrInvalidArgument)
	}
	tok, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Warn("login failed", "email", email, "error", err)
		return err
	}
	return s.establish(ctx, tok.AccessToken, ReasonLogin)
}

func (s *Session) Register(ctx context.Context, email, password, fullName string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || strings.TrimSpace(fullName) == "" {
		return apierr.New(apierr.KindInvalid, 0, "missing_registration_fields", apierr.ErrInvalidArgument)
	}
	tok, err := s.api.Register(ctx, studyapi.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: strings.TrimSpace(fullName),
	})
	if err != nil {
		s.log.Warn("register failed", "email", email, "error", err)
		return err
	}
	return s.establish(ctx, tok.AccessToken, ReasonRegister)
}

// establish resolves the principal for a freshly issued token and only then commits it, so a
// failed resolution leaves the previous session in place.
func (s *Session) establish(ctx context.Context, token, reason string) error {
	p, err := s.api.MeWithToken(ctx, token)
	if err != nil {
		s.log.Warn("principal resolution failed", "reason", reason, "error", err)
		return err
	}

	s.mu.Lock()
	s.token = token
	s.principal = p
	s.epoch++
	s.mu.Unlock()

	if err := s.store.Save(ctx, credstore.Credential{Token: token, Principal: p, SavedAt: s.clock.Now().UTC()}); err != nil {
		s.log.Warn("persist credential failed (session stays in memory)", "error", err)
	}
	s.log.Info("signed in", "reason", reason, "user_id", p.ID)
	s.publish(Change{Authenticated: true, Reason: reason})
	return nil
}

// Logout clears the in-memory and persisted credential unconditionally.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.forget(ctx)
	s.log.Info("signed out", "reason", ReasonLogout)
	s.publish(Change{Authenticated: false, Reason: ReasonLogout})
}

// HandleUnauthorized forces a logout when the backend rejects the credential that is still current.
// Rejections of an already replaced credential are ignored.
func (s *Session) HandleUnauthorized(ctx context.Context, token string) {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.mu.Unlock()
	s.forget(ctx)
	s.log.Warn("credential rejected by backend, signed out")
	s.publish(Change{Authenticated: false, Reason: ReasonUnauthorized})
}

// Restore silently resumes a persisted session. With nothing stored it returns nil and the session
// stays signed out. Any failure leaves the session signed out and the store cleared.
func (s *Session) Restore(ctx context.Context) error {
	_, err, _ := s.restoreGroup.Do("restore", func() (any, error) {
		return nil, s.restore(ctx)
	})
	return err
}

func (s *Session) restore(ctx context.Context) error {
	s.mu.RLock()
	signedIn := s.token != ""
	epoch := s.epoch
	s.mu.RUnlock()
	if signedIn {
		return nil
	}

	cred, ok, err := s.store.Load(ctx)
	if err != nil {
		s.forget(ctx)
		return fmt.Errorf("restore: %w", err)
	}
	if !ok {
		return nil
	}

	if s.expired(cred.Token) {
		s.forget(ctx)
		s.log.Info("stored credential expired, discarded")
		return apierr.New(apierr.KindAuth, 0, "credential_expired", ErrCredentialExpired)
	}

	p, err := s.api.MeWithToken(ctx, cred.Token)
	if err != nil {
		s.mu.RLock()
		stale := s.epoch != epoch
		s.mu.RUnlock()
		if !stale {
			s.forget(ctx)
		}
		s.log.Info("stored credential rejected, signed out", "error", err)
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	s.token = cred.Token
	s.principal = p
	s.epoch++
	s.mu.Unlock()

	if err := s.store.Save(ctx, credstore.Credential{Token: cred.Token, Principal: p, SavedAt: cred.SavedAt}); err != nil {
		s.log.Warn("refresh cached principal failed", "error", err)
	}
	s.log.Info("session restored", "user_id", p.ID)
	s.publish(Change{Authenticated: true, Reason: ReasonRestore})
	return nil
}

// expired reports whether token is a JWT whose exp claim has passed. Opaque tokens are never
// considered expired locally.
func (s *Session) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(s.clock.Now())
}

func (s *Session) clearLocked() {
	s.token = ""
	s.principal = user.Principal{}
	s.epoch++
}

func (s *Session) forget(ctx context.Context) {
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("clear stored credential failed", "error", err)
	}
}

func (s *Session) publish(c Change) {
	s.mu.RLock()
	listeners := append([]func(Change){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(c)
	}
}
