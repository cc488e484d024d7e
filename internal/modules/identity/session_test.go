package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/data/credstore"
	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
)

var epoch0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu        sync.Mutex
	loginErr  error
	meErr     error
	tokens    map[string]user.Principal
	issue     string
	meCalls   atomic.Int32
	meRelease chan struct{}
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (studyapi.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return studyapi.Token{}, f.loginErr
	}
	return studyapi.Token{AccessToken: f.issue, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Register(ctx context.Context, in studyapi.RegisterRequest) (studyapi.Token, error) {
	return f.Login(ctx, in.Email, in.Password)
}

func (f *fakeAPI) MeWithToken(_ context.Context, token string) (user.Principal, error) {
	f.meCalls.Add(1)
	if f.meRelease != nil {
		<-f.meRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return user.Principal{}, f.meErr
	}
	p, ok := f.tokens[token]
	if !ok {
		return user.Principal{}, apierr.New(apierr.KindAuth, 401, "", apierr.ErrUnauthorized)
	}
	return p, nil
}

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newSession(api *fakeAPI, store credstore.Store) *Session {
	return New(Deps{API: api, Store: store, Clock: clock.NewManual(epoch0)})
}

func TestLoginStoresCredentialAndPrincipal(t *testing.T) {
	api := &fakeAPI{issue: "tok-a", tokens: map[string]user.Principal{"tok-a": {ID: "u1", FullName: "Ada"}}}
	store := credstore.NewMemory()
	s := newSession(api, store)

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))
	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok-a", s.Token())
	p, ok := s.Principal()
	require.True(t, ok)
	assert.Equal(t, "Ada", p.FullName)

	cred, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-a", cred.Token)
	assert.Equal(t, "u1", cred.Principal.ID)
	assert.Equal(t, []Change{{Authenticated: true, Reason: ReasonLogin}}, changes)
}

func TestFailedLoginLeavesPriorSession(t *testing.T) {
	api := &fakeAPI{issue: "tok-a", tokens: map[string]user.Principal{"tok-a": {ID: "u1"}}}
	s := newSession(api, credstore.NewMemory())
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))

	api.loginErr = apierr.New(apierr.KindAuth, 401, "", apierr.ErrUnauthorized)
	err := s.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindAuth))
	assert.Equal(t, "tok-a", s.Token())

	api.loginErr = nil
	api.issue = "tok-unknown"
	require.Error(t, s.Login(context.Background(), "ada@example.com", "pw"))
	assert.Equal(t, "tok-a", s.Token(), "principal resolution failure keeps the old credential")
}

func TestLoginRejectsBlankInput(t *testing.T) {
	s := newSession(&fakeAPI{}, credstore.NewMemory())
	err := s.Login(context.Background(), "  ", "pw")
	assert.True(t, apierr.Is(err, apierr.KindInvalid))
	err = s.Register(context.Background(), "a@b.c", "pw", " ")
	assert.True(t, apierr.Is(err, apierr.KindInvalid))
}

func TestRegisterSignsIn(t *testing.T) {
	api := &fakeAPI{issue: "tok-r", tokens: map[string]user.Principal{"tok-r": {ID: "u2"}}}
	s := newSession(api, credstore.NewMemory())
	require.NoError(t, s.Register(context.Background(), "new@example.com", "pw", "New User"))
	p, ok := s.Principal()
	require.True(t, ok)
	assert.Equal(t, "u2", p.ID)
}

func TestLogoutClearsMemoryAndStore(t *testing.T) {
	api := &fakeAPI{issue: "tok-a", tokens: map[string]user.Principal{"tok-a": {ID: "u1"}}}
	store := credstore.NewMemory()
	s := newSession(api, store)
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))

	s.Logout(context.Background())
	assert.False(t, s.Authenticated())
	assert.Equal(t, "", s.Token())
	_, ok := s.Principal()
	assert.False(t, ok)
	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleUnauthorizedOnlyRevokesCurrentToken(t *testing.T) {
	api := &fakeAPI{issue: "tok-a", tokens: map[string]user.Principal{"tok-a": {ID: "u1"}}}
	s := newSession(api, credstore.NewMemory())
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	s.HandleUnauthorized(context.Background(), "tok-old")
	assert.True(t, s.Authenticated())

	s.HandleUnauthorized(context.Background(), "tok-a")
	assert.False(t, s.Authenticated())
	assert.Equal(t, []Change{{Authenticated: false, Reason: ReasonUnauthorized}}, changes)
}

func TestRestoreResumesStoredCredential(t *testing.T) {
	tok := signed(t, "u1", epoch0.Add(30*time.Minute))
	api := &fakeAPI{tokens: map[string]user.Principal{tok: {ID: "u1"}}}
	store := credstore.NewMemory()
	require.NoError(t, store.Save(context.Background(), credstore.Credential{Token: tok}))

	s := newSession(api, store)
	require.NoError(t, s.Restore(context.Background()))
	assert.True(t, s.Authenticated())

	cred, _, _ := store.Load(context.Background())
	assert.Equal(t, "u1", cred.Principal.ID, "restored principal is cached")
}

func TestRestoreDiscardsExpiredTokenWithoutNetwork(t *testing.T) {
	tok := signed(t, "u1", epoch0.Add(-time.Minute))
	api := &fakeAPI{tokens: map[string]user.Principal{tok: {ID: "u1"}}}
	store := credstore.NewMemory()
	require.NoError(t, store.Save(context.Background(), credstore.Credential{Token: tok}))

	s := newSession(api, store)
	err := s.Restore(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialExpired)
	assert.Equal(t, int32(0), api.meCalls.Load())
	assert.False(t, s.Authenticated())
	_, ok, _ := store.Load(context.Background())
	assert.False(t, ok)
}

func TestRestoreFailureBehavesAsLogout(t *testing.T) {
	api := &fakeAPI{meErr: errors.New("connection refused")}
	store := credstore.NewMemory()
	require.NoError(t, store.Save(context.Background(), credstore.Credential{Token: "opaque"}))

	s := newSession(api, store)
	require.Error(t, s.Restore(context.Background()))
	assert.False(t, s.Authenticated())
	_, ok, _ := store.Load(context.Background())
	assert.False(t, ok)
}

func TestRestoreWithEmptyStoreIsNoop(t *testing.T) {
	api := &fakeAPI{}
	s := newSession(api, credstore.NewMemory())
	require.NoError(t, s.Restore(context.Background()))
	assert.False(t, s.Authenticated())
	assert.Equal(t, int32(0), api.meCalls.Load())
}

func TestConcurrentRestoreSharesOneResolution(t *testing.T) {
	tok := signed(t, "u1", epoch0.Add(time.Hour))
	api := &fakeAPI{tokens: map[string]user.Principal{tok: {ID: "u1"}}, meRelease: make(chan struct{})}
	store := credstore.NewMemory()
	require.NoError(t, store.Save(context.Background(), credstore.Credential{Token: tok}))
	s := newSession(api, store)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Restore(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return api.meCalls.Load() == 1 }, time.Second, time.Millisecond)
	close(api.meRelease)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.meCalls.Load())
	assert.True(t, s.Authenticated())
}
