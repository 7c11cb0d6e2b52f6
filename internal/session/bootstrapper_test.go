package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/models"
)

// fakeProvider is an in-memory Provider. With async set, callbacks fire on
// a new goroutine like a real SDK would.
type fakeProvider struct {
	mu sync.Mutex

	async          bool
	loggedIn       bool
	loggedInBefore bool
	autoLogin      bool
	current        string

	appKeys    []string
	dnsEnabled bool

	createErr       error
	changeAppKeyErr error
	loginErr        *chaterr.Error
	logoutErr       *chaterr.Error
	convErr         error

	loginModes   []models.LoginMode
	logoutUnbind []bool
	convLoads    int
	groupLoads   int
}

func (f *fakeProvider) fire(fn func()) {
	if f.async {
		go fn()
		return
	}
	fn()
}

func (f *fakeProvider) CreateAccount(id, secret string) error {
	return f.createErr
}

func (f *fakeProvider) Login(id, secret string, mode models.LoginMode, onSuccess SuccessFunc, onError ErrorFunc) {
	f.mu.Lock()
	f.loginModes = append(f.loginModes, mode)
	loginErr := f.loginErr
	if loginErr == nil {
		f.loggedIn, f.loggedInBefore, f.current = true, true, id
	}
	f.mu.Unlock()

	f.fire(func() {
		if loginErr != nil {
			onError(loginErr.Code, loginErr.Message)
			return
		}
		onSuccess()
	})
}

func (f *fakeProvider) Logout(unbind bool, onSuccess SuccessFunc, onError ErrorFunc) {
	f.mu.Lock()
	f.logoutUnbind = append(f.logoutUnbind, unbind)
	logoutErr := f.logoutErr
	if logoutErr == nil {
		f.loggedIn = false
	}
	f.mu.Unlock()

	f.fire(func() {
		if logoutErr != nil {
			onError(logoutErr.Code, logoutErr.Message)
			return
		}
		onSuccess()
	})
}

func (f *fakeProvider) IsLoggedInBefore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedInBefore
}
func (f *fakeProvider) AutoLoginEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autoLogin
}
func (f *fakeProvider) IsLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}
func (f *fakeProvider) CurrentUser() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeProvider) ChangeAppKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.changeAppKeyErr != nil {
		return f.changeAppKeyErr
	}
	f.appKeys = append(f.appKeys, key)
	return nil
}

func (f *fakeProvider) EnableDNSConfig(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dnsEnabled = enabled
}

func (f *fakeProvider) LoadAllConversations() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convLoads++
	return f.convErr
}

func (f *fakeProvider) LoadAllGroups() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupLoads++
	return nil
}

type fakeServer struct {
	LoginFunc    func(ctx context.Context, phone, code string) (models.LoginResult, error)
	SendCodeFunc func(ctx context.Context, phone string) error
}

func (s *fakeServer) Login(ctx context.Context, phone, code string) (models.LoginResult, error) {
	return s.LoginFunc(ctx, phone, code)
}

func (s *fakeServer) SendVerificationCode(ctx context.Context, phone string) error {
	return s.SendCodeFunc(ctx, phone)
}

type deployment struct {
	enabled bool
	key     string
}

func (d deployment) CustomSetEnabled() bool { return d.enabled }
func (d deployment) CustomAppKey() string   { return d.key }

const defaultKey = "demo#default"

func newTestBootstrapper(p *fakeProvider, d DeploymentSettings) *Bootstrapper {
	return NewBootstrapper(p, &fakeServer{}, d, defaultKey, nil)
}

func TestEnsureHydrated(t *testing.T) {
	tests := []struct {
		name      string
		before    bool
		auto      bool
		wantErr   bool
		wantLoads int
	}{
		{"logged in before with auto login", true, true, false, 1},
		{"never logged in", false, true, true, 0},
		{"auto login disabled", true, false, true, 0},
		{"neither", false, false, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{loggedInBefore: tc.before, autoLogin: tc.auto}
			err := newTestBootstrapper(p, nil).EnsureHydrated()

			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, chaterr.NotLoggedIn, chaterr.CodeOf(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantLoads, p.convLoads)
			assert.Equal(t, tc.wantLoads, p.groupLoads)
		})
	}
}

func TestEnsureHydrated_LoadFailureNotSurfaced(t *testing.T) {
	p := &fakeProvider{loggedInBefore: true, autoLogin: true, convErr: errors.New("disk")}

	require.NoError(t, newTestBootstrapper(p, nil).EnsureHydrated())
	assert.Equal(t, 1, p.groupLoads, "groups still load after a conversation failure")
}

func TestRegister(t *testing.T) {
	p := &fakeProvider{}
	b := newTestBootstrapper(p, nil)

	id, err := b.Register("alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	p.createErr = chaterr.New(chaterr.UserAlreadyExist, "user already exist")
	_, err = b.Register("alice", "pw")
	var ce *chaterr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, chaterr.UserAlreadyExist, ce.Code)
	assert.Equal(t, "user already exist", ce.Message)
}

func TestLogin_Success(t *testing.T) {
	for _, async := range []bool{false, true} {
		p := &fakeProvider{async: async}
		b := newTestBootstrapper(p, nil)

		user, err := b.Login("alice", "pw", models.ModePassword)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Equal(t, []string{defaultKey}, p.appKeys)
		assert.Equal(t, []models.LoginMode{models.ModePassword}, p.loginModes)
		assert.Equal(t, 1, p.convLoads)
		assert.Equal(t, 1, p.groupLoads)
	}
}

func TestLogin_AppKeySelection(t *testing.T) {
	tests := []struct {
		name     string
		d        DeploymentSettings
		loggedIn bool
		wantKeys []string
		wantDNS  bool
	}{
		{"no deployment", nil, false, []string{defaultKey}, false},
		{"custom disabled", deployment{enabled: false, key: "custom#key"}, false, []string{defaultKey}, false},
		{"custom key", deployment{enabled: true, key: "custom#key"}, false, []string{"custom#key"}, false},
		{"custom without key", deployment{enabled: true}, false, []string{defaultKey}, true},
		{"already logged in", deployment{enabled: true, key: "custom#key"}, true, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{loggedIn: tc.loggedIn}
			_, err := newTestBootstrapper(p, tc.d).Login("alice", "pw", models.ModePassword)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKeys, p.appKeys)
			assert.Equal(t, tc.wantDNS, p.dnsEnabled)
		})
	}
}

func TestLogin_AppKeyChangeFails(t *testing.T) {
	p := &fakeProvider{changeAppKeyErr: errors.New("bad key")}

	_, err := newTestBootstrapper(p, nil).Login("alice", "pw", models.ModePassword)
	require.Error(t, err)
	assert.Equal(t, chaterr.InvalidAppKey, chaterr.CodeOf(err))
	assert.Empty(t, p.loginModes, "login must not be dispatched")
}

func TestLogin_AlreadyLoggedInSameUser(t *testing.T) {
	for _, mode := range []models.LoginMode{models.ModePassword, models.ModeToken} {
		p := &fakeProvider{
			async:    true,
			loggedIn: true,
			current:  "alice",
			loginErr: chaterr.New(chaterr.UserAlreadyLoggedIn, "The user is already logged in"),
		}

		user, err := newTestBootstrapper(p, nil).Login("alice", "tok", mode)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Empty(t, p.logoutUnbind)
		assert.Equal(t, 1, p.convLoads)
		assert.True(t, p.IsLoggedIn())
	}
}

func TestLogin_AlreadyLoggedInOtherUser(t *testing.T) {
	p := &fakeProvider{
		async:    true,
		loggedIn: true,
		current:  "alice",
		loginErr: chaterr.New(chaterr.UserAlreadyLoggedIn, "The user is already logged in"),
	}

	_, err := newTestBootstrapper(p, nil).Login("bob", "tok", models.ModeToken)
	var ce *chaterr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, chaterr.UserAlreadyLoggedIn, ce.Code)
	assert.Equal(t, "The user is already logged in", ce.Message)
	assert.Equal(t, []bool{true}, p.logoutUnbind)
	assert.False(t, p.IsLoggedIn(), "stale session must be terminated")
	assert.Zero(t, p.convLoads)
}

func TestLogin_AlreadyLoggedInOtherUser_LogoutFails(t *testing.T) {
	p := &fakeProvider{
		loggedIn:  true,
		current:   "alice",
		loginErr:  chaterr.New(chaterr.UserAlreadyLoggedIn, "already"),
		logoutErr: chaterr.New(chaterr.GeneralError, "io"),
	}

	_, err := newTestBootstrapper(p, nil).Login("bob", "pw", models.ModePassword)
	assert.Equal(t, chaterr.UserAlreadyLoggedIn, chaterr.CodeOf(err))
}

func TestLogin_OtherFailurePassedThrough(t *testing.T) {
	p := &fakeProvider{loginErr: chaterr.New(chaterr.UserAuthenticationFailed, "invalid password")}

	_, err := newTestBootstrapper(p, nil).Login("alice", "nope", models.ModePassword)
	var ce *chaterr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, chaterr.UserAuthenticationFailed, ce.Code)
	assert.Equal(t, "invalid password", ce.Message)
	assert.Empty(t, p.logoutUnbind)
}

func TestLogout(t *testing.T) {
	p := &fakeProvider{loggedIn: true, async: true}
	b := newTestBootstrapper(p, nil)

	code, err := b.Logout(false)
	require.NoError(t, err)
	assert.Equal(t, chaterr.NoError, code)
	assert.Equal(t, []bool{false}, p.logoutUnbind)

	p.logoutErr = chaterr.New(chaterr.NetworkError, "offline")
	code, err = b.Logout(true)
	require.Error(t, err)
	assert.Equal(t, chaterr.NetworkError, code)
	assert.Equal(t, "offline", chaterr.MessageOf(err))
}

func TestLoginFromServer(t *testing.T) {
	want := models.LoginResult{Phone: "555", Token: "tok1", Username: "u1", StatusCode: 200}
	srv := &fakeServer{
		LoginFunc: func(_ context.Context, phone, code string) (models.LoginResult, error) {
			assert.Equal(t, "555", phone)
			assert.Equal(t, "1234", code)
			return want, nil
		},
	}
	b := NewBootstrapper(&fakeProvider{}, srv, nil, defaultKey, nil)

	got, err := b.LoginFromServer(context.Background(), "555", "1234")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	srv.LoginFunc = func(context.Context, string, string) (models.LoginResult, error) {
		return models.LoginResult{}, errors.New("connection reset")
	}
	_, err = b.LoginFromServer(context.Background(), "555", "1234")
	assert.Equal(t, chaterr.NetworkError, chaterr.CodeOf(err))
	assert.Equal(t, "connection reset", chaterr.MessageOf(err))
}

func TestGetVerificationCode(t *testing.T) {
	srv := &fakeServer{SendCodeFunc: func(context.Context, string) error { return nil }}
	b := NewBootstrapper(&fakeProvider{}, srv, nil, defaultKey, nil)

	code, err := b.GetVerificationCode(context.Background(), "5551234")
	require.NoError(t, err)
	assert.Equal(t, chaterr.NoError, code)

	srv.SendCodeFunc = func(context.Context, string) error { return chaterr.New(429, "limit") }
	code, err = b.GetVerificationCode(context.Background(), "5551234")
	require.Error(t, err)
	assert.Equal(t, 429, code)
}

func TestPromise_FirstOutcomeWins(t *testing.T) {
	p := newPromise[int]()
	p.resolve(1)
	p.reject(errors.New("late"))
	p.resolve(2)

	v, err := p.await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
