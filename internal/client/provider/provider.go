// Package provider is a file-backed chat session provider used by the demo
// client in place of a hosted chat SDK.
package provider

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/client/storage"
	"github.com/atinyakov/chatdemo/internal/models"
	"github.com/atinyakov/chatdemo/internal/session"
)

var _ session.Provider = (*LocalProvider)(nil)

// LocalProvider implements session.Provider on top of a LocalStorage.
// Login and Logout report back on a separate goroutine.
type LocalProvider struct {
	store     *storage.LocalStorage
	autoLogin bool
	log       *zap.Logger
	now       func() time.Time

	mu            sync.Mutex
	loggedIn      bool
	conversations []models.Conversation
	groups        []models.Group
}

// Option configures a LocalProvider.
type Option func(*LocalProvider)

// WithAutoLogin resumes a persisted session on start.
func WithAutoLogin(enabled bool) Option {
	return func(p *LocalProvider) { p.autoLogin = enabled }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *LocalProvider) { p.log = log }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *LocalProvider) { p.now = now }
}

// New returns a provider over store. With auto login on, a persisted
// session is active immediately.
func New(store *storage.LocalStorage, opts ...Option) *LocalProvider {
	p := &LocalProvider{
		store:     store,
		autoLogin: true,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.loggedIn = p.autoLogin && store.CurrentSession() != nil
	return p
}

// CreateAccount registers id with a bcrypt hash of secret.
func (p *LocalProvider) CreateAccount(id, secret string) error {
	if id == "" {
		return chaterr.New(chaterr.InvalidUserName, "username is empty")
	}
	if secret == "" {
		return chaterr.New(chaterr.InvalidPassword, "password is empty")
	}
	if _, exists := p.store.Account(id); exists {
		return chaterr.New(chaterr.UserAlreadyExist, "user already exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return chaterr.New(chaterr.GeneralError, err.Error())
	}
	if !p.store.AddAccount(storage.Account{ID: id, PasswordHash: hash}) {
		return chaterr.New(chaterr.UserAlreadyExist, "user already exist")
	}
	if err := p.store.Save(); err != nil {
		p.store.RemoveAccount(id)
		return chaterr.New(chaterr.GeneralError, err.Error())
	}
	p.log.Info("account created", zap.String("user", id))
	return nil
}

// Login authenticates id and persists the session.
func (p *LocalProvider) Login(id, secret string, mode models.LoginMode, onSuccess session.SuccessFunc, onError session.ErrorFunc) {
	go func() {
		if err := p.login(id, secret, mode); err != nil {
			var ce *chaterr.Error
			if !errors.As(err, &ce) {
				ce = chaterr.New(chaterr.GeneralError, err.Error())
			}
			p.log.Debug("login failed", zap.String("user", id), zap.Int("code", ce.Code))
			onError(ce.Code, ce.Message)
			return
		}
		p.log.Info("logged in", zap.String("user", id), zap.Stringer("mode", mode))
		onSuccess()
	}()
}

func (p *LocalProvider) login(id, secret string, mode models.LoginMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loggedIn {
		return chaterr.New(chaterr.UserAlreadyLoggedIn, "The user is already logged in")
	}
	appKey := p.store.CurrentAppKey()
	if appKey == "" {
		return chaterr.New(chaterr.InvalidAppKey, "appkey is empty")
	}
	if id == "" {
		return chaterr.New(chaterr.InvalidUserName, "username is empty")
	}

	switch mode {
	case models.ModeToken:
		if err := p.verifyToken(id, secret); err != nil {
			return chaterr.New(chaterr.UserAuthenticationFailed, err.Error())
		}
	default:
		acct, ok := p.store.Account(id)
		if !ok {
			return chaterr.New(chaterr.UserNotFound, "user not found")
		}
		if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(secret)); err != nil {
			return chaterr.New(chaterr.UserAuthenticationFailed, "invalid password")
		}
	}

	p.store.SetSession(&storage.Session{UserID: id, AppKey: appKey, LoggedInAt: p.now().Unix()})
	if err := p.store.Save(); err != nil {
		p.store.SetSession(nil)
		return err
	}
	p.loggedIn = true
	return nil
}

// verifyToken checks an auth server token. The client has no signing key,
// so only the subject and expiry are checked.
func (p *LocalProvider) verifyToken(id, token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("malformed token: %w", err)
	}
	if claims.Subject != id {
		return errors.New("token was issued for another user")
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	return nil
}

// Logout clears the session and the in-memory cache.
func (p *LocalProvider) Logout(unbindDeviceToken bool, onSuccess session.SuccessFunc, onError session.ErrorFunc) {
	go func() {
		p.mu.Lock()
		prev := p.store.CurrentSession()
		prevToken := p.store.CurrentDeviceToken()
		user := p.sessionUser()
		p.store.SetSession(nil)
		if unbindDeviceToken {
			p.store.SetDeviceToken("")
		}
		err := p.store.Save()
		if err != nil {
			p.store.SetSession(prev)
			p.store.SetDeviceToken(prevToken)
		} else {
			p.loggedIn = false
			p.conversations, p.groups = nil, nil
		}
		p.mu.Unlock()

		if err != nil {
			onError(chaterr.GeneralError, err.Error())
			return
		}
		p.log.Info("logged out", zap.String("user", user), zap.Bool("unbind", unbindDeviceToken))
		onSuccess()
	}()
}

// IsLoggedInBefore reports whether a session is persisted.
func (p *LocalProvider) IsLoggedInBefore() bool {
	return p.store.CurrentSession() != nil
}

func (p *LocalProvider) AutoLoginEnabled() bool {
	return p.autoLogin
}

func (p *LocalProvider) IsLoggedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedIn
}

// CurrentUser returns the persisted session's user, or "".
func (p *LocalProvider) CurrentUser() string {
	return p.sessionUser()
}

func (p *LocalProvider) sessionUser() string {
	if s := p.store.CurrentSession(); s != nil {
		return s.UserID
	}
	return ""
}

// ChangeAppKey switches the application key. It is refused while logged in.
func (p *LocalProvider) ChangeAppKey(key string) error {
	if key == "" {
		return chaterr.New(chaterr.InvalidAppKey, "appkey is empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loggedIn {
		return chaterr.New(chaterr.GeneralError, "can not change appkey while logged in")
	}
	prev := p.store.CurrentAppKey()
	if prev == key {
		return nil
	}
	p.store.SetAppKey(key)
	if err := p.store.Save(); err != nil {
		p.store.SetAppKey(prev)
		return chaterr.New(chaterr.GeneralError, err.Error())
	}
	return nil
}

// EnableDNSConfig switches DNS based server discovery and persists the choice.
func (p *LocalProvider) EnableDNSConfig(enabled bool) {
	p.store.SetDNSConfig(enabled)
	if err := p.store.Save(); err != nil {
		p.log.Warn("persist dns config", zap.Error(err))
	}
}

// BindDeviceToken records the push token for this device.
func (p *LocalProvider) BindDeviceToken(token string) error {
	p.store.SetDeviceToken(token)
	return p.store.Save()
}

// LoadAllConversations copies the current user's cached conversations into memory.
func (p *LocalProvider) LoadAllConversations() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := p.sessionUser()
	if user == "" {
		return chaterr.New(chaterr.UserNotLogin, "user not login")
	}
	p.conversations = p.store.ConversationsOf(user)
	return nil
}

// LoadAllGroups copies the current user's cached groups into memory.
func (p *LocalProvider) LoadAllGroups() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := p.sessionUser()
	if user == "" {
		return chaterr.New(chaterr.UserNotLogin, "user not login")
	}
	p.groups = p.store.GroupsOf(user)
	return nil
}

// Conversations returns the conversations loaded into memory.
func (p *LocalProvider) Conversations() []models.Conversation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Conversation(nil), p.conversations...)
}

// Groups returns the groups loaded into memory.
func (p *LocalProvider) Groups() []models.Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Group(nil), p.groups...)
}
