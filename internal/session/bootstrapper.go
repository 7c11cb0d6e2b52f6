// Package session implements the session bootstrap workflow: app key
// selection, provider login with already-logged-in conflict handling,
// post-login hydration, logout and the auth server phone login flow.
package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/models"
)

// Bootstrapper turns callback based provider and server calls into single
// shot operations. Callers must not run two logins on one Bootstrapper at
// the same time; it does not serialize them.
type Bootstrapper struct {
	provider      Provider
	server        AuthServer
	deployment    DeploymentSettings
	defaultAppKey string
	log           *zap.Logger
}

// NewBootstrapper wires a Bootstrapper. deployment may be nil when no custom
// deployment can be configured; log may be nil.
func NewBootstrapper(
	provider Provider,
	server AuthServer,
	deployment DeploymentSettings,
	defaultAppKey string,
	log *zap.Logger,
) *Bootstrapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrapper{
		provider:      provider,
		server:        server,
		deployment:    deployment,
		defaultAppKey: defaultAppKey,
		log:           log,
	}
}

// EnsureHydrated loads cached conversations and groups when a previous
// session exists and auto login is on. Otherwise it fails with NotLoggedIn.
func (b *Bootstrapper) EnsureHydrated() error {
	p := newPromise[struct{}]()
	go func() {
		before, auto := b.provider.IsLoggedInBefore(), b.provider.AutoLoginEnabled()
		b.log.Debug("hydration precondition",
			zap.Bool("logged_in_before", before),
			zap.Bool("auto_login", auto),
		)
		if !before || !auto {
			p.reject(chaterr.New(chaterr.NotLoggedIn, ""))
			return
		}
		b.hydrate()
		p.resolve(struct{}{})
	}()
	_, err := p.await()
	return err
}

// Register creates a provider account and returns its identifier.
func (b *Bootstrapper) Register(id, secret string) (string, error) {
	if err := b.provider.CreateAccount(id, secret); err != nil {
		return "", asChatError(err, chaterr.GeneralError)
	}
	return id, nil
}

// Login authenticates id with secret in the given mode.
//
// A UserAlreadyLoggedIn failure for the same id counts as success. For a
// different id the stale session is logged out (unbinding the device token)
// and the original failure is returned.
func (b *Bootstrapper) Login(id, secret string, mode models.LoginMode) (models.SessionUser, error) {
	if !b.provider.IsLoggedIn() {
		if err := b.selectAppKey(); err != nil {
			return models.SessionUser{}, asChatError(err, chaterr.InvalidAppKey)
		}
	}

	p := newPromise[models.SessionUser]()
	b.provider.Login(id, secret, mode,
		func() {
			b.completeLogin(p)
		},
		func(code int, message string) {
			if code != chaterr.UserAlreadyLoggedIn {
				p.reject(chaterr.New(code, message))
				return
			}
			if b.provider.CurrentUser() == id {
				b.log.Info("already logged in as requested user", zap.String("user", id))
				b.completeLogin(p)
				return
			}
			b.log.Warn("another user is logged in, forcing logout",
				zap.String("requested", id),
				zap.String("active", b.provider.CurrentUser()),
			)
			if _, err := b.Logout(true); err != nil {
				b.log.Warn("forced logout failed", zap.Error(err))
			}
			p.reject(chaterr.New(code, message))
		},
	)
	return p.await()
}

// Logout ends the provider session and returns chaterr.NoError on success,
// or the failure code alongside the error.
func (b *Bootstrapper) Logout(unbindDeviceToken bool) (int, error) {
	p := newPromise[int]()
	b.provider.Logout(unbindDeviceToken,
		func() { p.resolve(chaterr.NoError) },
		func(code int, message string) { p.reject(chaterr.New(code, message)) },
	)
	code, err := p.await()
	if err != nil {
		return chaterr.CodeOf(err), err
	}
	return code, nil
}

// LoginFromServer exchanges a phone number and SMS code for a chat token.
func (b *Bootstrapper) LoginFromServer(ctx context.Context, phone, code string) (models.LoginResult, error) {
	res, err := b.server.Login(ctx, phone, code)
	if err != nil {
		return models.LoginResult{}, asChatError(err, chaterr.NetworkError)
	}
	return res, nil
}

// GetVerificationCode asks the auth server to text a code to phone and
// returns chaterr.NoError on success.
func (b *Bootstrapper) GetVerificationCode(ctx context.Context, phone string) (int, error) {
	if err := b.server.SendVerificationCode(ctx, phone); err != nil {
		err = asChatError(err, chaterr.NetworkError)
		return chaterr.CodeOf(err), err
	}
	return chaterr.NoError, nil
}

// selectAppKey must run before a login is dispatched on a fresh session.
func (b *Bootstrapper) selectAppKey() error {
	if b.deployment != nil && b.deployment.CustomSetEnabled() {
		if key := b.deployment.CustomAppKey(); key != "" {
			b.log.Debug("using custom app key")
			return b.provider.ChangeAppKey(key)
		}
		b.log.Debug("custom deployment without app key, enabling DNS config")
		b.provider.EnableDNSConfig(true)
	}
	return b.provider.ChangeAppKey(b.defaultAppKey)
}

func (b *Bootstrapper) completeLogin(p *promise[models.SessionUser]) {
	user := models.SessionUser{ID: b.provider.CurrentUser()}
	b.hydrate()
	p.resolve(user)
}

// hydrate loads conversations then groups. Failures are logged and not
// reported to the caller.
func (b *Bootstrapper) hydrate() {
	if err := b.provider.LoadAllConversations(); err != nil {
		b.log.Warn("load conversations failed", zap.Error(err))
	}
	if err := b.provider.LoadAllGroups(); err != nil {
		b.log.Warn("load groups failed", zap.Error(err))
	}
}

func asChatError(err error, fallback int) error {
	var ce *chaterr.Error
	if errors.As(err, &ce) {
		return ce
	}
	return chaterr.New(fallback, err.Error())
}
