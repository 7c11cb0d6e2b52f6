package session

import (
	"context"

	"github.com/atinyakov/chatdemo/internal/models"
)

// SuccessFunc is invoked once when a provider call succeeds.
type SuccessFunc func()

// ErrorFunc is invoked once when a provider call fails.
type ErrorFunc func(code int, message string)

// Provider is the chat session capability surface the bootstrapper drives.
// Login and Logout are asynchronous: exactly one of the callbacks fires,
// possibly on another goroutine.
type Provider interface {
	// CreateAccount registers a new chat account. It returns a *chaterr.Error on failure.
	CreateAccount(id, secret string) error
	// Login authenticates with a password or a token depending on mode.
	Login(id, secret string, mode models.LoginMode, onSuccess SuccessFunc, onError ErrorFunc)
	// Logout ends the current session, optionally unbinding the device token.
	Logout(unbindDeviceToken bool, onSuccess SuccessFunc, onError ErrorFunc)

	// IsLoggedInBefore reports whether a previous session was persisted.
	IsLoggedInBefore() bool
	// AutoLoginEnabled reports whether persisted sessions are resumed.
	AutoLoginEnabled() bool
	// IsLoggedIn reports whether a session is active now.
	IsLoggedIn() bool
	// CurrentUser returns the id of the active or last persisted session.
	CurrentUser() string

	// ChangeAppKey switches the provider to another application key.
	ChangeAppKey(key string) error
	// EnableDNSConfig toggles DNS based server configuration.
	EnableDNSConfig(enabled bool)

	// LoadAllConversations loads cached conversations into memory.
	LoadAllConversations() error
	// LoadAllGroups loads cached groups into memory.
	LoadAllGroups() error
}

// AuthServer is the application server used for phone + SMS code login.
type AuthServer interface {
	// Login exchanges a phone number and SMS code for a chat token.
	Login(ctx context.Context, phone, code string) (models.LoginResult, error)
	// SendVerificationCode asks the server to text a code to phone.
	SendVerificationCode(ctx context.Context, phone string) error
}

// DeploymentSettings describes an optional custom deployment overriding
// the default application key.
type DeploymentSettings interface {
	// CustomSetEnabled reports whether a custom deployment is configured.
	CustomSetEnabled() bool
	// CustomAppKey returns the custom application key, possibly empty.
	CustomAppKey() string
}
