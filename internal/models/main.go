// Package models defines the core data structures shared by the client and
// the auth server.
package models

// LoginMode selects how the secret passed to a login is interpreted.
type LoginMode int

const (
	// ModePassword treats the secret as the account password.
	ModePassword LoginMode = iota
	// ModeToken treats the secret as a token issued by the auth server.
	ModeToken
)

// String returns the flag spelling of the mode.
func (m LoginMode) String() string {
	if m == ModeToken {
		return "token"
	}
	return "password"
}

// Credentials is a transient login request; it is never persisted.
type Credentials struct {
	// Identifier is the chat user name.
	Identifier string
	// Secret is a password or a token depending on Mode.
	Secret string
	// Mode selects password or token login.
	Mode LoginMode
}

// SessionUser is the identity of a logged in chat user.
type SessionUser struct {
	// ID is the chat user name.
	ID string `json:"id"`
	// Profile holds optional display metadata (nickname, avatar, ...).
	Profile map[string]string `json:"profile,omitempty"`
}

// LoginResult is returned by the auth server on a successful phone login.
type LoginResult struct {
	// Phone is the phone number the server confirmed.
	Phone string `json:"phoneNumber"`
	// Token is the chat token to log in with in token mode.
	Token string `json:"token"`
	// Username is the chat user name bound to the phone.
	Username string `json:"chatUserName"`
	// StatusCode is the HTTP status the server answered with.
	StatusCode int `json:"-"`
}

// AppUser is an auth server account keyed by phone number.
type AppUser struct {
	Phone        string
	ChatUserName string
}

// Conversation is a locally cached chat conversation.
type Conversation struct {
	// ID is the peer user name or group id.
	ID string `json:"id"`
	// Group reports whether the conversation belongs to a group.
	Group bool `json:"group,omitempty"`
	// Messages are ordered oldest first.
	Messages []Message `json:"messages"`
}

// Group is a locally cached chat group.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Message is a single chat message.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	From           string `json:"from"`
	Body           string `json:"body"`
	// Combined holds the ids of the messages merged into a combined message.
	Combined []string `json:"combined,omitempty"`
	// Edited is set once the body has been modified.
	Edited bool `json:"edited,omitempty"`
	// Timestamp is the unix time the message was stored.
	Timestamp int64 `json:"timestamp"`
}
