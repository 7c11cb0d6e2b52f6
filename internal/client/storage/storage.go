// Package storage persists the local chat provider state (accounts, the last
// session, cached conversations and groups) as a JSON file.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/chatdemo/internal/models"
)

// DefaultFile is used when no path is configured.
const DefaultFile = "chatdemo.json"

// Account is a locally registered chat account.
type Account struct {
	ID           string `json:"id"`
	PasswordHash []byte `json:"password_hash"`
}

// Session is the last successful login, kept for auto login.
type Session struct {
	UserID     string `json:"user_id"`
	AppKey     string `json:"app_key"`
	LoggedInAt int64  `json:"logged_in_at"`
}

// LocalStorage is the on-disk provider state. Conversations and groups are
// keyed by the owning user id.
type LocalStorage struct {
	Path          string                           `json:"-"`
	AppKey        string                           `json:"app_key"`
	DNSConfig     bool                             `json:"dns_config"`
	DeviceToken   string                           `json:"device_token,omitempty"`
	Accounts      map[string]Account               `json:"accounts"`
	Session       *Session                         `json:"session,omitempty"`
	Conversations map[string][]models.Conversation `json:"conversations"`
	Groups        map[string][]models.Group        `json:"groups"`
	mu            sync.Mutex
}

// New returns an empty store backed by path.
func New(path string) *LocalStorage {
	if path == "" {
		path = DefaultFile
	}
	ls := &LocalStorage{Path: path}
	ls.init()
	return ls
}

func (ls *LocalStorage) init() {
	if ls.Accounts == nil {
		ls.Accounts = make(map[string]Account)
	}
	if ls.Conversations == nil {
		ls.Conversations = make(map[string][]models.Conversation)
	}
	if ls.Groups == nil {
		ls.Groups = make(map[string][]models.Group)
	}
}

// Load reads the state file. A missing file leaves the store empty.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := os.Open(ls.Path)
	if err != nil {
		if os.IsNotExist(err) {
			ls.init()
			return nil
		}
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(ls); err != nil {
		return err
	}
	ls.init()
	return nil
}

// Save writes the state file, creating its directory if needed. The file is
// written to a temporary sibling and renamed over the previous state.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	dir := filepath.Dir(ls.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	f, err := os.CreateTemp(dir, filepath.Base(ls.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := json.NewEncoder(f).Encode(ls); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, ls.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Account returns the account registered under id.
func (ls *LocalStorage) Account(id string) (Account, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	a, ok := ls.Accounts[id]
	return a, ok
}

// AddAccount stores a new account. It returns false if id is taken.
func (ls *LocalStorage) AddAccount(a Account) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if _, exists := ls.Accounts[a.ID]; exists {
		return false
	}
	ls.Accounts[a.ID] = a
	return true
}

// RemoveAccount deletes the account registered under id.
func (ls *LocalStorage) RemoveAccount(id string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.Accounts, id)
}

// CurrentSession returns a copy of the persisted session, or nil.
func (ls *LocalStorage) CurrentSession() *Session {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.Session == nil {
		return nil
	}
	s := *ls.Session
	return &s
}

// SetSession replaces the persisted session; nil clears it.
func (ls *LocalStorage) SetSession(s *Session) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.Session = s
}

// CurrentAppKey returns the configured application key.
func (ls *LocalStorage) CurrentAppKey() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.AppKey
}

// SetAppKey sets the application key.
func (ls *LocalStorage) SetAppKey(key string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.AppKey = key
}

// SetDNSConfig toggles DNS based configuration.
func (ls *LocalStorage) SetDNSConfig(enabled bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.DNSConfig = enabled
}

// CurrentDeviceToken returns the bound push device token, or "".
func (ls *LocalStorage) CurrentDeviceToken() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.DeviceToken
}

// SetDeviceToken binds or (with "") unbinds the push device token.
func (ls *LocalStorage) SetDeviceToken(token string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.DeviceToken = token
}

// ConversationsOf returns a copy of the conversations owned by user.
func (ls *LocalStorage) ConversationsOf(user string) []models.Conversation {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	src := ls.Conversations[user]
	out := make([]models.Conversation, len(src))
	for i, c := range src {
		c.Messages = append([]models.Message(nil), c.Messages...)
		out[i] = c
	}
	return out
}

// GroupsOf returns a copy of the groups user belongs to.
func (ls *LocalStorage) GroupsOf(user string) []models.Group {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]models.Group(nil), ls.Groups[user]...)
}

// AddGroup records a group for user.
func (ls *LocalStorage) AddGroup(user string, g models.Group) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.Groups[user] = append(ls.Groups[user], g)
}

// AppendMessage adds m to the conversation m.ConversationID owned by user,
// creating the conversation if needed.
func (ls *LocalStorage) AppendMessage(user string, m models.Message, group bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	convs := ls.Conversations[user]
	for i := range convs {
		if convs[i].ID == m.ConversationID {
			convs[i].Messages = append(convs[i].Messages, m)
			return
		}
	}
	ls.Conversations[user] = append(convs, models.Conversation{
		ID:       m.ConversationID,
		Group:    group,
		Messages: []models.Message{m},
	})
}

// FindMessage looks a message up by id across user's conversations.
func (ls *LocalStorage) FindMessage(user, id string) (models.Message, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, c := range ls.Conversations[user] {
		for _, m := range c.Messages {
			if m.ID == id {
				return m, true
			}
		}
	}
	return models.Message{}, false
}

// UpdateMessage replaces the stored message with the same id.
func (ls *LocalStorage) UpdateMessage(user string, m models.Message) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	convs := ls.Conversations[user]
	for i := range convs {
		for j := range convs[i].Messages {
			if convs[i].Messages[j].ID == m.ID {
				convs[i].Messages[j] = m
				return true
			}
		}
	}
	return false
}
