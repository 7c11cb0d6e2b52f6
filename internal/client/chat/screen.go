// Package chat wires the chat screen callbacks for message forwarding,
// combined-message sending and message editing to user notifications.
package chat

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/i18n"
	"github.com/atinyakov/chatdemo/internal/models"
)

// ForwardCallback receives the result of forwarding a message.
type ForwardCallback interface {
	OnForwardSuccess(message *models.Message)
	OnForwardError(code int, errMsg string)
}

// CombineCallback receives the result of sending a combined message.
type CombineCallback interface {
	OnSendCombineSuccess(message *models.Message)
	OnSendCombineError(message *models.Message, code int, errMsg string)
}

// ModifyListener receives the result of editing a message.
type ModifyListener interface {
	OnModifyMessageSuccess(modified *models.Message)
	OnModifyMessageFailure(messageID string, code int, errMsg string)
}

// Notifier shows a short, transient message to the user.
type Notifier interface {
	Notify(text string)
}

// Screen is the chat screen: it implements every callback above.
type Screen struct {
	notifier Notifier
	catalog  *i18n.Catalog
	log      *zap.Logger

	// TypingMonitor turns the peer typing indicator on.
	TypingMonitor bool
}

// NewScreen returns a Screen notifying through n with strings from cat.
func NewScreen(n Notifier, cat *i18n.Catalog, typingMonitor bool, log *zap.Logger) *Screen {
	if log == nil {
		log = zap.NewNop()
	}
	return &Screen{notifier: n, catalog: cat, log: log, TypingMonitor: typingMonitor}
}

func (s *Screen) notify(key string) {
	s.notifier.Notify(s.catalog.String(key))
}

func (s *Screen) OnForwardSuccess(message *models.Message) {
	s.notify(i18n.MessageForwardSuccess)
}

func (s *Screen) OnForwardError(code int, errMsg string) {
	s.log.Debug("forward failed", zap.Int("code", code), zap.String("error", errMsg))
	s.notify(i18n.MessageForwardFail)
}

func (s *Screen) OnSendCombineSuccess(message *models.Message) {
	s.notify(i18n.MessageForwardSuccess)
}

func (s *Screen) OnSendCombineError(message *models.Message, code int, errMsg string) {
	s.log.Debug("combined send failed", zap.Int("code", code), zap.String("error", errMsg))
	s.notify(i18n.MessageForwardFail)
}

// OnModifyMessageSuccess is silent; the edited message is shown in place.
func (s *Screen) OnModifyMessageSuccess(modified *models.Message) {}

func (s *Screen) OnModifyMessageFailure(messageID string, code int, errMsg string) {
	s.log.Debug("modify failed",
		zap.String("message_id", messageID),
		zap.Int("code", code),
		zap.String("error", errMsg),
	)
	s.notify(i18n.MessageModifyFail)
}

// ConsoleNotifier prints notifications as single lines.
type ConsoleNotifier struct {
	W io.Writer
}

func (c ConsoleNotifier) Notify(text string) {
	fmt.Fprintln(c.W, text)
}
