package provider

import (
	"github.com/google/uuid"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/client/chat"
	"github.com/atinyakov/chatdemo/internal/models"
)

// Message callbacks run before the calling method returns.

// SendMessage stores a text message from the current user to conversation to.
func (p *LocalProvider) SendMessage(to, body string, group bool) (models.Message, error) {
	user, err := p.activeUser()
	if err != nil {
		return models.Message{}, err
	}
	m := models.Message{
		ID:             uuid.NewString(),
		ConversationID: to,
		From:           user,
		Body:           body,
		Timestamp:      p.now().Unix(),
	}
	p.store.AppendMessage(user, m, group)
	if err := p.store.Save(); err != nil {
		return models.Message{}, chaterr.New(chaterr.GeneralError, err.Error())
	}
	return m, nil
}

// ForwardMessage copies message messageID into conversation to.
func (p *LocalProvider) ForwardMessage(messageID, to string, cb chat.ForwardCallback) {
	user, err := p.activeUser()
	if err != nil {
		cb.OnForwardError(chaterr.CodeOf(err), chaterr.MessageOf(err))
		return
	}
	src, ok := p.store.FindMessage(user, messageID)
	if !ok {
		cb.OnForwardError(chaterr.InvalidParam, "message not found")
		return
	}
	fwd, err := p.SendMessage(to, src.Body, false)
	if err != nil {
		cb.OnForwardError(chaterr.CodeOf(err), chaterr.MessageOf(err))
		return
	}
	cb.OnForwardSuccess(&fwd)
}

// SendCombinedMessage merges the messages ids into one message sent to to.
func (p *LocalProvider) SendCombinedMessage(ids []string, to, title string, cb chat.CombineCallback) {
	user, err := p.activeUser()
	if err != nil {
		cb.OnSendCombineError(nil, chaterr.CodeOf(err), chaterr.MessageOf(err))
		return
	}
	if len(ids) == 0 {
		cb.OnSendCombineError(nil, chaterr.InvalidParam, "no messages to combine")
		return
	}
	for _, id := range ids {
		if _, ok := p.store.FindMessage(user, id); !ok {
			cb.OnSendCombineError(nil, chaterr.InvalidParam, "message not found: "+id)
			return
		}
	}

	m := models.Message{
		ID:             uuid.NewString(),
		ConversationID: to,
		From:           user,
		Body:           title,
		Combined:       append([]string(nil), ids...),
		Timestamp:      p.now().Unix(),
	}
	p.store.AppendMessage(user, m, false)
	if err := p.store.Save(); err != nil {
		cb.OnSendCombineError(&m, chaterr.GeneralError, err.Error())
		return
	}
	cb.OnSendCombineSuccess(&m)
}

// ModifyMessage replaces the body of one of the current user's messages.
func (p *LocalProvider) ModifyMessage(messageID, body string, l chat.ModifyListener) {
	user, err := p.activeUser()
	if err != nil {
		l.OnModifyMessageFailure(messageID, chaterr.CodeOf(err), chaterr.MessageOf(err))
		return
	}
	m, ok := p.store.FindMessage(user, messageID)
	if !ok {
		l.OnModifyMessageFailure(messageID, chaterr.InvalidParam, "message not found")
		return
	}
	if m.From != user {
		l.OnModifyMessageFailure(messageID, chaterr.InvalidParam, "only own messages can be edited")
		return
	}
	m.Body, m.Edited = body, true
	p.store.UpdateMessage(user, m)
	if err := p.store.Save(); err != nil {
		l.OnModifyMessageFailure(messageID, chaterr.GeneralError, err.Error())
		return
	}
	l.OnModifyMessageSuccess(&m)
}

func (p *LocalProvider) activeUser() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loggedIn {
		return "", chaterr.New(chaterr.UserNotLogin, "user not login")
	}
	return p.sessionUser(), nil
}
