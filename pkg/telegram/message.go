package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

// ToMessage converts a Bot API message. Replies are converted one level deep.
func ToMessage(m *tgbotapi.Message) *domain.Message {
	if m == nil {
		return nil
	}

	msg := convert(m)
	if m.ReplyToMessage != nil {
		msg.ReplyTo = convert(m.ReplyToMessage)
	}
	return msg
}

func convert(m *tgbotapi.Message) *domain.Message {
	msg := &domain.Message{
		ID:      m.MessageID,
		Text:    m.Text,
		Caption: m.Caption,
		Sender:  toUser(m.From),
	}
	if m.Date != 0 {
		msg.Date = time.Unix(int64(m.Date), 0).UTC()
	}
	if m.Chat != nil {
		msg.ChatID = m.Chat.ID
		msg.ChatTitle = m.Chat.Title
	}

	entities := m.Entities
	if m.Text == "" {
		entities = m.CaptionEntities
	}
	msg.Entities = lo.Map(entities, func(e tgbotapi.MessageEntity, _ int) domain.Entity {
		out := domain.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length}
		if e.User != nil {
			out.UserID = e.User.ID
		}
		return out
	})

	switch {
	case m.ForwardFrom != nil:
		from := toUser(m.ForwardFrom)
		msg.ForwardedFrom = &from
	case m.ForwardDate != 0:
		// Hidden sender or a forwarded channel post.
		msg.ForwardedFrom = &domain.User{}
	}

	return msg
}

func toUser(u *tgbotapi.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	return domain.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
