package trigger

import (
	"strings"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

// Reply fires when a user replies to one of the bot's own messages.
type Reply struct{}

func (Reply) Name() string { return ReplyName }

func (Reply) Matches(msg *domain.Message, id domain.BotIdentity) bool {
	return msg.ReplyTo != nil && id.ID != 0 && msg.ReplyTo.Sender.ID == id.ID
}

func (Reply) Extract(msg *domain.Message, _ domain.BotIdentity) string {
	return strings.TrimSpace(msg.Text)
}
