package trigger

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

// Mention fires when the bot is @mentioned, or linked as a text mention for users without a
// username.
type Mention struct{}

func (Mention) Name() string { return MentionName }

func (Mention) Matches(msg *domain.Message, id domain.BotIdentity) bool {
	if msg.Text == "" || len(msg.Entities) == 0 {
		return false
	}

	for _, e := range msg.Entities {
		switch e.Type {
		case domain.EntityMention:
			if id.Username == "" {
				continue
			}
			mention, ok := entityText(msg.Text, e.Offset, e.Length)
			if ok && strings.EqualFold(strings.TrimPrefix(mention, "@"), id.Username) {
				return true
			}
		case domain.EntityTextMention:
			if id.ID != 0 && e.UserID == id.ID {
				return true
			}
		}
	}
	return false
}

// Extract removes every @botname from the text.
func (Mention) Extract(msg *domain.Message, id domain.BotIdentity) string {
	text := strings.TrimSpace(msg.Text)
	if id.Username == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(id.Username) + `\b`)
	return strings.Join(strings.Fields(re.ReplaceAllString(text, "")), " ")
}

// entityText slices text by Telegram entity offsets, which count UTF-16 code units.
func entityText(text string, offset, length int) (string, bool) {
	units := utf16.Encode([]rune(text))
	if offset < 0 || length <= 0 || offset+length > len(units) {
		return "", false
	}
	return string(utf16.Decode(units[offset : offset+length])), true
}
