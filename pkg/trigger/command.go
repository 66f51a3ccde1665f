package trigger

import (
	"errors"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

// Command fires on messages that start with one of its commands, e.g. "/cat what is love".
// Group chats may address the command as "/cat@botname".
type Command struct {
	commands []string
}

func NewCommand(commands ...string) (*Command, error) {
	if len(commands) == 0 {
		commands = DefaultCommands
	}
	commands = lo.Uniq(lo.Compact(lo.Map(commands, func(c string, _ int) string {
		return strings.TrimSpace(c)
	})))
	if len(commands) == 0 {
		return nil, errors.New("no commands configured")
	}
	return &Command{commands: commands}, nil
}

func (c *Command) Name() string { return CommandName }

func (c *Command) Commands() []string { return append([]string(nil), c.commands...) }

func (c *Command) Matches(msg *domain.Message, id domain.BotIdentity) bool {
	_, ok := c.strip(msg.Text, id)
	return ok
}

func (c *Command) Extract(msg *domain.Message, id domain.BotIdentity) string {
	rest, _ := c.strip(msg.Text, id)
	return rest
}

func (c *Command) strip(text string, id domain.BotIdentity) (string, bool) {
	text = strings.TrimSpace(text)
	for _, cmd := range c.commands {
		if !strings.HasPrefix(text, cmd) {
			continue
		}
		rest := text[len(cmd):]
		if at, ok := strings.CutPrefix(rest, "@"); ok {
			name, tail, _ := strings.Cut(at, " ")
			if id.Username == "" || !strings.EqualFold(name, id.Username) {
				continue
			}
			rest = tail
		} else if rest != "" && !unicode.IsSpace([]rune(rest)[0]) {
			// "/category" is not "/cat".
			continue
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}
