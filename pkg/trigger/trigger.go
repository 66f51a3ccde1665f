// Package trigger decides whether a message is addressed to the bot and extracts what the user
// actually said.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/registry"
)

const (
	CommandName = "AI_COMMAND"
	MentionName = "AI_MENTION"
	ReplyName   = "AI_REPLY"
)

var DefaultCommands = []string{"/cat", "/кіт"}

type Trigger interface {
	Name() string
	Matches(msg *domain.Message, id domain.BotIdentity) bool
	// Extract returns the user payload. It is only called after Matches reported true and may
	// legitimately return an empty string.
	Extract(msg *domain.Message, id domain.BotIdentity) string
}

// Match is the winning trigger and its payload.
type Match struct {
	Trigger string
	Payload string
}

// Empty reports the "addressed but said nothing" case, which callers answer with usage help.
func (m Match) Empty() bool {
	return strings.TrimSpace(m.Payload) == ""
}

// Set checks triggers in order; the first match wins and the rest are never consulted.
type Set struct {
	triggers []Trigger
}

func NewSet(triggers ...Trigger) *Set {
	return &Set{triggers: append([]Trigger(nil), triggers...)}
}

func (s *Set) Len() int { return len(s.triggers) }

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.triggers))
	for _, t := range s.triggers {
		names = append(names, t.Name())
	}
	return names
}

// Check returns the first matching trigger with its payload. A trigger that panics is logged
// and treated as not matching.
func (s *Set) Check(ctx context.Context, msg *domain.Message, id domain.BotIdentity) (Match, bool) {
	if msg == nil {
		return Match{}, false
	}

	for _, t := range s.triggers {
		m, ok, err := check(t, msg, id)
		if err != nil {
			slog.ErrorContext(ctx, "Trigger failed", "trigger", t.Name(), logger.Err(err))
			continue
		}
		if ok {
			slog.DebugContext(ctx, "Trigger matched", "trigger", t.Name(), "empty", m.Empty())
			return m, true
		}
	}

	return Match{}, false
}

func check(t Trigger, msg *domain.Message, id domain.BotIdentity) (m Match, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	if !t.Matches(msg, id) {
		return Match{}, false, nil
	}
	return Match{Trigger: t.Name(), Payload: t.Extract(msg, id)}, true, nil
}

// Table registers the conversational triggers. commands configures AI_COMMAND; nil means the
// defaults.
func Table(commands []string) *registry.Table[Trigger] {
	return registry.NewTable(
		registry.Unit[Trigger]{
			Name:            CommandName,
			DefaultPriority: 80,
			New: func(registry.Config) (Trigger, error) {
				return NewCommand(commands...)
			},
		},
		registry.Unit[Trigger]{
			Name:            MentionName,
			DefaultPriority: 70,
			New:             func(registry.Config) (Trigger, error) { return Mention{}, nil },
		},
		registry.Unit[Trigger]{
			Name:            ReplyName,
			DefaultPriority: 60,
			New:             func(registry.Config) (Trigger, error) { return Reply{}, nil },
		},
	)
}

// Load discovers the enabled triggers into a Set ordered by priority.
func Load(ctx context.Context, table *registry.Table[Trigger], opts ...registry.Option) (*Set, error) {
	entries, err := registry.Discover(ctx, table, opts...)
	if err != nil {
		return nil, fmt.Errorf("discovering triggers: %w", err)
	}
	return NewSet(registry.Values(entries)...), nil
}
