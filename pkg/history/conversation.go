package history

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role    Role
	Content string
}

// Conversation is the per-chat dialogue with the AI, trimmed to the last limit turns. With a
// positive ttl a chat idle for longer starts over.
type Conversation struct {
	s *store[Turn]
}

func NewConversation(limit int, ttl time.Duration) *Conversation {
	return &Conversation{s: newStore[Turn](limit, ttl)}
}

func (c *Conversation) Add(chatID int64, role Role, content string) error {
	if role != RoleUser && role != RoleModel {
		return fmt.Errorf("invalid role %q", role)
	}
	c.s.add(chatID, Turn{Role: role, Content: content})
	return nil
}

// AddPair stores a user turn together with the model's answer to it. Concurrent pairs of one
// chat never interleave.
func (c *Conversation) AddPair(chatID int64, user, model string) {
	c.s.add(chatID, Turn{Role: RoleUser, Content: user}, Turn{Role: RoleModel, Content: model})
}

func (c *Conversation) Get(chatID int64) []Turn {
	return c.s.get(chatID, 0)
}

func (c *Conversation) Clear(chatID int64) {
	c.s.clear(chatID)
}

func (c *Conversation) Stats() Stats {
	return c.s.stats()
}
