package pipeline

import (
	"github.com/google/uuid"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

// Context is the per-message state threaded through the handlers of one Run. It is never
// shared across messages.
type Context struct {
	ID      string
	Message *domain.Message
	Bot     domain.Bot

	// ShouldContinue turns false once a handler stops the pipeline and never turns back.
	ShouldContinue bool
	// Data carries derived results from earlier handlers to later ones.
	Data map[string]any

	state State
}

func NewContext(msg *domain.Message, bot domain.Bot) *Context {
	return &Context{
		ID:             uuid.NewString(),
		Message:        msg,
		Bot:            bot,
		ShouldContinue: true,
		Data:           make(map[string]any),
	}
}

// Stop prevents any further handler from running for this message.
func (c *Context) Stop() {
	c.ShouldContinue = false
}

// State reports how a finished run ended; empty while the run is in progress.
func (c *Context) State() State {
	return c.state
}

// Text returns the message text, empty when there is none.
func (c *Context) Text() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.Text
}

func (c *Context) Set(key string, value any) {
	c.Data[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Data[key]
	return v, ok
}

// GetString returns the value stored under key if it is a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Data[key].(string)
	return v, ok
}
