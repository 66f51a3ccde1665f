package domain

import "time"

const (
	EntityMention     = "mention"
	EntityTextMention = "text_mention"
	EntityBotCommand  = "bot_command"
)

// Message is the inbound chat message as the router sees it. Platform adapters fill it in,
// nothing below the adapter looks at transport specific fields.
type Message struct {
	ID        int
	ChatID    int64
	ChatTitle string
	Sender    User
	Text      string
	Caption   string
	Date      time.Time
	ReplyTo   *Message
	Entities  []Entity
	// ForwardedFrom is set for forwarded messages. A zero User means the original sender is hidden.
	ForwardedFrom *User
}

type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Entity is a mention/command annotation. Offset and Length are in UTF-16 code units.
type Entity struct {
	Type   string
	Offset int
	Length int
	UserID int64
}

// Content returns the text, falling back to the media caption.
func (m *Message) Content() string {
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

func (m *Message) IsForwarded() bool {
	return m != nil && m.ForwardedFrom != nil
}

// DisplayName returns the best human readable name for the user.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "Unknown"
	}
}
