package history

import "time"

type Entry struct {
	UserID    int64
	Username  string
	Text      string
	Time      time.Time
	Forwarded bool
}

// Log is the per-chat record of ordinary chat messages that summaries are built from.
type Log struct {
	s *store[Entry]
}

func NewLog(limit int) *Log {
	return &Log{s: newStore[Entry](limit, 0)}
}

func (l *Log) Add(chatID int64, e Entry) {
	l.s.add(chatID, e)
}

// Get returns the last limit entries, oldest first.
func (l *Log) Get(chatID int64, limit int) []Entry {
	return l.s.get(chatID, limit)
}

func (l *Log) Clear(chatID int64) {
	l.s.clear(chatID)
}

func (l *Log) Stats() Stats {
	return l.s.stats()
}
