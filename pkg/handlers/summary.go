package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
)

const (
	SummaryName           = "SUMMARY_HANDLER"
	DefaultSummaryHistory = 200

	forwardedName = "Forwarded"
)

var DefaultSummaryKeywords = []string{"/summarize", "/summary", "/самарі"}

type summary struct {
	summarizer Summarizer
	log        *history.Log
	keywords   []string
	limit      int
	now        func() time.Time
}

// NewSummary records every ordinary message of a chat and, when asked with one of the
// keywords, summarizes the recorded conversation. Requests themselves are never recorded.
func NewSummary(summarizer Summarizer, log *history.Log, limit int) (*summary, error) {
	if summarizer == nil {
		return nil, errors.New("summarizer is not configured")
	}
	if limit <= 0 {
		limit = DefaultSummaryHistory
	}
	if log == nil {
		log = history.NewLog(limit)
	}
	return &summary{
		summarizer: summarizer,
		log:        log,
		keywords:   DefaultSummaryKeywords,
		limit:      limit,
		now:        time.Now,
	}, nil
}

func (*summary) Name() string { return SummaryName }

func (h *summary) ShouldProcess(ctx context.Context, pc *pipeline.Context) (bool, error) {
	msg := pc.Message
	text := msg.Content()
	if text == "" {
		return false, nil
	}

	if h.isRequest(text) {
		slog.InfoContext(ctx, "Summary requested", "chatID", msg.ChatID)
		return true, nil
	}

	h.log.Add(msg.ChatID, h.entry(msg, text))
	return false, nil
}

func (h *summary) Process(ctx context.Context, pc *pipeline.Context) error {
	defer pc.Stop()

	chatID := pc.Message.ChatID
	chatAction(ctx, pc, domain.ChatActionTyping)

	entries := h.log.Get(chatID, h.limit)
	pc.Set(KeySummaryMessages, len(entries))
	if len(entries) == 0 {
		reply(ctx, pc, "No messages to summarize yet.")
		return nil
	}

	slog.InfoContext(ctx, "Generating summary", "chatID", chatID, "messages", len(entries))

	text, err := h.summarizer.Summarize(ctx, Transcript(entries))
	if err != nil {
		slog.ErrorContext(ctx, "Generating summary", "chatID", chatID, logger.Err(err))
		reply(ctx, pc, "Sorry, I couldn't generate a summary. Please try again later.")
		return nil
	}

	replyMarkdown(ctx, pc, text)
	return nil
}

func (h *summary) isRequest(text string) bool {
	lower := strings.ToLower(text)
	return lo.SomeBy(h.keywords, func(k string) bool {
		return strings.Contains(lower, strings.ToLower(k))
	})
}

func (h *summary) entry(msg *domain.Message, text string) history.Entry {
	e := history.Entry{
		UserID:    msg.Sender.ID,
		Username:  pickName("Unknown", msg.Sender.Username, msg.Sender.FirstName),
		Text:      text,
		Time:      msg.Date,
		Forwarded: msg.IsForwarded(),
	}
	if e.Forwarded {
		from := msg.ForwardedFrom
		e.UserID = from.ID
		e.Username = pickName(forwardedName, from.Username, from.FirstName)
	}
	if e.Time.IsZero() {
		e.Time = h.now()
	}
	return e
}

func pickName(fallback string, names ...string) string {
	return lo.FindOrElse(names, fallback, func(n string) bool { return n != "" })
}

// Transcript renders entries as "[2006-01-02 15:04] @user: text" lines followed by the request.
func Transcript(entries []history.Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s] @%s: %s", e.Time.Format("2006-01-02 15:04"), e.Username, e.Text)
	}
	sb.WriteString("\n\nPlease summarize the above conversation.")
	return sb.String()
}
