package handlers

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/render"
)

var catEmojis = []string{"😺", "😸", "😹", "😻", "😼", "😽", "🙀", "😿", "😾", "🐱"}

func randomCatEmoji() string {
	return lo.Sample(catEmojis)
}

// reply answers the message in plain text. Delivery failures are logged, never returned.
func reply(ctx context.Context, pc *pipeline.Context, text string) {
	msg := pc.Message
	if err := pc.Bot.SendText(ctx, msg.ChatID, msg.ID, text, domain.PlainText); err != nil {
		slog.ErrorContext(ctx, "Sending reply", "chatID", msg.ChatID, logger.Err(err))
	}
}

// replyMarkdown renders LLM markdown as Telegram HTML, splitting long answers. A chunk Telegram
// refuses as HTML is resent as its markdown source in plain text.
func replyMarkdown(ctx context.Context, pc *pipeline.Context, markdown string) {
	msg := pc.Message
	for _, chunk := range render.Chunks(markdown, render.MaxMessageLength) {
		err := pc.Bot.SendText(ctx, msg.ChatID, msg.ID, chunk.HTML, domain.HTML)
		if err == nil {
			continue
		}

		slog.WarnContext(ctx, "Sending HTML reply failed, falling back to plain text", logger.Err(err))
		if err := pc.Bot.SendText(ctx, msg.ChatID, msg.ID, chunk.Text, domain.PlainText); err != nil {
			slog.ErrorContext(ctx, "Sending reply", "chatID", msg.ChatID, logger.Err(err))
		}
	}
}

func chatAction(ctx context.Context, pc *pipeline.Context, action domain.ChatAction) {
	if err := pc.Bot.SendChatAction(ctx, pc.Message.ChatID, action); err != nil {
		slog.WarnContext(ctx, "Sending chat action", "action", action, logger.Err(err))
	}
}
