package handlers

import (
	"context"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/trigger"
	"github.com/dskvich/whitecat-bot/pkg/video"
)

type VideoRouter interface {
	Route(ctx context.Context, text string) video.Outcome
}

type VideoDownloader interface {
	Download(ctx context.Context, videoURL string) ([]byte, error)
}

type ChatModel interface {
	Chat(ctx context.Context, system string, turns []history.Turn) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type TriggerChecker interface {
	Check(ctx context.Context, msg *domain.Message, id domain.BotIdentity) (trigger.Match, bool)
}
