package handlers

import (
	"context"
	"fmt"

	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/registry"
)

// Deps is everything the handlers may need. A handler whose dependency is missing fails to
// construct and is left out of the pipeline.
type Deps struct {
	VideoRouter VideoRouter
	Downloader  VideoDownloader
	BotUsername string
	StopOnNoURL bool

	Chat         ChatModel
	Triggers     TriggerChecker
	Conversation *history.Conversation
	SystemPrompt string

	Summarizer     Summarizer
	SummaryLog     *history.Log
	SummaryHistory int
}

func Table(deps Deps) *registry.Table[pipeline.Handler] {
	return registry.NewTable(
		registry.Unit[pipeline.Handler]{
			Name:            VideoDownloadName,
			DefaultPriority: 100,
			New: func(registry.Config) (pipeline.Handler, error) {
				return NewVideoDownload(deps.VideoRouter, deps.Downloader, deps.BotUsername, deps.StopOnNoURL)
			},
		},
		registry.Unit[pipeline.Handler]{
			Name:            SummaryName,
			DefaultPriority: 90,
			New: func(registry.Config) (pipeline.Handler, error) {
				return NewSummary(deps.Summarizer, deps.SummaryLog, deps.SummaryHistory)
			},
		},
		registry.Unit[pipeline.Handler]{
			Name:            AIName,
			DefaultPriority: 80,
			New: func(registry.Config) (pipeline.Handler, error) {
				return NewAI(deps.Chat, deps.Triggers, deps.Conversation, deps.SystemPrompt)
			},
		},
	)
}

// Load discovers the enabled handlers in pipeline order.
func Load(ctx context.Context, table *registry.Table[pipeline.Handler], opts ...registry.Option) ([]pipeline.Handler, error) {
	entries, err := registry.Discover(ctx, table, opts...)
	if err != nil {
		return nil, fmt.Errorf("discovering handlers: %w", err)
	}
	return registry.Values(entries), nil
}
