package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/telegram"
)

type UpdateSource interface {
	Updates() tgbotapi.UpdatesChannel
	StopUpdates()
}

type Authenticator interface {
	IsAuthorized(userID int64) bool
}

type Pipeline interface {
	Run(ctx context.Context, msg *domain.Message, bot domain.Bot) *pipeline.Context
}

type updateListener struct {
	source        UpdateSource
	bot           domain.Bot
	authenticator Authenticator
	pipeline      Pipeline
	slots         chan struct{}
	wg            sync.WaitGroup
}

// NewUpdateListener feeds every incoming message through the pipeline, at most poolSize at a
// time. Messages of the same chat may run concurrently.
func NewUpdateListener(
	source UpdateSource,
	bot domain.Bot,
	authenticator Authenticator,
	runner Pipeline,
	poolSize int,
) (*updateListener, error) {
	if source == nil || bot == nil || runner == nil {
		return nil, fmt.Errorf("update listener: source, bot and pipeline are required")
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	return &updateListener{
		source:        source,
		bot:           bot,
		authenticator: authenticator,
		pipeline:      runner,
		slots:         make(chan struct{}, poolSize),
	}, nil
}

func (t *updateListener) Name() string { return "telegram_update_listener" }

func (t *updateListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", t.Name())
	defer slog.Info("Worker stopped", "name", t.Name())

	updates := t.source.Updates()

	for {
		select {
		case <-ctx.Done():
			t.source.StopUpdates()
			t.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return nil
			}

			select {
			case t.slots <- struct{}{}:
			case <-ctx.Done():
				continue
			}

			t.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer t.wg.Done()
				defer func() { <-t.slots }()
				// In-flight messages are finished even while shutting down.
				t.processUpdate(context.WithoutCancel(ctx), &update)
			}(update)
		}
	}
}

func (t *updateListener) processUpdate(ctx context.Context, update *tgbotapi.Update) {
	ctx = logger.ContextWithRequestID(ctx, int64(update.UpdateID))

	msg := telegram.ToMessage(update.Message)
	if msg == nil {
		slog.DebugContext(ctx, "Skipping non-message update")
		return
	}

	slog.InfoContext(ctx, "Processing update", "chatID", msg.ChatID, "userID", msg.Sender.ID)

	if t.authenticator != nil && !t.authenticator.IsAuthorized(msg.Sender.ID) {
		slog.WarnContext(ctx, "Unauthorized access attempt")
		text := fmt.Sprintf("User ID %d is not authorized", msg.Sender.ID)
		if err := t.bot.SendText(ctx, msg.ChatID, msg.ID, text, domain.PlainText); err != nil {
			slog.ErrorContext(ctx, "Sending reply", logger.Err(err))
		}
		return
	}

	pc := t.pipeline.Run(ctx, msg, t.bot)
	slog.DebugContext(ctx, "Pipeline finished", "run", pc.ID, "state", pc.State())
}
