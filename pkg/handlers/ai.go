package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/trigger"
)

const (
	AIName           = "AI_HANDLER"
	DefaultAIHistory = 50

	aiHelpText = "Meow! I can't help you without a message, friend.\n" +
		"Please tell me something after the command, in a reply, or when mentioning me.\n" +
		"Example: /cat What is the weather today?"
	aiErrorText = "Sorry, I encountered an error processing your request. Please try again later."
)

type ai struct {
	model        ChatModel
	triggers     TriggerChecker
	conversation *history.Conversation
	systemPrompt string

	mu       sync.Mutex
	identity *domain.BotIdentity
}

// NewAI answers messages addressed to the bot, keeping a rolling conversation per chat.
func NewAI(
	model ChatModel,
	triggers TriggerChecker,
	conversation *history.Conversation,
	systemPrompt string,
) (*ai, error) {
	if model == nil {
		return nil, errors.New("chat model is not configured")
	}
	if triggers == nil {
		return nil, errors.New("triggers are not configured")
	}
	if conversation == nil {
		conversation = history.NewConversation(DefaultAIHistory, 0)
	}
	return &ai{
		model:        model,
		triggers:     triggers,
		conversation: conversation,
		systemPrompt: systemPrompt,
	}, nil
}

func (*ai) Name() string { return AIName }

func (h *ai) ShouldProcess(ctx context.Context, pc *pipeline.Context) (bool, error) {
	if pc.Text() == "" {
		return false, nil
	}

	m, ok := h.triggers.Check(ctx, pc.Message, h.botIdentity(ctx, pc.Bot))
	if !ok {
		return false, nil
	}

	pc.Set(KeyAITrigger, m.Trigger)
	pc.Set(KeyAIUserMessage, m.Payload)
	return true, nil
}

func (h *ai) Process(ctx context.Context, pc *pipeline.Context) error {
	defer pc.Stop()

	msg := pc.Message
	payload, ok := pc.GetString(KeyAIUserMessage)
	if !ok {
		return errors.New("no user message in context")
	}

	trig, _ := pc.GetString(KeyAITrigger)
	slog.InfoContext(ctx, "Processing AI message", "userID", msg.Sender.ID, "trigger", trig)

	if (trigger.Match{Payload: payload}).Empty() {
		reply(ctx, pc, aiHelpText)
		return nil
	}

	chatAction(ctx, pc, domain.ChatActionTyping)

	user := history.Turn{Role: history.RoleUser, Content: payload}
	turns := append(h.conversation.Get(msg.ChatID), user)

	answer, err := h.model.Chat(ctx, h.systemPrompt, turns)
	if err != nil {
		slog.ErrorContext(ctx, "Generating AI response", "chatID", msg.ChatID, logger.Err(err))
		reply(ctx, pc, aiErrorText)
		return nil
	}

	h.conversation.AddPair(msg.ChatID, user.Content, answer)

	replyMarkdown(ctx, pc, answer)
	return nil
}

// botIdentity resolves the bot's own identity once. Until it succeeds mention and reply
// triggers cannot match, but commands still work.
func (h *ai) botIdentity(ctx context.Context, bot domain.Bot) domain.BotIdentity {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.identity != nil {
		return *h.identity
	}
	if bot == nil {
		return domain.BotIdentity{}
	}

	id, err := bot.Identity(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Resolving bot identity", logger.Err(err))
		return domain.BotIdentity{}
	}

	slog.InfoContext(ctx, "Bot identity resolved", "id", id.ID, "username", id.Username)
	h.identity = &id
	return id
}
