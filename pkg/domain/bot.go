package domain

import "context"

type ChatAction string

const (
	ChatActionTyping      ChatAction = "typing"
	ChatActionUploadVideo ChatAction = "upload_video"
)

// BotIdentity is who the bot is on the platform, used by mention and reply triggers.
type BotIdentity struct {
	ID       int64
	Username string
}

type File struct {
	Name string
	Data []byte
}

// Bot is the outbound surface handlers reply through. Delivery is fire and forget from the
// pipeline's point of view: callers log failures and move on.
type Bot interface {
	Identity(ctx context.Context) (BotIdentity, error)
	SendText(ctx context.Context, chatID int64, replyTo int, text string, mode ParseMode) error
	SendVideo(ctx context.Context, chatID int64, replyTo int, video File, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action ChatAction) error
}
