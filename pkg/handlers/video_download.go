package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/video"
)

const (
	VideoDownloadName  = "VIDEO_DOWNLOAD"
	DefaultBotUsername = "@white_cat_downloader_bot"
)

type videoDownload struct {
	router      VideoRouter
	downloader  VideoDownloader
	botUsername string
	stopOnNoURL bool
}

// NewVideoDownload replies with the video behind the first supported link in a message. When
// no link is recognized the message is passed on, unless stopOnNoURL is set.
func NewVideoDownload(
	router VideoRouter,
	downloader VideoDownloader,
	botUsername string,
	stopOnNoURL bool,
) (*videoDownload, error) {
	if router == nil {
		return nil, errors.New("video router is not configured")
	}
	if downloader == nil {
		return nil, errors.New("video downloader is not configured")
	}
	if botUsername == "" {
		botUsername = DefaultBotUsername
	}
	return &videoDownload{
		router:      router,
		downloader:  downloader,
		botUsername: botUsername,
		stopOnNoURL: stopOnNoURL,
	}, nil
}

func (*videoDownload) Name() string { return VideoDownloadName }

func (*videoDownload) ShouldProcess(_ context.Context, pc *pipeline.Context) (bool, error) {
	return pc.Text() != "", nil
}

func (h *videoDownload) Process(ctx context.Context, pc *pipeline.Context) error {
	msg := pc.Message
	slog.InfoContext(ctx, "Looking for video links",
		"messageID", msg.ID,
		"chat", msg.ChatTitle,
		"chatID", msg.ChatID,
		"user", msg.Sender.DisplayName(),
	)

	out := h.router.Route(ctx, pc.Text())

	switch out.Kind {
	case video.NoMatch:
		pc.Set(KeyVideoURLFound, false)
		if h.stopOnNoURL {
			pc.Stop()
		}
		return nil

	case video.ProvidersExhausted:
		pc.Set(KeyVideoURLFound, true)
		pc.Set(KeyServiceName, out.Service)
		pc.Set(KeyVideoError, VideoErrorProvidersFailed)
		reply(ctx, pc, h.sign(fmt.Sprintf(
			"😿 Meow! I couldn't fetch this video. All my providers failed! "+
				"The video might be private, deleted, or the URL might be incorrect. %s", randomCatEmoji())))
		pc.Stop()
		return nil
	}

	slog.InfoContext(ctx, "Video URL obtained",
		"service", out.Service,
		"provider", out.ProviderName,
		"rank", out.ProviderRank,
	)

	pc.Set(KeyVideoURLFound, true)
	pc.Set(KeyVideoURL, out.VideoURL)
	pc.Set(KeyServiceName, out.Service)
	pc.Set(KeyProviderNum, out.ProviderRank)
	pc.Set(KeyProviderName, out.ProviderName)

	h.deliver(ctx, pc, out)
	pc.Stop()
	return nil
}

func (h *videoDownload) deliver(ctx context.Context, pc *pipeline.Context, out video.Outcome) {
	msg := pc.Message

	chatAction(ctx, pc, domain.ChatActionUploadVideo)

	data, err := h.downloader.Download(ctx, out.VideoURL)
	if err != nil {
		kind, text := h.downloadFailure(err)
		slog.WarnContext(ctx, "Video download failed", "kind", kind, logger.Err(err))
		pc.Set(KeyVideoError, kind)
		reply(ctx, pc, text)
		return
	}

	pc.Set(KeyVideoDownloaded, true)
	pc.Set(KeyVideoSize, len(data))

	caption := fmt.Sprintf("Downloaded by %s\n%s #%d", h.botUsername, out.Service, out.ProviderRank)
	if err := pc.Bot.SendVideo(ctx, msg.ChatID, msg.ID, domain.File{Name: "video.mp4", Data: data}, caption); err != nil {
		slog.ErrorContext(ctx, "Sending video", "size", len(data), logger.Err(err))
		pc.Set(KeyVideoError, VideoErrorSendFailed)
		reply(ctx, pc, h.sign(fmt.Sprintf("😿 Oops! Something went wrong. This White Cat got confused! %s", randomCatEmoji())))
		return
	}

	pc.Set(KeyVideoSent, true)
	slog.InfoContext(ctx, "Video sent", "service", out.Service, "provider", out.ProviderName, "size", len(data))
}

func (h *videoDownload) downloadFailure(err error) (string, string) {
	emoji := randomCatEmoji()
	switch {
	case errors.Is(err, video.ErrTooLarge):
		return VideoErrorTooLarge, h.sign(fmt.Sprintf("😿 Meow! This video is too big for my tiny paws! %s", emoji))
	case errors.Is(err, video.ErrNotFound):
		return VideoErrorNotFound, h.sign(fmt.Sprintf(
			"😿 Meow! I couldn't find this video. The URL might be incorrect "+
				"or the video may have been deleted! %s", emoji))
	default:
		return VideoErrorDownloadFailed, h.sign(fmt.Sprintf("😿 Meow! Video download failed. Something went wrong! %s", emoji))
	}
}

func (h *videoDownload) sign(text string) string {
	return text + "\n\n" + h.botUsername
}
