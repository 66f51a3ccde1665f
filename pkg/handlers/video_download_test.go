package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/video"
)

const botName = "@test_cat_bot"

func videoMessage(text string) *domain.Message {
	return &domain.Message{ID: 42, ChatID: 100, Text: text, Sender: domain.User{ID: 1, Username: "alice"}}
}

func route(out video.Outcome) routerFunc {
	return func(context.Context, string) video.Outcome { return out }
}

func runVideo(t *testing.T, h *videoDownload, bot *fakeBot, text string) *pipeline.Context {
	t.Helper()
	pc := pipeline.NewContext(videoMessage(text), bot)

	ok, err := h.ShouldProcess(context.Background(), pc)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, h.Process(context.Background(), pc))
	return pc
}

func TestNewVideoDownload_RequiresDependencies(t *testing.T) {
	_, err := NewVideoDownload(nil, &fakeDownloader{}, botName, false)
	assert.Error(t, err)
	_, err = NewVideoDownload(route(video.Outcome{}), nil, botName, false)
	assert.Error(t, err)

	h, err := NewVideoDownload(route(video.Outcome{}), &fakeDownloader{}, "", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultBotUsername, h.botUsername)
}

func TestVideoDownload_SkipsMessagesWithoutText(t *testing.T) {
	h, err := NewVideoDownload(route(video.Outcome{}), &fakeDownloader{}, botName, false)
	require.NoError(t, err)

	ok, err := h.ShouldProcess(context.Background(), pipeline.NewContext(&domain.Message{Caption: "photo"}, &fakeBot{}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVideoDownload_NoMatch(t *testing.T) {
	for _, stop := range []bool{false, true} {
		t.Run(fmt.Sprintf("stopOnNoURL=%v", stop), func(t *testing.T) {
			bot := &fakeBot{}
			h, err := NewVideoDownload(route(video.Outcome{Kind: video.NoMatch}), &fakeDownloader{}, botName, stop)
			require.NoError(t, err)

			pc := runVideo(t, h, bot, "just chatting")

			found, _ := pc.Get(KeyVideoURLFound)
			assert.Equal(t, false, found)
			assert.Equal(t, !stop, pc.ShouldContinue)
			assert.Empty(t, bot.texts)
			assert.Empty(t, bot.actions)
		})
	}
}

func TestVideoDownload_ProvidersExhausted(t *testing.T) {
	bot := &fakeBot{}
	dl := &fakeDownloader{}
	h, err := NewVideoDownload(route(video.Outcome{Kind: video.ProvidersExhausted, Service: "TIKTOK"}), dl, botName, false)
	require.NoError(t, err)

	pc := runVideo(t, h, bot, "https://vm.tiktok.com/x")

	assert.False(t, pc.ShouldContinue)
	require.Len(t, bot.texts, 1)
	assert.True(t, strings.HasPrefix(bot.texts[0].text, "😿 Meow! I couldn't fetch this video. All my providers failed!"))
	assert.True(t, strings.HasSuffix(bot.texts[0].text, "\n\n"+botName))
	assert.Equal(t, 42, bot.texts[0].replyTo)
	errKind, _ := pc.GetString(KeyVideoError)
	assert.Equal(t, VideoErrorProvidersFailed, errKind)
	assert.Empty(t, dl.got)
}

func resolved() video.Outcome {
	return video.Outcome{
		Kind:    video.Resolved,
		Service: "TIKTOK",
		URL:     "https://vm.tiktok.com/x",
		Resolution: video.Resolution{
			VideoURL:     "https://cdn/v.mp4",
			ProviderRank: 2,
			ProviderName: "TikTok-NoWatermark2",
		},
	}
}

func TestVideoDownload_Resolved(t *testing.T) {
	bot := &fakeBot{}
	dl := &fakeDownloader{data: []byte("mp4 bytes")}
	h, err := NewVideoDownload(route(resolved()), dl, botName, false)
	require.NoError(t, err)

	pc := runVideo(t, h, bot, "look https://vm.tiktok.com/x")

	assert.False(t, pc.ShouldContinue)
	assert.Equal(t, "https://cdn/v.mp4", dl.got)
	assert.Equal(t, []domain.ChatAction{domain.ChatActionUploadVideo}, bot.actions)

	require.Len(t, bot.videos, 1)
	assert.Equal(t, "Downloaded by @test_cat_bot\nTIKTOK #2", bot.videos[0].caption)
	assert.Equal(t, []byte("mp4 bytes"), bot.videos[0].file.Data)
	assert.Equal(t, int64(100), bot.videos[0].chatID)
	assert.Equal(t, 42, bot.videos[0].replyTo)
	assert.Empty(t, bot.texts)

	assert.Equal(t, map[string]any{
		KeyVideoURLFound:   true,
		KeyVideoURL:        "https://cdn/v.mp4",
		KeyServiceName:     "TIKTOK",
		KeyProviderNum:     2,
		KeyProviderName:    "TikTok-NoWatermark2",
		KeyVideoDownloaded: true,
		KeyVideoSize:       9,
		KeyVideoSent:       true,
	}, pc.Data)
}

func TestVideoDownload_DownloadFailures(t *testing.T) {
	tests := []struct {
		err      error
		wantKind string
		wantText string
	}{
		{err: fmt.Errorf("%w: 120MB", video.ErrTooLarge), wantKind: VideoErrorTooLarge, wantText: "too big for my tiny paws"},
		{err: video.ErrNotFound, wantKind: VideoErrorNotFound, wantText: "I couldn't find this video"},
		{err: errors.New("connection reset"), wantKind: VideoErrorDownloadFailed, wantText: "Video download failed"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKind, func(t *testing.T) {
			bot := &fakeBot{}
			h, err := NewVideoDownload(route(resolved()), &fakeDownloader{err: tt.err}, botName, false)
			require.NoError(t, err)

			pc := runVideo(t, h, bot, "https://vm.tiktok.com/x")

			assert.False(t, pc.ShouldContinue)
			kind, _ := pc.GetString(KeyVideoError)
			assert.Equal(t, tt.wantKind, kind)
			require.Len(t, bot.texts, 1)
			assert.Contains(t, bot.texts[0].text, tt.wantText)
			assert.True(t, strings.HasSuffix(bot.texts[0].text, "\n\n"+botName))
			assert.Empty(t, bot.videos)
		})
	}
}

func TestVideoDownload_SendFailure(t *testing.T) {
	bot := &fakeBot{videoErr: errors.New("request entity too large")}
	h, err := NewVideoDownload(route(resolved()), &fakeDownloader{data: []byte("x")}, botName, false)
	require.NoError(t, err)

	pc := runVideo(t, h, bot, "https://vm.tiktok.com/x")

	assert.False(t, pc.ShouldContinue)
	kind, _ := pc.GetString(KeyVideoError)
	assert.Equal(t, VideoErrorSendFailed, kind)
	_, sent := pc.Get(KeyVideoSent)
	assert.False(t, sent)
	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0].text, "This White Cat got confused!")
}

func TestRandomCatEmoji(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, catEmojis, randomCatEmoji())
	}
}
