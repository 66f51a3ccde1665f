package handlers

import (
	"context"
	"sync"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/video"
)

type sentText struct {
	chatID  int64
	replyTo int
	text    string
	mode    domain.ParseMode
}

type sentVideo struct {
	chatID  int64
	replyTo int
	file    domain.File
	caption string
}

type fakeBot struct {
	mu sync.Mutex

	identity      domain.BotIdentity
	identityErr   error
	identityCalls int
	htmlErr       error
	videoErr      error

	texts   []sentText
	videos  []sentVideo
	actions []domain.ChatAction
}

func (b *fakeBot) Identity(context.Context) (domain.BotIdentity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identityCalls++
	return b.identity, b.identityErr
}

func (b *fakeBot) SendText(_ context.Context, chatID int64, replyTo int, text string, mode domain.ParseMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mode == domain.HTML && b.htmlErr != nil {
		return b.htmlErr
	}
	b.texts = append(b.texts, sentText{chatID: chatID, replyTo: replyTo, text: text, mode: mode})
	return nil
}

func (b *fakeBot) SendVideo(_ context.Context, chatID int64, replyTo int, file domain.File, caption string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.videoErr != nil {
		return b.videoErr
	}
	b.videos = append(b.videos, sentVideo{chatID: chatID, replyTo: replyTo, file: file, caption: caption})
	return nil
}

func (b *fakeBot) SendChatAction(_ context.Context, _ int64, action domain.ChatAction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions = append(b.actions, action)
	return nil
}

type routerFunc func(ctx context.Context, text string) video.Outcome

func (f routerFunc) Route(ctx context.Context, text string) video.Outcome { return f(ctx, text) }

type fakeDownloader struct {
	data []byte
	err  error
	got  string
}

func (d *fakeDownloader) Download(_ context.Context, videoURL string) ([]byte, error) {
	d.got = videoURL
	return d.data, d.err
}

type fakeModel struct {
	answer string
	err    error
	system string
	turns  [][]history.Turn
}

func (m *fakeModel) Chat(_ context.Context, system string, turns []history.Turn) (string, error) {
	m.system = system
	m.turns = append(m.turns, turns)
	return m.answer, m.err
}

type fakeSummarizer struct {
	summary    string
	err        error
	transcript string
	calls      int
}

func (s *fakeSummarizer) Summarize(_ context.Context, transcript string) (string, error) {
	s.calls++
	s.transcript = transcript
	return s.summary, s.err
}
