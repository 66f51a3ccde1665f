package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dskvich/whitecat-bot/pkg/auth"
	"github.com/dskvich/whitecat-bot/pkg/handlers"
	"github.com/dskvich/whitecat-bot/pkg/history"
	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/openai"
	"github.com/dskvich/whitecat-bot/pkg/pipeline"
	"github.com/dskvich/whitecat-bot/pkg/registry"
	"github.com/dskvich/whitecat-bot/pkg/telegram"
	"github.com/dskvich/whitecat-bot/pkg/trigger"
	"github.com/dskvich/whitecat-bot/pkg/video"
	"github.com/dskvich/whitecat-bot/pkg/video/services"
	"github.com/dskvich/whitecat-bot/pkg/workers"
)

type Config struct {
	TelegramBotToken               string  `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramAuthorizedUserIDs      []int64 `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	TelegramUpdateListenerPoolSize int     `env:"TELEGRAM_UPDATE_LISTENER_POOL_SIZE" envDefault:"10"`
	BotUsername                    string  `env:"BOT_USERNAME" envDefault:"@white_cat_downloader_bot"`

	PipelineStopOnError bool  `env:"PIPELINE_STOP_ON_ERROR" envDefault:"true"`
	VideoStopOnNoURL    bool  `env:"VIDEO_STOP_ON_NO_URL" envDefault:"false"`
	VideoMaxFileSizeMB  int64 `env:"VIDEO_MAX_FILE_SIZE_MB" envDefault:"100"`

	OpenAIKey           string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `env:"OPENAI_BASE_URL"`
	AIModel             string        `env:"AI_MODEL"`
	SummaryModel        string        `env:"SUMMARY_MODEL"`
	AISystemInstruction string        `env:"AI_SYSTEM_INSTRUCTION_FILE"`
	AICommands          []string      `env:"AI_COMMANDS" envSeparator:" " envDefault:"/cat /кіт"`
	AIHistorySize       int           `env:"AI_HISTORY_SIZE" envDefault:"50"`
	AIHistoryTTL        time.Duration `env:"AI_HISTORY_TTL" envDefault:"24h"`
	SummaryHistorySize  int           `env:"SUMMARY_HISTORY_SIZE" envDefault:"200"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"WARNING"`
	LogNoColor bool   `env:"LOG_NO_COLOR"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg, err := parseConfig(nil)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	workerGroup, err := setupWorkers(ctx, cfg)
	if err != nil {
		return err
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

// parseConfig reads the process environment, or the given map when it is not nil.
func parseConfig(environment map[string]string) (Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

func setupLogger(cfg Config) {
	opts := *logger.DefaultOptions
	opts.Level = logger.ParseLevel(cfg.LogLevel)
	opts.NoColor = cfg.LogNoColor
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &opts)))
}

// loadSystemPrompt reads the AI persona from path, falling back to the built-in one when the
// path is unset, unreadable or blank.
func loadSystemPrompt(path string) string {
	if path == "" {
		return openai.DefaultSystemPrompt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("reading system instruction file, using default", "path", path, logger.Err(err))
		return openai.DefaultSystemPrompt
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		slog.Warn("system instruction file is empty, using default", "path", path)
		return openai.DefaultSystemPrompt
	}
	return prompt
}

func setupWorkers(ctx context.Context, cfg Config) (workers.Group, error) {
	var workerGroup workers.Group

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	deps, err := setupDeps(ctx, cfg)
	if err != nil {
		return nil, err
	}

	handlerList, err := handlers.Load(ctx, handlers.Table(deps))
	if err != nil {
		return nil, fmt.Errorf("loading handlers: %w", err)
	}

	engine := pipeline.New(pipeline.WithStopOnError(cfg.PipelineStopOnError))
	for _, h := range handlerList {
		engine.Add(h)
	}

	worker, err := workers.NewUpdateListener(
		telegramClient,
		telegramClient,
		authenticator,
		engine,
		cfg.TelegramUpdateListenerPoolSize,
	)
	if err != nil {
		return nil, fmt.Errorf("creating update listener: %w", err)
	}
	workerGroup = append(workerGroup, worker)

	return workerGroup, nil
}

// setupDeps builds what the handlers need. Anything left unset makes its handler drop out of
// discovery instead of failing startup.
func setupDeps(ctx context.Context, cfg Config) (handlers.Deps, error) {
	deps := handlers.Deps{
		BotUsername:    cfg.BotUsername,
		StopOnNoURL:    cfg.VideoStopOnNoURL,
		Conversation:   history.NewConversation(cfg.AIHistorySize, cfg.AIHistoryTTL),
		SystemPrompt:   loadSystemPrompt(cfg.AISystemInstruction),
		SummaryLog:     history.NewLog(cfg.SummaryHistorySize),
		SummaryHistory: cfg.SummaryHistorySize,
	}

	router, err := services.Load(ctx, services.Table())
	switch {
	case err == nil:
		deps.VideoRouter = router
		deps.Downloader = video.NewDownloader(nil, cfg.VideoMaxFileSizeMB<<20)
	case errors.Is(err, video.ErrNoServices), errors.Is(err, registry.ErrNoneFound):
		slog.WarnContext(ctx, "no video services available, video downloads disabled", logger.Err(err))
	default:
		return handlers.Deps{}, fmt.Errorf("loading video services: %w", err)
	}

	if cfg.OpenAIKey == "" {
		slog.WarnContext(ctx, "OPENAI_API_KEY not set, AI and summary handlers disabled")
		return deps, nil
	}

	opts := []openai.Option{
		openai.WithModel(cfg.AIModel),
		openai.WithSummaryModel(cfg.SummaryModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openAIClient, err := openai.NewClient(cfg.OpenAIKey, opts...)
	if err != nil {
		return handlers.Deps{}, fmt.Errorf("creating open ai client: %w", err)
	}
	deps.Chat = openAIClient
	deps.Summarizer = openAIClient

	triggers, err := trigger.Load(ctx, trigger.Table(cfg.AICommands))
	if err != nil {
		slog.WarnContext(ctx, "no AI triggers available", logger.Err(err))
		return deps, nil
	}
	deps.Triggers = triggers

	return deps, nil
}
