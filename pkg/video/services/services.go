// Package services declares the supported video platforms and the providers behind each of them.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dskvich/whitecat-bot/pkg/logger"
	"github.com/dskvich/whitecat-bot/pkg/registry"
	"github.com/dskvich/whitecat-bot/pkg/video"
	"github.com/dskvich/whitecat-bot/pkg/video/providers"
)

const (
	Instagram = "INSTAGRAM"
	TikTok    = "TIKTOK"
)

var (
	InstagramPattern = regexp.MustCompile(`https?://(?:www\.)?instagram\.com/(?:reels?|p|stories)/[A-Za-z0-9_-]+(?:/[^\s]*)?`)
	TikTokPattern    = regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[\w.-]+/video/\d+|https?://(?:vm|vt)\.tiktok\.com/[\w-]+`)
)

// Definition is an unconstructed service: what it recognizes and which providers may back it.
type Definition struct {
	Pattern   *regexp.Regexp
	Providers *registry.Table[video.Provider]
}

// Table returns the registered services. providerOpts are passed to every provider constructor.
func Table(providerOpts ...providers.Option) *registry.Table[Definition] {
	return registry.NewTable(
		registry.Unit[Definition]{
			Name:            Instagram,
			DefaultPriority: 80,
			New: func(registry.Config) (Definition, error) {
				return Definition{Pattern: InstagramPattern, Providers: InstagramProviders(providerOpts...)}, nil
			},
		},
		registry.Unit[Definition]{
			Name:            TikTok,
			DefaultPriority: 70,
			New: func(registry.Config) (Definition, error) {
				return Definition{Pattern: TikTokPattern, Providers: TikTokProviders(providerOpts...)}, nil
			},
		},
	)
}

func InstagramProviders(opts ...providers.Option) *registry.Table[video.Provider] {
	return registry.NewTable(
		providerUnit("INSTAGRAM120", 80, func(key string) (video.Provider, error) {
			return providers.NewInstagram120(key, opts...)
		}),
		providerUnit("INSTAGRAM_DOWNLOADER", 50, func(key string) (video.Provider, error) {
			return providers.NewInstagramDownloader(key, opts...)
		}),
		providerUnit("INSTAGRAM_LOOTER2", 50, func(key string) (video.Provider, error) {
			return providers.NewInstagramLooter2(key, opts...)
		}),
	)
}

func TikTokProviders(opts ...providers.Option) *registry.Table[video.Provider] {
	return registry.NewTable(
		providerUnit("TIKTOK_API1", 90, func(key string) (video.Provider, error) {
			return providers.NewTikTokAPI1(key, opts...)
		}),
		providerUnit("TIKTOK_NOWATERMARK2", 85, func(key string) (video.Provider, error) {
			return providers.NewTikTokNoWatermark2(key, opts...)
		}),
	)
}

func providerUnit(name string, priority int, newFn func(apiKey string) (video.Provider, error)) registry.Unit[video.Provider] {
	return registry.Unit[video.Provider]{
		Name:               name,
		DefaultPriority:    priority,
		RequiresCredential: true,
		New: func(cfg registry.Config) (video.Provider, error) {
			return newFn(cfg.APIKey)
		},
	}
}

// Load discovers the enabled services, then the providers of each one, and builds the router.
// A service left without providers is dropped with a warning.
func Load(ctx context.Context, table *registry.Table[Definition], opts ...registry.Option) (*video.Router, error) {
	defs, err := registry.Discover(ctx, table, opts...)
	if err != nil {
		return nil, fmt.Errorf("discovering video services: %w", err)
	}

	var built []*video.Service
	for _, def := range defs {
		entries, err := registry.Discover(ctx, def.Value.Providers, opts...)
		if errors.Is(err, registry.ErrNoneFound) {
			slog.WarnContext(ctx, "Video service has no providers, skipping", "service", def.Name)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Discovering providers failed", "service", def.Name, logger.Err(err))
			continue
		}

		svc := video.NewService(def.Name, def.Value.Pattern, def.Priority, registry.Values(entries))
		slog.InfoContext(ctx, "Loaded video service",
			"service", svc.Name(),
			"priority", svc.Priority(),
			"providers", len(entries),
		)
		built = append(built, svc)
	}

	return video.NewRouter(built...)
}
