package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dskvich/whitecat-bot/pkg/logger"
)

var errEmptyVideoURL = errors.New("provider returned no video url")

// Resolution is a successful provider answer. ProviderRank is the 1-based position of the
// provider in the service's fallback order.
type Resolution struct {
	VideoURL     string
	ProviderRank int
	ProviderName string
}

// Service recognizes the URLs of one platform and owns the providers that can fetch them.
type Service struct {
	name      string
	pattern   *regexp.Regexp
	priority  int
	providers []Provider
}

// NewService expects providers already ordered by descending priority.
func NewService(name string, pattern *regexp.Regexp, priority int, providers []Provider) *Service {
	return &Service{
		name:      name,
		pattern:   pattern,
		priority:  priority,
		providers: append([]Provider(nil), providers...),
	}
}

func (s *Service) Name() string { return s.name }

func (s *Service) Priority() int { return s.priority }

func (s *Service) Pattern() string {
	if s.pattern == nil {
		return ""
	}
	return s.pattern.String()
}

func (s *Service) Providers() []Provider {
	return append([]Provider(nil), s.providers...)
}

func (s *Service) Matches(text string) bool {
	return s.pattern != nil && s.pattern.MatchString(text)
}

// ExtractURL returns the first substring of text the service recognizes.
func (s *Service) ExtractURL(text string) (string, bool) {
	if s.pattern == nil || text == "" {
		return "", false
	}
	loc := s.pattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// Resolve walks the providers in order and returns the first usable video URL. Each provider
// is tried at most once; a failing provider hands over to the next one.
func (s *Service) Resolve(ctx context.Context, locator string) (Resolution, bool) {
	log := slog.With("service", s.name)

	if len(s.providers) == 0 {
		log.WarnContext(ctx, "No providers configured")
		return Resolution{}, false
	}

	log.InfoContext(ctx, "Starting provider fallback chain", "url", locator, "providers", len(s.providers))

	for i, p := range s.providers {
		rank := i + 1
		log.InfoContext(ctx, "Trying provider", "provider", p.Name(), "rank", rank, "total", len(s.providers))

		videoURL, err := attempt(ctx, p, locator)
		if err != nil {
			log.WarnContext(ctx, "Provider failed", "provider", p.Name(), "rank", rank, logger.Err(err))
			continue
		}

		log.InfoContext(ctx, "Provider succeeded", "provider", p.Name(), "rank", rank)
		return Resolution{VideoURL: videoURL, ProviderRank: rank, ProviderName: p.Name()}, true
	}

	log.ErrorContext(ctx, "All providers failed", "providers", len(s.providers))
	return Resolution{}, false
}

func attempt(ctx context.Context, p Provider, locator string) (videoURL string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()

	videoURL, err = p.VideoURL(ctx, locator)
	if err != nil {
		return "", err
	}
	if videoURL == "" {
		return "", errEmptyVideoURL
	}
	return videoURL, nil
}
