package video

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

var ErrNoServices = errors.New("no video services with providers configured")

type OutcomeKind int

const (
	// NoMatch means no service recognized anything in the text.
	NoMatch OutcomeKind = iota
	// ProvidersExhausted means a service matched but every one of its providers failed.
	ProvidersExhausted
	// Resolved means a provider returned a video URL.
	Resolved
)

func (k OutcomeKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case ProvidersExhausted:
		return "providers_failed"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Kind OutcomeKind
	// Service and URL are set whenever a service matched.
	Service string
	URL     string
	Resolution
}

// Router sends text to the first service, by priority, whose pattern matches. Once a service
// matched, the outcome is final: a second service is never consulted for the same text.
type Router struct {
	mu       sync.RWMutex
	services []*Service
}

// NewRouter keeps the given order, which is expected to be descending priority. Services
// without providers are left out.
func NewRouter(services ...*Service) (*Router, error) {
	usable := lo.Filter(services, func(s *Service, _ int) bool {
		if s == nil {
			return false
		}
		if len(s.providers) == 0 {
			slog.Warn("Service has no providers configured, skipping", "service", s.Name())
			return false
		}
		return true
	})
	if len(usable) == 0 {
		return nil, ErrNoServices
	}

	slog.Info("Service router initialized", "services", lo.Map(usable, func(s *Service, _ int) string { return s.Name() }))

	return &Router{services: usable}, nil
}

func (r *Router) Route(ctx context.Context, text string) Outcome {
	if text == "" {
		slog.DebugContext(ctx, "No text to route")
		return Outcome{Kind: NoMatch}
	}

	for _, s := range r.snapshot() {
		url, ok := s.ExtractURL(text)
		if !ok {
			slog.DebugContext(ctx, "No URL match for service", "service", s.Name())
			continue
		}

		slog.InfoContext(ctx, "URL matched service", "service", s.Name(), "url", url)

		res, ok := s.Resolve(ctx, url)
		if !ok {
			slog.WarnContext(ctx, "Service matched URL but all providers failed", "service", s.Name())
			return Outcome{Kind: ProvidersExhausted, Service: s.Name(), URL: url}
		}

		return Outcome{Kind: Resolved, Service: s.Name(), URL: url, Resolution: res}
	}

	slog.InfoContext(ctx, "No service matched any URL in text")
	return Outcome{Kind: NoMatch}
}

// AddService appends a service after the existing ones. A service without providers is refused.
func (r *Router) AddService(s *Service) bool {
	if s == nil || len(s.providers) == 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.services = append(r.services, s)
	slog.Info("Added service", "service", s.Name())
	return true
}

func (r *Router) RemoveService(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.services, func(s *Service) bool { return s.Name() == name })
	if !ok {
		slog.Warn("Service not found", "service", name)
		return false
	}

	r.services = append(r.services[:idx:idx], r.services[idx+1:]...)
	slog.Info("Removed service", "service", name)
	return true
}

// ServiceNames lists services in routing order.
func (r *Router) ServiceNames() []string {
	return lo.Map(r.snapshot(), func(s *Service, _ int) string { return s.Name() })
}

func (r *Router) snapshot() []*Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Service(nil), r.services...)
}
