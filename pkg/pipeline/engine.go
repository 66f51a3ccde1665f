package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/domain"
	"github.com/dskvich/whitecat-bot/pkg/logger"
)

type State string

const (
	// StateStopped means a handler (or the error policy) short-circuited the run.
	StateStopped State = "stopped"
	// StateExhausted means every handler was considered.
	StateExhausted State = "exhausted"
)

type Engine struct {
	mu          sync.RWMutex
	handlers    []Handler
	stopOnError bool
}

type Option func(*Engine)

// WithStopOnError controls whether a failing gate or action aborts the whole run.
func WithStopOnError(stop bool) Option {
	return func(e *Engine) { e.stopOnError = stop }
}

func New(opts ...Option) *Engine {
	e := &Engine{stopOnError: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add appends a handler. Handlers run in the order they were added.
func (e *Engine) Add(h Handler) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers = append(e.handlers, h)
	slog.Debug("Added pipeline handler", "handler", h.Name())
	return e
}

func (e *Engine) Remove(h Handler) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := lo.IndexOf(e.handlers, h)
	if idx < 0 {
		return false
	}
	e.handlers = append(e.handlers[:idx], e.handlers[idx+1:]...)
	slog.Debug("Removed pipeline handler", "handler", h.Name())
	return true
}

func (e *Engine) Handlers() []Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return append([]Handler(nil), e.handlers...)
}

// Run passes one message through the handlers. Handler failures are logged and resolved by
// the error policy; they never escape Run.
func (e *Engine) Run(ctx context.Context, msg *domain.Message, bot domain.Bot) *Context {
	pc := NewContext(msg, bot)
	handlers := e.Handlers()

	slog.InfoContext(ctx, "Pipeline started", "runID", pc.ID, "handlers", lo.Map(handlers, func(h Handler, _ int) string {
		return h.Name()
	}))

	state := e.run(ctx, pc, handlers)
	pc.state = state

	slog.InfoContext(ctx, "Pipeline finished", "runID", pc.ID, "state", state)
	return pc
}

func (e *Engine) run(ctx context.Context, pc *Context, handlers []Handler) State {
	for i, h := range handlers {
		if !pc.ShouldContinue {
			slog.InfoContext(ctx, "Pipeline stopped before handler", "handler", h.Name(), "position", i+1, "total", len(handlers))
			return StateStopped
		}

		ok, err := gate(ctx, h, pc)
		if err != nil {
			slog.ErrorContext(ctx, "Handler gate failed", "handler", h.Name(), logger.Err(err))
			if e.stopOnError {
				pc.Stop()
				return StateStopped
			}
			continue
		}
		if !ok {
			slog.DebugContext(ctx, "Handler skipped", "handler", h.Name())
			continue
		}

		slog.InfoContext(ctx, "Running handler", "handler", h.Name(), "position", i+1, "total", len(handlers))
		if err := process(ctx, h, pc); err != nil {
			slog.ErrorContext(ctx, "Handler failed", "handler", h.Name(), logger.Err(err))
			if e.stopOnError {
				pc.Stop()
				return StateStopped
			}
			continue
		}
		slog.DebugContext(ctx, "Handler completed", "handler", h.Name(), "shouldContinue", pc.ShouldContinue)
	}

	if !pc.ShouldContinue {
		return StateStopped
	}
	return StateExhausted
}

func gate(ctx context.Context, h Handler, pc *Context) (ok bool, err error) {
	defer recoverInto(&err)
	return h.ShouldProcess(ctx, pc)
}

func process(ctx context.Context, h Handler, pc *Context) (err error) {
	defer recoverInto(&err)
	return h.Process(ctx, pc)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
	}
}
