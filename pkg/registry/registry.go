// Package registry is the startup-time registration table for pluggable units: pipeline
// handlers, triggers, video services and their providers. Units register a constructor and
// their defaults; Discover applies the per-unit environment overrides, builds every enabled
// unit and returns them ordered by descending priority.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/caarlos0/env/v9"
	"github.com/samber/lo"

	"github.com/dskvich/whitecat-bot/pkg/logger"
)

const (
	MinPriority = 0
	MaxPriority = 100
)

// ErrNoneFound is returned when discovery finished without errors but produced no units.
var ErrNoneFound = errors.New("no units found")

// Config is what a unit constructor receives.
type Config struct {
	Name   string
	APIKey string
}

type Unit[T any] struct {
	// Name is the external configuration name: NAME_ENABLED, NAME_PRIORITY, NAME_API_KEY.
	Name              string
	DefaultPriority   int
	DisabledByDefault bool
	// RequiresCredential skips the unit silently when NAME_API_KEY is not set.
	RequiresCredential bool
	New                func(cfg Config) (T, error)
}

// Entry is a constructed unit together with its effective priority.
type Entry[T any] struct {
	Name     string
	Priority int
	Value    T
}

type Table[T any] struct {
	mu    sync.RWMutex
	units []Unit[T]
}

func NewTable[T any](units ...Unit[T]) *Table[T] {
	t := &Table[T]{}
	t.Register(units...)
	return t
}

func (t *Table[T]) Register(units ...Unit[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.units = append(t.units, units...)
}

// Units returns a copy of the registered units in registration order.
func (t *Table[T]) Units() []Unit[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]Unit[T](nil), t.units...)
}

type options struct {
	environment map[string]string
	log         *slog.Logger
}

type Option func(*options)

// WithEnvironment replaces the process environment as the source of overrides.
func WithEnvironment(environment map[string]string) Option {
	return func(o *options) { o.environment = environment }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// overrides is parsed per unit with the NAME_ prefix.
type overrides struct {
	Enabled  string `env:"ENABLED"`
	Priority string `env:"PRIORITY"`
	APIKey   string `env:"API_KEY"`
}

// Discover builds every enabled unit of the table. A unit that fails to construct is logged and
// left out; it never aborts its siblings. The result is stable-sorted by descending priority,
// ties keep registration order. An empty result is reported as ErrNoneFound.
func Discover[T any](ctx context.Context, table *Table[T], opts ...Option) ([]Entry[T], error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var entries []Entry[T]
	for _, unit := range table.Units() {
		entry, ok := build(ctx, unit, o)
		if ok {
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	if len(entries) == 0 {
		return nil, ErrNoneFound
	}

	return entries, nil
}

func build[T any](ctx context.Context, unit Unit[T], o options) (entry Entry[T], ok bool) {
	log := o.log.With("unit", unit.Name)

	if unit.New == nil {
		log.ErrorContext(ctx, "Unit has no constructor, skipping")
		return entry, false
	}

	ov, err := readOverrides(unit.Name, o.environment)
	if err != nil {
		log.WarnContext(ctx, "Reading unit overrides failed, using defaults", logger.Err(err))
	}

	enabled := !unit.DisabledByDefault
	if ov.Enabled != "" {
		if v, err := strconv.ParseBool(strings.TrimSpace(ov.Enabled)); err == nil {
			enabled = v
		} else {
			log.WarnContext(ctx, "Invalid enabled flag, using default", "value", ov.Enabled, "default", enabled)
		}
	}
	if !enabled {
		log.InfoContext(ctx, "Unit disabled, skipping")
		return entry, false
	}

	priority := unit.DefaultPriority
	if ov.Priority != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(ov.Priority)); err == nil {
			priority = Clamp(v)
		} else {
			log.WarnContext(ctx, "Invalid priority, using default", "value", ov.Priority, "default", priority)
		}
	}

	if unit.RequiresCredential && ov.APIKey == "" {
		log.DebugContext(ctx, "Credential not set, skipping", "env", unit.Name+"_API_KEY")
		return entry, false
	}

	value, err := construct(unit, Config{Name: unit.Name, APIKey: ov.APIKey})
	if err != nil {
		log.ErrorContext(ctx, "Failed to construct unit", logger.Err(err))
		return entry, false
	}

	log.InfoContext(ctx, "Loaded unit", "priority", priority)

	return Entry[T]{Name: unit.Name, Priority: priority, Value: value}, true
}

func construct[T any](unit Unit[T], cfg Config) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()

	return unit.New(cfg)
}

func readOverrides(name string, environment map[string]string) (overrides, error) {
	var ov overrides
	if name == "" {
		return ov, nil
	}

	err := env.ParseWithOptions(&ov, env.Options{
		Prefix:      name + "_",
		Environment: environment,
	})
	if err != nil {
		return overrides{}, fmt.Errorf("parsing %s_* env: %w", name, err)
	}

	return ov, nil
}

// Clamp bounds a priority to [MinPriority, MaxPriority].
func Clamp(priority int) int {
	switch {
	case priority < MinPriority:
		return MinPriority
	case priority > MaxPriority:
		return MaxPriority
	default:
		return priority
	}
}

// Values strips the metadata off discovered entries, preserving order.
func Values[T any](entries []Entry[T]) []T {
	return lo.Map(entries, func(e Entry[T], _ int) T { return e.Value })
}
