// Package logger is the colored slog handler the bot logs through, with the Telegram update id
// carried in the context as request id.
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type contextKey string

const requestIDKey contextKey = "request_id"

type SourceFileMode int

const (
	Nop SourceFileMode = iota
	// ShortFile prints main.go:69.
	ShortFile
	// LongFile prints the full path.
	LongFile
)

type Options struct {
	// Level defaults to info when nil.
	Level       slog.Leveler
	TimeFormat  string
	SrcFileMode SourceFileMode
	MsgPrefix   string
	NoColor     bool
}

var DefaultOptions = &Options{
	Level:       slog.LevelWarn,
	TimeFormat:  time.DateTime,
	SrcFileMode: ShortFile,
	MsgPrefix:   color.HiWhiteString("| "),
}

var (
	timeColor  = color.New(color.Faint)
	idColor    = color.New(color.FgMagenta)
	keyColor   = color.New(color.FgCyan)
	errColor   = color.New(color.FgRed)
	levelBadge = []struct {
		below slog.Level
		text  string
		color *color.Color
	}{
		{slog.LevelInfo, "DEBUG", color.New(color.BgCyan, color.FgHiWhite)},
		{slog.LevelWarn, "INFO ", color.New(color.BgGreen, color.FgHiWhite)},
		{slog.LevelError, "WARN ", color.New(color.BgYellow, color.FgHiWhite)},
	}
	errorBadge = color.New(color.BgRed, color.FgHiWhite).Sprint("ERROR")

	ansi = regexp.MustCompile("[\u001B\u009B][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[a-zA-Z\\d]*)*)?\u0007)|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PRZcf-ntqry=><~]))")

	bufPool = sync.Pool{New: func() any { return &bytes.Buffer{} }}
)

// Handler writes one colored line per record. Handlers derived with WithAttrs/WithGroup share
// the writer lock.
type Handler struct {
	groups []string
	attrs  []slog.Attr
	opts   Options

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler uses DefaultOptions when opts is nil.
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}, opts: *DefaultOptions}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	bf := bufPool.Get().(*bytes.Buffer)
	bf.Reset()
	defer bufPool.Put(bf)

	if !r.Time.IsZero() {
		bf.WriteString(timeColor.Sprint(r.Time.Format(h.opts.TimeFormat)) + " ")
	}
	if ctx != nil {
		if requestID, ok := RequestIDFromContext(ctx); ok {
			bf.WriteString(idColor.Sprintf("%d ", requestID))
		}
	}
	bf.WriteString(badge(r.Level) + " ")
	h.writeSource(bf, r.PC)

	bf.WriteString(h.opts.MsgPrefix + r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	writeAttr := func(a slog.Attr) bool {
		c := keyColor
		if strings.Contains(a.Key, "err") {
			c = errColor
		}
		bf.WriteString(" " + c.Sprintf("%s%s=", prefix, a.Key) + a.Value.String())
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)
	bf.WriteByte('\n')

	line := bf.Bytes()
	if h.opts.NoColor {
		line = ansi.ReplaceAll(line, nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(line)
	return err
}

func (h *Handler) writeSource(bf *bytes.Buffer, pc uintptr) {
	if h.opts.SrcFileMode == Nop || pc == 0 {
		return
	}
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	file := f.File
	if h.opts.SrcFileMode == ShortFile {
		file = filepath.Base(file)
	}
	fmt.Fprintf(bf, "%s:%d ", file, f.Line)
}

func badge(level slog.Level) string {
	for _, b := range levelBadge {
		if level < b.below {
			return b.color.Sprint(b.text)
		}
	}
	return errorBadge
}

func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.attrs = append(h2.attrs, attrs...)
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		groups: append([]string(nil), h.groups...),
		attrs:  append([]slog.Attr(nil), h.attrs...),
		opts:   h.opts,
		mu:     h.mu,
		out:    h.out,
	}
}

// Err wraps an error into the attribute every component logs failures with.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "<nil>")
	}
	return slog.String("err", err.Error())
}

// ParseLevel maps LOG_LEVEL values onto slog levels. Unknown values fall back to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func ContextWithRequestID(ctx context.Context, requestID int64) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) (int64, bool) {
	requestID, ok := ctx.Value(requestIDKey).(int64)
	return requestID, ok
}
