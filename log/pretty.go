package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handler. Styles are bound to a
// renderer for the handler's output, so they render as plain text unless the
// output is a color terminal.
type palette struct {
	time   lipgloss.Style
	key    lipgloss.Style
	value  lipgloss.Style
	number lipgloss.Style
	source lipgloss.Style
	trace  lipgloss.Style
	debug  lipgloss.Style
	info   lipgloss.Style
	warn   lipgloss.Style
	error  lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)

	return &palette{
		time:   r.NewStyle().Faint(true),
		key:    r.NewStyle().Foreground(lipgloss.Color("8")),
		value:  r.NewStyle().Foreground(lipgloss.Color("6")),
		number: r.NewStyle().Foreground(lipgloss.Color("3")),
		source: r.NewStyle().Faint(true).Italic(true),
		trace:  r.NewStyle().Foreground(lipgloss.Color("5")),
		debug:  r.NewStyle().Foreground(lipgloss.Color("4")),
		info:   r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		error:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.error
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyHandler writes one line per record:
//
//	15:04:05 WARN  message key=value group.key=value
type prettyHandler struct {
	opts    slog.HandlerOptions
	mu      *sync.Mutex
	w       io.Writer
	palette *palette
	layout  string
	prefix  string // dotted group path of subsequent attributes
	attrs   []byte // attributes preformatted by WithAttrs
}

func newPrettyHandler(w io.Writer, layout string, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:    *opts,
		mu:      &sync.Mutex{},
		w:       w,
		palette: newPalette(w),
		layout:  layout,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if h.layout != "" && !r.Time.IsZero() {
		buf.WriteString(h.palette.time.Render(r.Time.Format(h.layout)))
		buf.WriteByte(' ')
	}

	name := strings.ToUpper(Level(r.Level).String())
	if len(name) < 5 {
		name += strings.Repeat(" ", 5-len(name))
	}

	buf.WriteString(h.palette.level(r.Level).Render(name))
	buf.WriteByte(' ')

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			buf.WriteString(h.palette.source.Render(src.File + ":" + strconv.Itoa(src.Line)))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(r.Message)
	buf.Write(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h

	buf := bytes.NewBuffer(append([]byte(nil), h.attrs...))
	for _, a := range attrs {
		c.appendAttr(buf, h.prefix, a)
	}

	c.attrs = buf.Bytes()

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, group, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.palette.key.Render(prefix + a.Key + "="))

	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration, slog.KindBool:
		buf.WriteString(h.palette.number.Render(a.Value.String()))
	case slog.KindTime:
		buf.WriteString(h.palette.value.Render(a.Value.Time().Format(h.layoutOr())))
	default:
		buf.WriteString(h.palette.value.Render(quoteIfNeeded(a.Value.String())))
	}
}

func (h *prettyHandler) layoutOr() string {
	if h.layout == "" {
		return DefaultTimeLayout
	}

	return h.layout
}

// quoteIfNeeded quotes s if it is empty or contains blanks, quotes or
// control characters.
func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '"' || r == '=' || r == 0x7f
	}) {
		return strconv.Quote(s)
	}

	return s
}
