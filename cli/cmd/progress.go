package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// progress prints import progress lines to a terminal stream. Lines of
// concurrent imports are written whole.
type progress struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool

	step, done, fail, name lipgloss.Style
}

func newProgress(w io.Writer, quiet bool) *progress {
	r := lipgloss.NewRenderer(w)

	return &progress{
		w:     w,
		quiet: quiet,
		step:  r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		done:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		name:  r.NewStyle().Bold(true),
	}
}

func (p *progress) line(mark lipgloss.Style, sym, name, format string, args ...any) {
	if p.quiet {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := mark.Render("[" + sym + "]")
	if name != "" {
		prefix += " " + p.name.Render(name+":")
	}

	fmt.Fprintf(p.w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Stepf reports the start of a step of the import labeled name.
func (p *progress) Stepf(name, format string, args ...any) {
	p.line(p.step, "*", name, format, args...)
}

// Donef reports a completed import.
func (p *progress) Donef(name, format string, args ...any) {
	p.line(p.done, "+", name, format, args...)
}

// Failf reports a failed import.
func (p *progress) Failf(name, format string, args ...any) {
	p.line(p.fail, "!", name, format, args...)
}
