// Package display renders operator output: the command menu, status
// lines and the parameter table.
//
// All writes go through a Console, which serialises them so the teleop
// loop and the monitor can print from different goroutines.
package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*Console)(nil)

// ── Styles ───────────────────────────────────────────────────────

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	menuBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#52525b")).
		Padding(0, 1)
)

// ── Console ──────────────────────────────────────────────────────

// Console writes styled lines to a terminal. It satisfies
// domain.Notifier.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	log *logger.Logger
}

// NewConsole creates a console writing to out, or stdout if out is nil.
func NewConsole(out io.Writer, log *logger.Logger) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, log: log}
}

// Println prints a line. Thread-safe.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// Printf prints formatted text. Thread-safe.
func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

// Notify prints a status line.
func (c *Console) Notify(_ context.Context, message string) error {
	c.log.Debug("notify: %s", message)
	c.Println(statusStyle.Render(message))
	return nil
}

// NotifyUrgent prints an error or alert.
func (c *Console) NotifyUrgent(_ context.Context, message string) error {
	c.log.Debug("notify-urgent: %s", message)
	c.Println(urgentStyle.Render(message))
	return nil
}

// PrintHint prints dimmed secondary text.
func (c *Console) PrintHint(text string) {
	c.Println(secondaryStyle.Render(text))
}

// ── Menu ─────────────────────────────────────────────────────────

var menuSections = []struct {
	cat   domain.Category
	title string
}{
	{domain.CategoryBase, "Mobile Base"},
	{domain.CategoryLift, "Lift"},
	{domain.CategoryArm, "Arm"},
	{domain.CategoryHead, "Head"},
}

// RenderMenu lays out the spoken commands per category inside a box.
func RenderMenu(phrases map[domain.Category][]string) string {
	var b strings.Builder
	for _, s := range menuSections {
		p := phrases[s.cat]
		if len(p) == 0 {
			continue
		}
		quoted := make([]string, len(p))
		for i, ph := range p {
			quoted[i] = fmt.Sprintf("%q", ph)
		}
		b.WriteString(headingStyle.Render(s.title))
		b.WriteByte('\n')
		b.WriteString(primaryStyle.Render("say " + strings.Join(quoted, " / ")))
		b.WriteString("\n\n")
	}
	b.WriteString(headingStyle.Render("System"))
	b.WriteByte('\n')
	b.WriteString(primaryStyle.Render("CTRL + C : quit"))
	return menuBox.Render(b.String())
}
