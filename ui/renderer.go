package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"blockterm/log"
	"blockterm/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// maxBlockOutputLines bounds how much captured output an expanded block
// shows in the history list.
const maxBlockOutputLines = 12

// Renderer turns grid state and block history into styled terminal output.
// It owns the row cache and passes it into every draw; nothing else holds a
// reference to it.
type Renderer struct {
	cache *RowCache
	theme Theme
}

// NewRenderer creates a renderer with a fresh row cache.
func NewRenderer(theme Theme) *Renderer {
	return &Renderer{
		cache: NewRowCache(theme),
		theme: theme,
	}
}

// Cache exposes the row cache for lifecycle management (invalidate on
// resize, purge on pane close).
func (r *Renderer) Cache() *RowCache {
	return r.cache
}

// RenderScreen draws the visible grid of one pane, one styled line per
// row, consulting the row cache for unchanged rows.
func (r *Renderer) RenderScreen(tab, pane int, parser *session.TerminalParser) string {
	start := time.Now()
	defer func() { log.GetProfiler().RecordFrame(time.Since(start)) }()

	vt := parser.Screen()
	rows, _ := parser.Size()

	var sb strings.Builder
	for y := 0; y < rows && y < len(vt.Content); y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		runs := r.cache.RowRuns(RowKey{Tab: tab, Pane: pane, Row: y}, vt.Content[y], vt.Format[y])
		for _, run := range runs {
			sb.WriteString(r.styleRun(run))
		}
	}
	parser.MarkClean()
	return sb.String()
}

func (r *Renderer) styleRun(run StyleRun) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor(run.Fg))).
		Background(lipgloss.Color(hexColor(run.Bg))).
		Render(run.Text)
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RenderBlock draws one history block as a bordered card: a status header
// with command and metadata, then the captured output unless collapsed.
func (r *Renderer) RenderBlock(b *session.Block, width int, spinnerView string) string {
	if width < 10 {
		width = 10
	}
	innerWidth := width - 4 // border + padding

	header := r.blockHeader(b, innerWidth, spinnerView)

	body := header
	if !b.Collapsed && b.Output != "" {
		body += "\n" + r.blockOutput(b.Output, innerWidth)
	}

	borderColor := Border
	if b.Pinned {
		borderColor = PinnedAccent
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(width - 2).
		Render(body)
}

// blockHeader renders "icon command .... duration | cwd | branch" truncated
// to the available width.
func (r *Renderer) blockHeader(b *session.Block, width int, spinnerView string) string {
	icon, clr := blockStatus(b, spinnerView)

	command := b.Command
	if command == "" {
		command = "(unknown command)"
	}

	head := lipgloss.NewStyle().Foreground(clr).Render(icon) + " " +
		lipgloss.NewStyle().Foreground(TextPrimary).Bold(true).Render(command)

	var meta []string
	if b.Finalized() {
		meta = append(meta, formatDuration(b.Duration))
	}
	if b.Cwd != "" {
		meta = append(meta, b.Cwd)
	}
	if b.GitBranch != "" {
		branch := b.GitBranch
		if b.GitStatus != "" {
			branch += " (" + string(b.GitStatus) + ")"
		}
		meta = append(meta, branch)
	}
	if b.IsRemote {
		meta = append(meta, "ssh:"+b.Host)
	}
	if len(b.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(b.Tags, " #"))
	}

	line := head
	if len(meta) > 0 {
		line += "  " + lipgloss.NewStyle().Foreground(TextMuted).Render(strings.Join(meta, " | "))
	}

	if ansi.PrintableRuneWidth(line) > width {
		line = truncate.StringWithTail(line, uint(width), "…")
	}
	return line
}

// blockStatus picks the icon and color for a block's state.
func blockStatus(b *session.Block, spinnerView string) (string, lipgloss.AdaptiveColor) {
	switch {
	case !b.Finalized():
		icon := IconRunning
		if spinnerView != "" {
			icon = spinnerView
		}
		return icon, StatusRunning
	case b.Succeeded():
		return IconSuccess, StatusSuccess
	case b.Failed():
		return fmt.Sprintf("%s %d", IconError, *b.ExitCode), StatusError
	default:
		// Defensively finalized: no exit code ever arrived.
		return IconUnknown, StatusUnknown
	}
}

// blockOutput wraps and clamps captured output for the history list.
func (r *Renderer) blockOutput(output string, width int) string {
	wrapped := wordwrap.String(strings.TrimRight(output, "\n"), width)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > maxBlockOutputLines {
		hidden := len(lines) - maxBlockOutputLines
		lines = lines[:maxBlockOutputLines]
		lines = append(lines, lipgloss.NewStyle().Foreground(TextMuted).
			Render(fmt.Sprintf("… %d more lines", hidden)))
	}
	return lipgloss.NewStyle().Foreground(TextSecondary).Render(strings.Join(lines, "\n"))
}

// RenderTitle draws the pane title bar with host context.
func (r *Renderer) RenderTitle(title, host string, width int) string {
	label := title
	if host != "" {
		label += " @ " + host
	}
	if runewidth.StringWidth(label) > width && width > 1 {
		label = runewidth.Truncate(label, width-1, "…")
	}
	return lipgloss.NewStyle().Foreground(TextSecondary).Bold(true).Render(label)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
