// Package export writes finalized blocks to shareable formats.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blockterm/session"
)

// Format selects the output encoding for a block export.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html":
		return FormatHTML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown export format: %s", name)
}

func (f Format) extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return "txt"
	}
}

// FormatBlocks renders blocks in the given format.
func FormatBlocks(blocks []session.Block, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return formatMarkdown(blocks), nil
	case FormatJSON:
		data, err := json.MarshalIndent(blocks, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal blocks: %w", err)
		}
		return string(data), nil
	case FormatHTML:
		return formatHTML(blocks), nil
	case FormatText:
		return formatText(blocks), nil
	}
	return "", fmt.Errorf("unknown export format: %s", format)
}

// WriteFile writes content to a timestamped file under baseDir and returns
// the full path.
func WriteFile(baseDir string, format Format, content string) (string, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := fmt.Sprintf("blockterm_export_%s.%s",
		time.Now().UTC().Format("20060102_150405"), format.extension())
	path := filepath.Join(baseDir, filename)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func exitCodeOr(b *session.Block, fallback int) int {
	if b.ExitCode != nil {
		return *b.ExitCode
	}
	return fallback
}

func formatMarkdown(blocks []session.Block) string {
	var sb strings.Builder
	for i := range blocks {
		b := &blocks[i]
		fmt.Fprintf(&sb, "## %s\n\n```bash\n%s\n```\n\n### Output\n\n```\n%s\n```\n\nExit Code: %d\nDuration: %dms\n\n",
			b.Command, b.Command, b.Output, exitCodeOr(b, -1), b.Duration.Milliseconds())
	}
	return sb.String()
}

func formatText(blocks []session.Block) string {
	var sb strings.Builder
	for i := range blocks {
		b := &blocks[i]
		fmt.Fprintf(&sb, "Command: %s\n", b.Command)
		fmt.Fprintf(&sb, "Output:\n%s\n", b.Output)
		fmt.Fprintf(&sb, "Exit Code: %d\n", exitCodeOr(b, -1))
		fmt.Fprintf(&sb, "Duration: %dms\n", b.Duration.Milliseconds())
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}

func formatHTML(blocks []session.Block) string {
	var body strings.Builder
	for i := range blocks {
		b := &blocks[i]
		fmt.Fprintf(&body,
			"<section class=\"block\">\n<h2>%s</h2>\n<h3>Command</h3>\n<pre><code>%s</code></pre>\n<h3>Output</h3>\n<pre><code>%s</code></pre>\n<p>Exit Code: %d | Duration: %dms</p>\n</section>\n",
			htmlEscape(b.Command),
			htmlEscape(b.Command),
			htmlEscape(b.Output),
			exitCodeOr(b, -1),
			b.Duration.Milliseconds())
	}
	return fmt.Sprintf(
		"<!doctype html><html><head><meta charset=\"utf-8\"><style>body{font-family:monospace;background:#111;color:#eee}pre{background:#1b1b1b;padding:12px;border-radius:6px}</style></head><body>%s</body></html>",
		body.String())
}

func htmlEscape(input string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(input)
}
