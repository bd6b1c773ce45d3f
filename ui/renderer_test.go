package ui

import (
	"strings"
	"testing"
	"time"

	"blockterm/session"
	"blockterm/testing/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func finishedBlock() *session.Block {
	return &session.Block{
		Command:   "go test ./...",
		Output:    "ok\tblockterm\t0.5s\n",
		ExitCode:  intPtr(0),
		StartedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2026, 8, 1, 12, 0, 2, 0, time.UTC),
		Duration:  2 * time.Second,
		Cwd:       "/home/user/proj",
	}
}

func TestRenderBlockHeaderContents(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	out := snapshot.StripANSI(r.RenderBlock(finishedBlock(), 80, ""))

	assert.Contains(t, out, "go test ./...")
	assert.Contains(t, out, IconSuccess)
	assert.Contains(t, out, "2.0s")
	assert.Contains(t, out, "/home/user/proj")
	assert.Contains(t, out, "ok")
}

func TestRenderBlockFailure(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	b := finishedBlock()
	b.ExitCode = intPtr(127)

	out := snapshot.StripANSI(r.RenderBlock(b, 80, ""))
	assert.Contains(t, out, IconError+" 127")
}

func TestRenderBlockRunningUsesSpinner(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	b := &session.Block{Command: "sleep 5", StartedAt: time.Now()}

	out := snapshot.StripANSI(r.RenderBlock(b, 80, "◐"))
	assert.Contains(t, out, "◐")
	assert.NotContains(t, out, IconSuccess)
}

func TestRenderBlockCollapsedHidesOutput(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	b := finishedBlock()
	b.Output = "secret output line\n"
	b.Collapsed = true

	out := snapshot.StripANSI(r.RenderBlock(b, 80, ""))
	assert.NotContains(t, out, "secret output line")
	assert.Contains(t, out, "go test ./...")
}

func TestRenderBlockClampsLongOutput(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	b := finishedBlock()
	b.Output = strings.Repeat("line\n", 40)

	out := snapshot.StripANSI(r.RenderBlock(b, 80, ""))
	assert.Contains(t, out, "more lines")
}

func TestRenderBlockMetadata(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	b := finishedBlock()
	b.GitBranch = "main"
	b.GitStatus = session.GitStatusDirty
	b.Host = "build-box"
	b.IsRemote = true
	b.Tags = []string{"ci", "flaky"}

	out := snapshot.StripANSI(r.RenderBlock(b, 120, ""))
	assert.Contains(t, out, "main (dirty)")
	assert.Contains(t, out, "ssh:build-box")
	assert.Contains(t, out, "#ci #flaky")
}

func TestRenderScreenCachesRows(t *testing.T) {
	r := NewRenderer(DefaultTheme())
	p := session.NewTerminalParser(4, 20)
	p.Process([]byte("hello"))

	first := r.RenderScreen(0, 0, p)
	require.Equal(t, 4, r.Cache().Len())

	// An unchanged grid renders pixel-identical output from the cache.
	second := r.RenderScreen(0, 0, p)
	assert.Equal(t, first, second)
	assert.Equal(t, 4, r.Cache().Len())
	assert.False(t, p.IsDirty(), "render marks the parser clean")

	assert.Contains(t, snapshot.StripANSI(first), "hello")
	assert.Equal(t, 4, snapshot.Lines(first))
}

func TestRenderTitle(t *testing.T) {
	r := NewRenderer(DefaultTheme())

	out := snapshot.StripANSI(r.RenderTitle("quiet-otter", "workstation", 80))
	assert.Equal(t, "quiet-otter @ workstation", out)

	truncated := snapshot.StripANSI(r.RenderTitle("quiet-otter", "workstation", 10))
	assert.LessOrEqual(t, len([]rune(truncated)), 10)
	assert.Contains(t, truncated, "…")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m0s", formatDuration(2*time.Minute))
}
