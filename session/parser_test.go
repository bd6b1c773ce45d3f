package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserCommandEnd(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		events []ParserEvent
	}{
		{
			name:   "exit zero with BEL",
			input:  "\x1b]133;D;0\x07",
			events: []ParserEvent{CommandEndEvent{ExitCode: 0}},
		},
		{
			name:   "exit code with ST",
			input:  "\x1b]133;D;127\x1b\\",
			events: []ParserEvent{CommandEndEvent{ExitCode: 127}},
		},
		{
			name:   "negative exit code",
			input:  "\x1b]133;D;-1\x07",
			events: []ParserEvent{CommandEndEvent{ExitCode: -1}},
		},
		{
			name:   "missing exit code emits nothing",
			input:  "\x1b]133;D\x07",
			events: nil,
		},
		{
			name:   "malformed exit code emits nothing",
			input:  "\x1b]133;D;abc\x07",
			events: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTerminalParser(24, 80)
			p.Process([]byte(tt.input))
			assert.Equal(t, tt.events, p.TakeEvents())
		})
	}
}

func TestParserPromptAndCommandStart(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.Process([]byte("\x1b]133;A\x07$ \x1b]133;C\x07"))

	events := p.TakeEvents()
	require.Len(t, events, 2)
	assert.Equal(t, PromptShownEvent{}, events[0])
	assert.Equal(t, CommandStartEvent{}, events[1])
}

func TestParserCommandLine(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.Process([]byte("\x1b]633;E;git status --short\x07"))

	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, CommandEvent{Text: "git status --short"}, events[0])
}

func TestParserCurrentDir(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.Process([]byte("\x1b]1337;CurrentDir=/home/user/project\x07"))

	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, DirectoryEvent{Path: "/home/user/project"}, events[0])
}

func TestParserMarkerSplitAcrossChunks(t *testing.T) {
	p := NewTerminalParser(24, 80)

	p.Process([]byte("\x1b]133;D;1"))
	assert.Empty(t, p.TakeEvents(), "incomplete sequence must not emit")

	p.Process([]byte("27\x07"))
	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, CommandEndEvent{ExitCode: 127}, events[0])
}

func TestParserMarkerEmitsAtMostOnce(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.Process([]byte("\x1b]133;D;0\x07"))
	require.Len(t, p.TakeEvents(), 1)

	// The matched bytes are consumed; reprocessing unrelated output must
	// not resurrect the event.
	p.Process([]byte("some regular output\r\n"))
	assert.Empty(t, p.TakeEvents())
}

func TestParserGitInfo(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		events []ParserEvent
	}{
		{
			name:   "branch and status",
			input:  "\x1b]133;G;branch=main;status=clean\x07",
			events: []ParserEvent{GitInfoEvent{Branch: "main", Status: GitStatusClean}},
		},
		{
			name:   "unknown status keeps branch",
			input:  "\x1b]133;G;branch=main;status=weird\x07",
			events: []ParserEvent{GitInfoEvent{Branch: "main"}},
		},
		{
			name:   "missing branch emits nothing",
			input:  "\x1b]133;G;status=dirty\x07",
			events: nil,
		},
		{
			name: "rightmost occurrence wins",
			input: "\x1b]133;G;branch=main;status=clean\x07" +
				"\x1b]133;G;branch=main;status=dirty\x07" +
				"\x1b]133;G;branch=feature;status=conflicts\x07",
			events: []ParserEvent{GitInfoEvent{Branch: "feature", Status: GitStatusConflicts}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTerminalParser(24, 80)
			p.Process([]byte(tt.input))
			assert.Equal(t, tt.events, p.TakeEvents())
		})
	}
}

func TestParserGitRightmostDoesNotDropOtherEvents(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.Process([]byte("\x1b]133;C\x07" +
		"\x1b]133;G;branch=main;status=clean\x07" +
		"\x1b]133;G;branch=main;status=dirty\x07" +
		"\x1b]133;D;0\x07"))

	events := p.TakeEvents()
	require.Len(t, events, 3)
	assert.Equal(t, CommandStartEvent{}, events[0])
	assert.Equal(t, GitInfoEvent{Branch: "main", Status: GitStatusDirty}, events[1])
	assert.Equal(t, CommandEndEvent{ExitCode: 0}, events[2])
}

func TestParserAltScreenTracking(t *testing.T) {
	p := NewTerminalParser(24, 80)
	assert.False(t, p.IsAltScreenActive())

	p.Process([]byte("\x1b[?1049h"))
	assert.True(t, p.IsAltScreenActive())

	p.Process([]byte("\x1b[?1049l"))
	assert.False(t, p.IsAltScreenActive())
}

func TestParserScanBufferCap(t *testing.T) {
	p := NewTerminalParser(24, 80)

	// A marker inside an oversized chunk is scanned before truncation.
	big := strings.Repeat("x", 9000) + "\x1b]133;D;0\x07" + strings.Repeat("y", 2000)
	p.Process([]byte(big))
	require.Len(t, p.TakeEvents(), 1)

	// Flooding with plain output must not starve later markers.
	p.Process([]byte(strings.Repeat("z", 20000)))
	p.Process([]byte("\x1b]133;D;42\x07"))
	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, CommandEndEvent{ExitCode: 42}, events[0])
}

func TestParserStripsMarkersFromScreen(t *testing.T) {
	p := NewTerminalParser(4, 40)
	p.Process([]byte("ok\x1b]133;A\x07done"))

	assert.Contains(t, p.ScreenText(), "okdone")
}

func TestParserScreenText(t *testing.T) {
	p := NewTerminalParser(4, 40)
	p.Process([]byte("hello\r\nworld"))

	text := p.ScreenText()
	lines := strings.Split(text, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "hello", lines[0])
	assert.Equal(t, "world", lines[1])
}

func TestParserResize(t *testing.T) {
	p := NewTerminalParser(24, 80)
	p.MarkClean()

	p.Resize(40, 120)
	rows, cols := p.Size()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 120, cols)
	assert.True(t, p.IsDirty())

	// No-op resizes keep the grid clean.
	p.MarkClean()
	p.Resize(40, 120)
	assert.False(t, p.IsDirty())

	p.Resize(0, -1)
	rows, cols = p.Size()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 120, cols)
}
