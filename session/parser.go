package session

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"blockterm/log"

	"github.com/tonistiigi/vt100"
)

// Shell-integration markers (FinalTerm/OSC 133 style, plus the VS Code
// command-line marker and the iTerm2 current-directory extension). The
// scanner matches these as raw byte substrings of the accumulated buffer.
const (
	markerPromptShown  = "\x1b]133;A"
	markerCommandStart = "\x1b]133;C"
	markerCommandEnd   = "\x1b]133;D"
	markerGitInfo      = "\x1b]133;G"
	markerCommandLine  = "\x1b]633;E"
	markerCurrentDir   = "\x1b]1337;CurrentDir="

	altScreenEnter = "\x1b[?1049h"
	altScreenExit  = "\x1b[?1049l"
)

const (
	// scanBufferCap is the hard cap on the marker scan buffer.
	scanBufferCap = 8192
	// scanBufferKeep is how much of the tail survives a cap truncation.
	// A marker whose start lies before the truncation point is lost.
	scanBufferKeep = 4096
)

// integrationSequenceRegex matches the shell-integration OSC sequences plus
// OSC 8 hyperlinks so they can be stripped before the bytes reach the
// vt100 emulator, which does not understand them.
var integrationSequenceRegex = regexp.MustCompile(`\x1b\](?:133;|633;|1337;|8;)[^\x1b\x07]*(?:\x1b\\|\x07)`)

// markerKind identifies which marker matched during a scan pass.
type markerKind int

const (
	kindPromptShown markerKind = iota
	kindCommandStart
	kindCommandEnd
	kindGitInfo
	kindCommandLine
	kindCurrentDir
	kindAltEnter
	kindAltExit
)

// marker pairs a scan substring with its kind. hasPayload markers carry
// data up to a BEL or ST terminator.
type marker struct {
	prefix     string
	kind       markerKind
	hasPayload bool
}

var markerTable = []marker{
	{markerPromptShown, kindPromptShown, false},
	{markerCommandStart, kindCommandStart, false},
	{markerCommandEnd, kindCommandEnd, true},
	{markerGitInfo, kindGitInfo, true},
	{markerCommandLine, kindCommandLine, true},
	{markerCurrentDir, kindCurrentDir, true},
	{altScreenEnter, kindAltEnter, false},
	{altScreenExit, kindAltExit, false},
}

// TerminalParser feeds raw pty bytes into a vt100 screen emulator while
// scanning the same bytes for shell-integration markers. The grid is
// single-writer: only Process and Resize mutate it, and both run on the
// control-loop goroutine.
type TerminalParser struct {
	vt   *vt100.VT100
	rows int
	cols int

	scanBuf   []byte
	events    []ParserEvent
	altScreen bool
	dirty     bool
}

// NewTerminalParser creates a parser with a rows x cols screen grid.
func NewTerminalParser(rows, cols int) *TerminalParser {
	return &TerminalParser{
		vt:      vt100.NewVT100(rows, cols),
		rows:    rows,
		cols:    cols,
		scanBuf: make([]byte, 0, scanBufferCap),
		dirty:   true,
	}
}

// Process appends data to the scan buffer, runs the marker scan, and
// forwards the bytes to the screen emulator.
func (p *TerminalParser) Process(data []byte) {
	if len(data) == 0 {
		return
	}

	p.scanBuf = append(p.scanBuf, data...)
	p.scanMarkers()
	p.enforceCap()

	// The emulator chokes on the integration sequences, so they are
	// stripped the same way the OSC 8 hyperlinks are.
	cleaned := integrationSequenceRegex.ReplaceAll(data, nil)
	if _, err := p.vt.Write(cleaned); err != nil {
		// vt100 reports unsupported sequences as errors; the grid stays
		// usable, so this is only worth a debug line.
		log.ParserTrace("vt100 write: %v", err)
	}
	p.dirty = true
}

// scanMarkers finds shell-integration markers in the scan buffer, emits
// events for them in positional order, and consumes the matched bytes so a
// marker can fire at most once across Process calls. A payload marker whose
// terminator has not arrived yet stops the pass; the bytes stay buffered
// until the next call.
func (p *TerminalParser) scanMarkers() {
	gitIndices := []int{}

	for {
		at := -1
		var m marker
		for _, cand := range markerTable {
			idx := bytes.Index(p.scanBuf, []byte(cand.prefix))
			if idx < 0 {
				continue
			}
			if at < 0 || idx < at {
				at = idx
				m = cand
			}
		}
		if at < 0 {
			break
		}

		payloadStart := at + len(m.prefix)
		consumed := payloadStart

		var payload string
		if m.hasPayload {
			end, termLen := findTerminator(p.scanBuf[payloadStart:])
			if end < 0 {
				// Incomplete sequence; wait for more bytes.
				break
			}
			payload = string(p.scanBuf[payloadStart : payloadStart+end])
			consumed = payloadStart + end + termLen
		}

		switch m.kind {
		case kindPromptShown:
			p.events = append(p.events, PromptShownEvent{})
			log.ParserTrace("prompt shown")
		case kindCommandStart:
			p.events = append(p.events, CommandStartEvent{})
			log.ParserTrace("command started")
		case kindCommandEnd:
			if code, ok := parseExitCode(payload); ok {
				p.events = append(p.events, CommandEndEvent{ExitCode: code})
				log.ParserTrace("command ended with exit code %d", code)
			}
		case kindGitInfo:
			if ev, ok := parseGitPayload(payload); ok {
				p.events = append(p.events, ev)
				gitIndices = append(gitIndices, len(p.events)-1)
			}
		case kindCommandLine:
			if text, ok := strings.CutPrefix(payload, ";"); ok && text != "" {
				p.events = append(p.events, CommandEvent{Text: text})
			}
		case kindCurrentDir:
			if payload != "" {
				p.events = append(p.events, DirectoryEvent{Path: payload})
			}
		case kindAltEnter:
			p.altScreen = true
		case kindAltExit:
			p.altScreen = false
		}

		p.scanBuf = p.scanBuf[consumed:]
	}

	// Only the most recent git state matters; drop all but the rightmost
	// git event emitted during this pass.
	if len(gitIndices) > 1 {
		drop := make(map[int]bool, len(gitIndices)-1)
		for _, i := range gitIndices[:len(gitIndices)-1] {
			drop[i] = true
		}
		filtered := p.events[:0]
		for i, ev := range p.events {
			if drop[i] {
				continue
			}
			filtered = append(filtered, ev)
		}
		p.events = filtered
	}
}

// findTerminator locates the next BEL or ST terminator in b.
// Returns the terminator offset and its length, or (-1, 0) if absent.
func findTerminator(b []byte) (int, int) {
	bel := bytes.IndexByte(b, 0x07)
	st := bytes.Index(b, []byte("\x1b\\"))
	switch {
	case bel < 0 && st < 0:
		return -1, 0
	case st < 0 || (bel >= 0 && bel < st):
		return bel, 1
	default:
		return st, 2
	}
}

// parseExitCode parses the ";<int>" payload of a command-end marker.
func parseExitCode(payload string) (int, bool) {
	rest, ok := strings.CutPrefix(payload, ";")
	if !ok {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return code, true
}

// parseGitPayload parses ";branch=<name>;status=<token>" pairs. An empty or
// missing branch yields no event; an unknown status is dropped but the
// branch is kept.
func parseGitPayload(payload string) (GitInfoEvent, bool) {
	var ev GitInfoEvent
	for _, part := range strings.Split(payload, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "branch":
			ev.Branch = value
		case "status":
			ev.Status = parseGitStatus(value)
		}
	}
	if ev.Branch == "" {
		return GitInfoEvent{}, false
	}
	return ev, true
}

// enforceCap truncates the scan buffer to its most recent tail once it
// grows past the cap. Runs after scanning, so complete markers have already
// been consumed.
func (p *TerminalParser) enforceCap() {
	if len(p.scanBuf) > scanBufferCap {
		keep := len(p.scanBuf) - scanBufferKeep
		p.scanBuf = append(p.scanBuf[:0], p.scanBuf[keep:]...)
	}
}

// Resize changes the screen grid dimensions.
func (p *TerminalParser) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}
	if rows != p.rows || cols != p.cols {
		p.vt.Resize(rows, cols)
		p.rows = rows
		p.cols = cols
		p.dirty = true
	}
}

// Screen returns the underlying screen grid.
func (p *TerminalParser) Screen() *vt100.VT100 {
	return p.vt
}

// Size returns the current grid dimensions.
func (p *TerminalParser) Size() (rows, cols int) {
	return p.rows, p.cols
}

// ScreenText returns a plain-text snapshot of the visible viewport.
// Content that scrolled off screen before a command completed is not
// captured; callers should treat this as the best available output record.
func (p *TerminalParser) ScreenText() string {
	var sb strings.Builder
	for y := 0; y < p.rows && y < len(p.vt.Content); y++ {
		row := p.vt.Content[y]
		lastNonBlank := -1
		for x := len(row) - 1; x >= 0; x-- {
			if row[x] != ' ' && row[x] != 0 {
				lastNonBlank = x
				break
			}
		}
		for x := 0; x <= lastNonBlank; x++ {
			if row[x] == 0 {
				sb.WriteRune(' ')
			} else {
				sb.WriteRune(row[x])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TakeEvents drains and returns the queued parser events.
func (p *TerminalParser) TakeEvents() []ParserEvent {
	events := p.events
	p.events = nil
	return events
}

// IsAltScreenActive reports whether the child entered the alternate screen
// buffer, which selects raw full-screen rendering over block rendering.
func (p *TerminalParser) IsAltScreenActive() bool {
	return p.altScreen
}

// IsDirty reports whether the grid changed since the last MarkClean.
func (p *TerminalParser) IsDirty() bool {
	return p.dirty
}

// MarkClean clears the dirty flag after a render pass.
func (p *TerminalParser) MarkClean() {
	p.dirty = false
}
