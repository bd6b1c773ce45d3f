package session

import (
	"fmt"
	"os"
	"time"

	"blockterm/log"
	"blockterm/session/git"
	"blockterm/session/wordgen"
)

// dataChannelSize bounds the reader-pump channel. A full channel blocks the
// pump, propagating flow control to the child via the pty buffer.
const dataChannelSize = 100

// Pane owns one shell session: the pty, the parser, and the block
// lifecycle. All of its methods run on the control-loop goroutine; the only
// concurrent actor is the reader pump, which touches nothing but dataCh.
type Pane struct {
	Tab   int
	ID    int
	Title string

	pty    *PtySession
	parser *TerminalParser
	dataCh chan []byte

	history      []Block
	current      *Block
	workingDir   string
	scrollOffset int
	followMode   bool

	host HostInfo

	// now and resolveGit are swappable for tests.
	now        func() time.Time
	resolveGit func(path string) (string, git.Status, error)
}

// NewPane spawns a shell in cwd and wires up the reader pump. An empty cwd
// falls back to the user's home directory, then the process cwd.
func NewPane(tab, id int, shell, cwd string) (*Pane, error) {
	if cwd == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cwd = home
		} else if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	pty, err := NewSessionWithCwd(shell, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to create pane: %w", err)
	}

	p := newPaneCore(tab, id, cwd)
	p.pty = pty

	p.dataCh = make(chan []byte, dataChannelSize)
	pty.SpawnReader(p.dataCh)

	return p, nil
}

// NewDetachedPane builds a pane with no underlying pty. Input is dropped
// and no reader pump runs; bytes are fed through Parser().Process directly.
// Used by tests and by tooling that replays recorded sessions.
func NewDetachedPane(tab, id int, cwd string) *Pane {
	return newPaneCore(tab, id, cwd)
}

// newPaneCore builds a pane without a pty, shared by NewPane and tests.
func newPaneCore(tab, id int, cwd string) *Pane {
	title := wordgen.Generate()
	if title == "" {
		title = fmt.Sprintf("pane-%d", id)
	}
	return &Pane{
		Tab:        tab,
		ID:         id,
		Title:      title,
		parser:     NewTerminalParser(defaultRows, defaultCols),
		workingDir: cwd,
		followMode: true,
		host:       ResolveHostInfo(),
		now:        time.Now,
		resolveGit: git.Resolve,
	}
}

// Tick drains whatever the reader pump produced since the last tick, feeds
// it to the parser, and applies the resulting events in FIFO order. It
// never blocks.
func (p *Pane) Tick() {
	hasNewData := false

drain:
	for {
		select {
		case data, ok := <-p.dataCh:
			if !ok {
				break drain
			}
			p.parser.Process(data)
			hasNewData = true
		default:
			break drain
		}
	}

	for _, ev := range p.parser.TakeEvents() {
		p.apply(ev)
	}

	if hasNewData && p.followMode {
		p.scrollOffset = 0
	}
}

// apply runs one block-lifecycle transition. Transitions cannot fail:
// events that need a running block and find none are dropped.
func (p *Pane) apply(ev ParserEvent) {
	switch ev := ev.(type) {
	case PromptShownEvent:
		// Hook point; nothing to do yet.
		log.BlockTrace("prompt shown")

	case CommandStartEvent:
		if p.current != nil {
			// The previous command never received an explicit end
			// marker (TUI program, abnormal shell exit). Close it out
			// so history stays consistent.
			log.BlockTrace("defensively finalizing block %q", p.current.Command)
			p.finalize(nil)
		}
		p.current = &Block{
			StartedAt: p.now(),
			Cwd:       p.workingDir,
			Host:      p.host.Display,
			IsRemote:  p.host.IsRemote,
		}
		log.BlockTrace("command started, new block created")

	case CommandEvent:
		if p.current != nil {
			p.current.Command = ev.Text
		}

	case DirectoryEvent:
		if p.current != nil {
			p.current.Cwd = ev.Path
		}
		// The pane tracks its working directory regardless of block
		// state so the next block inherits the right cwd.
		p.workingDir = ev.Path

	case GitInfoEvent:
		if p.current != nil {
			p.current.GitBranch = ev.Branch
			p.current.GitStatus = ev.Status
		}

	case CommandEndEvent:
		if p.current != nil {
			code := ev.ExitCode
			p.finalize(&code)
			log.BlockTrace("command ended with exit code %d, block saved", ev.ExitCode)
		}
	}
}

// finalize closes the current block, captures the visible screen as its
// output, and appends it to the append-only history. exitCode is nil for a
// defensive finalization.
func (p *Pane) finalize(exitCode *int) {
	b := p.current
	p.current = nil

	b.ExitCode = exitCode
	b.EndedAt = p.now()
	b.Duration = b.EndedAt.Sub(b.StartedAt)
	b.Output = p.parser.ScreenText()

	// The shell never reported git state for this block; fall back to
	// asking the repository directly. Best effort only.
	if b.GitBranch == "" && b.Cwd != "" && p.resolveGit != nil {
		if branch, status, err := p.resolveGit(b.Cwd); err == nil {
			b.GitBranch = branch
			b.GitStatus = GitStatus(status)
		}
	}

	p.history = append(p.history, *b)
}

// CanClose reports whether the pane may be closed. Close is refused while
// the current block has no exit code: a visibly running foreground command
// should never be torn down silently.
func (p *Pane) CanClose() bool {
	return p.current == nil || p.current.ExitCode != nil
}

// Close tears down the pty and child process. Callers must check CanClose
// first; Close itself does not re-check.
func (p *Pane) Close() {
	if p.pty != nil {
		p.pty.Close()
	}
}

// SendInput forwards framed bytes to the child under the pane's try-lock
// write policy.
func (p *Pane) SendInput(data []byte) {
	if p.pty != nil {
		p.pty.TryWrite(data)
	}
}

// Resize updates both the pty geometry and the parser grid.
func (p *Pane) Resize(rows, cols, pixelW, pixelH uint16) {
	if p.pty != nil {
		p.pty.Resize(rows, cols, pixelW, pixelH)
	}
	p.parser.Resize(int(rows), int(cols))
}

// Parser exposes the pane's terminal parser to the render layer.
func (p *Pane) Parser() *TerminalParser {
	return p.parser
}

// History returns the finalized blocks, oldest first. The slice is the
// pane's own append-only history; callers must not mutate block identity
// fields through it.
func (p *Pane) History() []Block {
	return p.history
}

// CurrentBlock returns the running block, or nil when idle.
func (p *Pane) CurrentBlock() *Block {
	return p.current
}

// Host returns the host context stamped onto this pane's blocks.
func (p *Pane) Host() HostInfo {
	return p.host
}

// WorkingDir returns the pane's last known working directory.
func (p *Pane) WorkingDir() string {
	return p.workingDir
}

// ScrollOffset returns the scrollback offset (0 = following newest).
func (p *Pane) ScrollOffset() int {
	return p.scrollOffset
}

// SetScroll sets the scrollback offset and disables follow mode for any
// non-zero offset.
func (p *Pane) SetScroll(offset int) {
	if offset < 0 {
		offset = 0
	}
	p.scrollOffset = offset
	p.followMode = offset == 0
}

// Annotation operations: the only mutations allowed on finalized blocks.

// TogglePin flips the pinned flag on a history block.
func (p *Pane) TogglePin(i int) {
	if i >= 0 && i < len(p.history) {
		p.history[i].Pinned = !p.history[i].Pinned
	}
}

// ToggleSelect flips the selected flag on a history block.
func (p *Pane) ToggleSelect(i int) {
	if i >= 0 && i < len(p.history) {
		p.history[i].Selected = !p.history[i].Selected
	}
}

// ToggleCollapse flips the collapsed flag on a history block.
func (p *Pane) ToggleCollapse(i int) {
	if i >= 0 && i < len(p.history) {
		p.history[i].Collapsed = !p.history[i].Collapsed
	}
}

// SetTags replaces the tags on a history block.
func (p *Pane) SetTags(i int, tags []string) {
	if i >= 0 && i < len(p.history) {
		p.history[i].Tags = tags
	}
}

// EditCommand rewrites the recorded command text of a history block.
func (p *Pane) EditCommand(i int, command string) {
	if i >= 0 && i < len(p.history) {
		p.history[i].Command = command
	}
}
