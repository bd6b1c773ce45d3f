package app

import (
	"context"
	"fmt"
	"time"

	"blockterm/config"
	"blockterm/export"
	"blockterm/log"
	"blockterm/session"
	"blockterm/ui"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run is the main entrypoint into the application.
func Run(ctx context.Context, shell string) error {
	log.InfoLog.Printf("terminal color profile: %v", ui.ColorProfile())

	h, err := newHome(ctx, shell)
	if err != nil {
		return err
	}
	p := tea.NewProgram(h, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type state int

const (
	stateDefault state = iota
	// stateSearch is the state when the user is typing a block filter query.
	stateSearch
)

// chromeHeight is the rows the title bar and status line take away from the
// pty grid.
const chromeHeight = 2

type home struct {
	ctx context.Context

	// -- Storage and Configuration --

	shell     string
	appConfig *config.Config
	appState  *config.State
	storage   *session.Storage

	// -- State --

	state state
	// panes are the live shell sessions; active indexes the focused one.
	panes  []*session.Pane
	active int
	nextID int
	// restored holds finalized blocks loaded from a previous run. They are
	// display-only and never mutated.
	restored []session.Block
	// filter is the active block filter; empty zero value shows everything.
	filter session.BlockFilter
	// savedBlocks is the finalized-block count at the last persist.
	savedBlocks int
	// pendingSave indicates that a save is queued (for debouncing)
	pendingSave bool

	// -- UI Components --

	renderer    *ui.Renderer
	spinner     spinner.Model
	searchInput textinput.Model
	statusText  string
	width       int
	height      int
}

func newHome(ctx context.Context, shell string) (*home, error) {
	appConfig := config.LoadConfig()
	appState := config.LoadState()
	storage := session.NewStorage(appState)

	if shell == "" {
		shell = appConfig.DefaultShell
	}
	if shell == "" {
		shell = config.GetShell()
	}

	theme := ui.NewTheme(appConfig.ThemeBackground, appConfig.ThemeForeground)

	pane, err := session.NewPane(0, 0, shell, "")
	if err != nil {
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	h := &home{
		ctx:       ctx,
		shell:     shell,
		appConfig: appConfig,
		appState:  appState,
		storage:   storage,
		panes:     []*session.Pane{pane},
		nextID:    1,
		renderer:  ui.NewRenderer(theme),
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}

	h.searchInput = textinput.New()
	h.searchInput.Placeholder = "filter blocks"
	h.searchInput.CharLimit = 120

	if appConfig.PersistHistory {
		restored, err := storage.LoadBlocks()
		if err != nil {
			log.WarningLog.Printf("failed to load block history: %v", err)
		} else {
			h.restored = restored
		}
	}

	return h, nil
}

func (m *home) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.tickCmd(),
	)
}

// tickCmd schedules the next control-loop tick. Each tick drains the reader
// pumps, so the interval bounds input-to-screen latency.
func (m *home) tickCmd() tea.Cmd {
	return tea.Tick(m.appConfig.TickInterval(), func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		for _, p := range m.panes {
			p.Tick()
		}
		return m, tea.Batch(m.tickCmd(), m.maybeSave())

	case hideStatusMsg:
		m.statusText = ""
		return m, nil

	case saveDebounceMsg:
		m.pendingSave = false
		blocks := m.allFinalizedBlocks()
		// Perform the save asynchronously to avoid blocking the UI
		go func() {
			if err := m.storage.SaveBlocks(blocks); err != nil {
				log.ErrorLog.Printf("failed to save block history: %v", err)
			}
		}()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := msg.Height - chromeHeight
		if rows < 1 {
			rows = 1
		}
		for _, p := range m.panes {
			p.Resize(uint16(rows), uint16(msg.Width), 0, 0)
		}
		m.renderer.Cache().Invalidate()
		return m, nil
	}

	return m, nil
}

func (m *home) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateSearch {
		return m.handleSearchKey(msg)
	}

	pane := m.activePane()

	switch {
	case key.Matches(msg, appKeys.Quit):
		for _, p := range m.panes {
			if !p.CanClose() {
				return m, m.showStatus("a command is still running; refusing to quit")
			}
		}
		blocks := m.allFinalizedBlocks()
		if m.appConfig.PersistHistory {
			if err := m.storage.SaveBlocks(blocks); err != nil {
				log.ErrorLog.Printf("failed to save block history: %v", err)
			}
		}
		for _, p := range m.panes {
			p.Close()
		}
		log.GetProfiler().LogStats()
		return m, tea.Quit

	case key.Matches(msg, appKeys.NewPane):
		p, err := session.NewPane(0, m.nextID, m.shell, pane.WorkingDir())
		if err != nil {
			return m, m.showStatus("new pane: %v", err)
		}
		m.nextID++
		m.panes = append(m.panes, p)
		m.active = len(m.panes) - 1
		return m, tea.WindowSize()

	case key.Matches(msg, appKeys.ClosePane):
		if !pane.CanClose() {
			return m, m.showStatus("a command is still running; refusing to close")
		}
		pane.Close()
		m.renderer.Cache().PurgePane(pane.Tab, pane.ID)
		m.panes = append(m.panes[:m.active], m.panes[m.active+1:]...)
		if len(m.panes) == 0 {
			return m, tea.Quit
		}
		if m.active >= len(m.panes) {
			m.active = len(m.panes) - 1
		}
		return m, nil

	case key.Matches(msg, appKeys.NextPane):
		m.active = (m.active + 1) % len(m.panes)
		return m, nil

	case key.Matches(msg, appKeys.Search):
		m.state = stateSearch
		m.searchInput.SetValue(m.filter.Query)
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, appKeys.Export):
		return m, m.exportBlocks()

	case key.Matches(msg, appKeys.CopyOutput):
		if b := lastFinalized(pane.History()); b != nil {
			if err := b.CopyOutput(); err != nil {
				return m, m.showStatus("copy failed: %v", err)
			}
			return m, m.showStatus("output copied")
		}
		return m, nil

	case key.Matches(msg, appKeys.Pin):
		if n := len(pane.History()); n > 0 {
			pane.TogglePin(n - 1)
		}
		return m, nil

	case key.Matches(msg, appKeys.Select):
		if n := len(pane.History()); n > 0 {
			pane.ToggleSelect(n - 1)
		}
		return m, nil

	case key.Matches(msg, appKeys.Collapse):
		if n := len(pane.History()); n > 0 {
			pane.ToggleCollapse(n - 1)
		}
		return m, nil

	case key.Matches(msg, appKeys.ScrollUp):
		pane.SetScroll(pane.ScrollOffset() + 1)
		return m, nil

	case key.Matches(msg, appKeys.ScrollDown):
		pane.SetScroll(pane.ScrollOffset() - 1)
		return m, nil
	}

	if data := keyToBytes(msg); data != nil {
		pane.SendInput(data)
	}
	return m, nil
}

func (m *home) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateDefault
		m.searchInput.Blur()
		m.filter.Query = ""
		return m, nil
	case "enter":
		m.state = stateDefault
		m.searchInput.Blur()
		m.filter.Query = m.searchInput.Value()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *home) exportBlocks() tea.Cmd {
	pane := m.activePane()
	indices := session.FilterBlocks(pane.History(), m.filter)
	blocks := make([]session.Block, 0, len(indices))
	for _, i := range indices {
		blocks = append(blocks, pane.History()[i])
	}

	// Explicit selections narrow the export further.
	var selected []session.Block
	for _, b := range blocks {
		if b.Selected {
			selected = append(selected, b)
		}
	}
	if len(selected) > 0 {
		blocks = selected
	}

	if len(blocks) == 0 {
		return m.showStatus("nothing to export")
	}

	content, err := export.FormatBlocks(blocks, export.FormatMarkdown)
	if err != nil {
		return m.showStatus("export failed: %v", err)
	}
	path, err := export.WriteFile(m.appConfig.ExportDir, export.FormatMarkdown, content)
	if err != nil {
		return m.showStatus("export failed: %v", err)
	}
	return m.showStatus("exported %d blocks to %s", len(blocks), path)
}

// maybeSave schedules a debounced persist when new blocks have been
// finalized since the last save.
func (m *home) maybeSave() tea.Cmd {
	if !m.appConfig.PersistHistory || m.pendingSave {
		return nil
	}
	total := 0
	for _, p := range m.panes {
		total += len(p.History())
	}
	if total == m.savedBlocks {
		return nil
	}
	m.savedBlocks = total
	m.pendingSave = true
	return func() tea.Msg {
		time.Sleep(saveDebounceDelay)
		return saveDebounceMsg{}
	}
}

func (m *home) allFinalizedBlocks() []session.Block {
	blocks := make([]session.Block, 0, len(m.restored))
	blocks = append(blocks, m.restored...)
	for _, p := range m.panes {
		blocks = append(blocks, p.History()...)
	}
	return blocks
}

func (m *home) activePane() *session.Pane {
	return m.panes[m.active]
}

// showStatus sets the status line and returns a command that clears it
// after 3 seconds.
func (m *home) showStatus(format string, v ...interface{}) tea.Cmd {
	m.statusText = fmt.Sprintf(format, v...)
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
		case <-time.After(3 * time.Second):
		}
		return hideStatusMsg{}
	}
}

func (m *home) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	pane := m.activePane()
	parser := pane.Parser()

	title := m.renderer.RenderTitle(m.paneLabel(), pane.Host().Display, m.width)

	var body string
	if parser.IsAltScreenActive() {
		// A fullscreen program owns the grid; block chrome would only
		// corrupt its layout.
		body = m.renderer.RenderScreen(pane.Tab, pane.ID, parser)
	} else {
		body = m.blocksView(pane)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.statusLine())
}

// blocksView stacks recent finalized blocks above the live grid, newest at
// the bottom, honoring the scroll offset and the active filter.
func (m *home) blocksView(pane *session.Pane) string {
	gridHeight := m.height - chromeHeight
	screen := m.renderer.RenderScreen(pane.Tab, pane.ID, pane.Parser())

	indices := session.FilterBlocks(pane.History(), m.filter)
	offset := pane.ScrollOffset()
	if offset > len(indices) {
		offset = len(indices)
	}
	visible := indices[:len(indices)-offset]

	// Show as many recent blocks as fit above the live screen.
	budget := gridHeight / 2
	var parts []string
	for i := len(visible) - 1; i >= 0 && budget > 0; i-- {
		b := &pane.History()[visible[i]]
		card := m.renderer.RenderBlock(b, m.width, m.spinner.View())
		h := lipgloss.Height(card)
		if h > budget {
			break
		}
		budget -= h
		parts = append([]string{card}, parts...)
	}

	parts = append(parts, screen)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *home) paneLabel() string {
	pane := m.activePane()
	if len(m.panes) == 1 {
		return pane.Title
	}
	return fmt.Sprintf("%s (%d/%d)", pane.Title, m.active+1, len(m.panes))
}

func (m *home) statusLine() string {
	if m.state == stateSearch {
		return m.searchInput.View()
	}
	if m.statusText != "" {
		return lipgloss.NewStyle().Foreground(ui.TextMuted).Render(m.statusText)
	}
	if m.filter.Query != "" {
		return lipgloss.NewStyle().Foreground(ui.TextMuted).Render("filter: " + m.filter.Query)
	}
	if b := m.activePane().CurrentBlock(); b != nil {
		return lipgloss.NewStyle().Foreground(ui.StatusRunning).Render(m.spinner.View() + " running")
	}
	return ""
}

// tickMsg drives the control loop.
type tickMsg struct{}

// hideStatusMsg implements tea.Msg and clears the status text from the screen.
type hideStatusMsg struct{}

// saveDebounceMsg is sent after a debounce delay to trigger a save
type saveDebounceMsg struct{}

// saveDebounceDelay is how long to wait before persisting newly finalized blocks
const saveDebounceDelay = 500 * time.Millisecond

// lastFinalized returns the newest finalized block in history, or nil.
func lastFinalized(history []session.Block) *session.Block {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Finalized() {
			return &history[i]
		}
	}
	return nil
}
