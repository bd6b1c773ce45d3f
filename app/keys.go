package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap holds the control-key bindings. Everything not bound here is
// forwarded to the shell as raw bytes.
type keyMap struct {
	Quit       key.Binding
	NewPane    key.Binding
	ClosePane  key.Binding
	NextPane   key.Binding
	Search     key.Binding
	Export     key.Binding
	CopyOutput key.Binding
	Pin        key.Binding
	Select     key.Binding
	Collapse   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

var appKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+q"),
		key.WithHelp("ctrl+q", "quit"),
	),
	NewPane: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "new pane"),
	),
	ClosePane: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("ctrl+w", "close pane"),
	),
	NextPane: key.NewBinding(
		key.WithKeys("ctrl+right"),
		key.WithHelp("ctrl+→", "next pane"),
	),
	Search: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "search blocks"),
	),
	Export: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "export"),
	),
	CopyOutput: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy output"),
	),
	Pin: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "pin block"),
	),
	Select: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "select block"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "collapse block"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("shift+up", "pgup"),
		key.WithHelp("shift+↑", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("shift+down", "pgdown"),
		key.WithHelp("shift+↓", "scroll down"),
	),
}

// keyToBytes translates a key press into the byte sequence the shell
// expects to read from its terminal. Named keys with no mapping return nil
// and are swallowed; only literal text falls through as-is.
func keyToBytes(msg tea.KeyMsg) []byte {
	switch msg.String() {
	case "enter":
		return []byte{'\r'}
	case "backspace":
		return []byte{0x7f}
	case "tab":
		return []byte{'\t'}
	case "esc":
		return []byte{0x1b}
	case "up":
		return []byte("\x1b[A")
	case "down":
		return []byte("\x1b[B")
	case "right":
		return []byte("\x1b[C")
	case "left":
		return []byte("\x1b[D")
	case "home":
		return []byte("\x1b[H")
	case "end":
		return []byte("\x1b[F")
	case "delete":
		return []byte("\x1b[3~")
	case "space":
		return []byte{' '}
	case "ctrl+c":
		return []byte{0x03}
	case "ctrl+d":
		return []byte{0x04}
	case "ctrl+z":
		return []byte{0x1a}
	case "ctrl+l":
		return []byte{0x0c}
	case "ctrl+a":
		return []byte{0x01}
	case "ctrl+k":
		return []byte{0x0b}
	case "ctrl+u":
		return []byte{0x15}
	case "ctrl+r":
		return []byte{0x12}
	}
	// Only literal text may pass through String(); for every other named
	// key that string is the key's name, not its byte sequence.
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		return []byte(msg.String())
	}
	return nil
}
