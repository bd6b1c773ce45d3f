package ui

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Status colors for block chrome. Each status pairs a color with an icon so
// state reads even without color.
var (
	// StatusSuccess marks a block whose command exited zero
	StatusSuccess = lipgloss.AdaptiveColor{Light: "#22C55E", Dark: "#22C55E"}

	// StatusRunning marks the live block
	StatusRunning = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

	// StatusError marks a block whose command exited non-zero
	StatusError = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#EF4444"}

	// StatusUnknown marks a defensively finalized block with no exit code
	StatusUnknown = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
)

// Chrome colors for the block list and header line
var (
	Border        = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#3C3C3C"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
	PinnedAccent  = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}
)

// Status icons (shape + color for accessibility)
const (
	IconSuccess = "+"
	IconRunning = "○"
	IconError   = "×"
	IconUnknown = "?"
	IconPinned  = "★"
)

// Theme resolves "default" cell colors to concrete values. A default
// background maps to a fixed color, never transparency, so full-row fills
// have no gaps.
type Theme struct {
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultTheme is the fallback when config colors fail to parse.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff},
		Foreground: color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff},
	}
}

// NewTheme builds a theme from "#rrggbb" hex strings, falling back to the
// defaults for anything unparsable.
func NewTheme(background, foreground string) Theme {
	theme := DefaultTheme()
	if c, ok := parseHexColor(background); ok {
		theme.Background = c
	}
	if c, ok := parseHexColor(foreground); ok {
		theme.Foreground = c
	}
	return theme
}

func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexVal(s[1+2*i])
		lo, ok2 := hexVal(s[2+2*i])
		if !ok1 || !ok2 {
			return color.RGBA{}, false
		}
		out[i] = hi<<4 | lo
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: 0xff}, true
}

func hexVal(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// ColorProfile reports the terminal's color capability, used to decide
// whether grid runs render as true color or degrade to ANSI.
func ColorProfile() termenv.Profile {
	return termenv.ColorProfile()
}
