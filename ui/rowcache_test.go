package ui

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonistiigi/vt100"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func plainRow(s string) ([]rune, []vt100.Format) {
	content := []rune(s)
	return content, make([]vt100.Format, len(content))
}

func TestRowRunsMergesEqualStyles(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	content, formats := plainRow("hello world")

	runs := c.RowRuns(RowKey{Row: 0}, content, formats)
	require.Len(t, runs, 1, "uniform row collapses to a single run")
	assert.Equal(t, "hello world", runs[0].Text)
}

func TestRowRunsSplitsOnColorChange(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	content := []rune("abcd")
	formats := []vt100.Format{
		{Fg: red}, {Fg: red}, {Fg: blue}, {Fg: blue},
	}

	runs := c.RowRuns(RowKey{Row: 0}, content, formats)
	require.Len(t, runs, 2)
	assert.Equal(t, "ab", runs[0].Text)
	assert.Equal(t, red, runs[0].Fg)
	assert.Equal(t, "cd", runs[1].Text)
	assert.Equal(t, blue, runs[1].Fg)
}

func TestRowRunsResolvesDefaultColors(t *testing.T) {
	theme := DefaultTheme()
	c := NewRowCache(theme)
	content, formats := plainRow("x")

	runs := c.RowRuns(RowKey{Row: 0}, content, formats)
	require.Len(t, runs, 1)
	assert.Equal(t, theme.Foreground, runs[0].Fg)
	assert.Equal(t, theme.Background, runs[0].Bg)
}

func TestRowRunsBlankCellsBecomeSpaces(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	content := []rune{'a', 0, 'b'}
	formats := make([]vt100.Format, 3)

	runs := c.RowRuns(RowKey{Row: 0}, content, formats)
	require.Len(t, runs, 1)
	assert.Equal(t, "a b", runs[0].Text)
}

func TestRowRunsCacheHit(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	key := RowKey{Tab: 1, Pane: 2, Row: 3}
	content, formats := plainRow("cached row")

	first := c.RowRuns(key, content, formats)
	second := c.RowRuns(key, content, formats)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	// A hit hands back the stored slice, not a recomputation.
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, 1, c.Len())
}

func TestRowRunsRecomputesOnChange(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	key := RowKey{Row: 0}

	content, formats := plainRow("before")
	c.RowRuns(key, content, formats)

	content2, formats2 := plainRow("after ")
	runs := c.RowRuns(key, content2, formats2)
	require.Len(t, runs, 1)
	assert.Equal(t, "after ", runs[0].Text)

	// Same text, different color: the structural hash must differ too.
	formats2[0].Fg = red
	runs = c.RowRuns(key, content2, formats2)
	require.Len(t, runs, 2)
	assert.Equal(t, red, runs[0].Fg)
}

func TestRowCacheInvalidate(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	content, formats := plainRow("row")

	c.RowRuns(RowKey{Row: 0}, content, formats)
	c.RowRuns(RowKey{Row: 1}, content, formats)
	require.Equal(t, 2, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}

func TestRowCachePurgePane(t *testing.T) {
	c := NewRowCache(DefaultTheme())
	content, formats := plainRow("row")

	c.RowRuns(RowKey{Tab: 0, Pane: 0, Row: 0}, content, formats)
	c.RowRuns(RowKey{Tab: 0, Pane: 0, Row: 1}, content, formats)
	c.RowRuns(RowKey{Tab: 0, Pane: 1, Row: 0}, content, formats)
	require.Equal(t, 3, c.Len())

	c.PurgePane(0, 0)
	assert.Equal(t, 1, c.Len())

	// The surviving pane's entry still hits.
	first := c.RowRuns(RowKey{Tab: 0, Pane: 1, Row: 0}, content, formats)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, c.Len())
}
