package ui

import (
	"hash/fnv"
	"image/color"
	"sync"

	"blockterm/log"

	"github.com/tonistiigi/vt100"
)

// RowKey addresses one visible grid row of one pane.
type RowKey struct {
	Tab  int
	Pane int
	Row  int
}

// StyleRun is a maximal horizontal span of cells sharing identical
// foreground and background colors. Batching cells into runs reduces
// O(cols) draw primitives to O(distinct style transitions).
type StyleRun struct {
	Text string
	Fg   color.RGBA
	Bg   color.RGBA
}

type rowEntry struct {
	hash uint64
	runs []StyleRun
}

// RowCache memoizes per-row style runs keyed by a structural hash of the
// row's content and resolved colors. It is an explicit object owned by the
// renderer, never a package global; the renderer passes it into each draw.
// The mutex is scoped to a single lookup/insert, never a whole frame.
//
// The cache never invalidates itself row-by-row: callers clear it wholesale
// on resize and purge a pane's entries on close, otherwise stale keys
// accumulate without bound.
type RowCache struct {
	mu    sync.Mutex
	theme Theme
	rows  map[RowKey]rowEntry
}

// NewRowCache creates an empty cache resolving default colors via theme.
func NewRowCache(theme Theme) *RowCache {
	return &RowCache{
		theme: theme,
		rows:  make(map[RowKey]rowEntry),
	}
}

// RowRuns returns the style runs for one grid row, reusing the cached runs
// when the freshly computed hash matches the stored one.
func (c *RowCache) RowRuns(key RowKey, content []rune, formats []vt100.Format) []StyleRun {
	hash := c.rowHash(content, formats)

	c.mu.Lock()
	entry, ok := c.rows[key]
	if ok && entry.hash == hash {
		c.mu.Unlock()
		log.GetProfiler().RecordRowLookup(true)
		return entry.runs
	}
	c.mu.Unlock()
	log.GetProfiler().RecordRowLookup(false)

	runs := c.buildRuns(content, formats)

	c.mu.Lock()
	c.rows[key] = rowEntry{hash: hash, runs: runs}
	c.mu.Unlock()

	return runs
}

// rowHash computes a structural hash over each cell's grapheme and
// resolved fg/bg colors.
func (c *RowCache) rowHash(content []rune, formats []vt100.Format) uint64 {
	h := fnv.New64a()
	var scratch [11]byte
	for x := 0; x < len(content); x++ {
		ch := content[x]
		fg, bg := c.resolve(formatAt(formats, x))

		scratch[0] = byte(ch)
		scratch[1] = byte(ch >> 8)
		scratch[2] = byte(ch >> 16)
		scratch[3] = byte(ch >> 24)
		scratch[4] = fg.R
		scratch[5] = fg.G
		scratch[6] = fg.B
		scratch[7] = bg.R
		scratch[8] = bg.G
		scratch[9] = bg.B
		scratch[10] = 0xff // cell separator
		_, _ = h.Write(scratch[:])
	}
	return h.Sum64()
}

// buildRuns merges cells left to right, extending the current run while
// fg/bg match and closing it on any mismatch.
func (c *RowCache) buildRuns(content []rune, formats []vt100.Format) []StyleRun {
	if len(content) == 0 {
		return nil
	}

	var runs []StyleRun
	var current StyleRun
	var text []rune

	flush := func() {
		if len(text) > 0 {
			current.Text = string(text)
			runs = append(runs, current)
			text = text[:0]
		}
	}

	for x := 0; x < len(content); x++ {
		ch := content[x]
		if ch == 0 {
			ch = ' '
		}
		fg, bg := c.resolve(formatAt(formats, x))

		if len(text) == 0 || fg != current.Fg || bg != current.Bg {
			flush()
			current = StyleRun{Fg: fg, Bg: bg}
		}
		text = append(text, ch)
	}
	flush()

	return runs
}

// resolve maps a cell format to concrete colors. The zero RGBA means
// "default", which resolves to the theme colors.
func (c *RowCache) resolve(f vt100.Format) (fg, bg color.RGBA) {
	fg, bg = f.Fg, f.Bg
	if isZeroColor(fg) {
		fg = c.theme.Foreground
	}
	if isZeroColor(bg) {
		bg = c.theme.Background
	}
	return fg, bg
}

func isZeroColor(c color.RGBA) bool {
	return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 0
}

func formatAt(formats []vt100.Format, x int) vt100.Format {
	if x < len(formats) {
		return formats[x]
	}
	return vt100.Format{}
}

// Invalidate clears the whole cache. Callers do this on resize, when row
// and column indices stop being comparable.
func (c *RowCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[RowKey]rowEntry)
}

// PurgePane removes all entries for one pane. Callers do this when a pane
// closes; leaving the entries is an unbounded-growth leak.
func (c *RowCache) PurgePane(tab, pane int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.rows {
		if key.Tab == tab && key.Pane == pane {
			delete(c.rows, key)
		}
	}
}

// Len reports the number of cached rows.
func (c *RowCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}
