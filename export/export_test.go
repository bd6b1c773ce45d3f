package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blockterm/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleBlocks() []session.Block {
	return []session.Block{
		{
			Command:  "echo hello",
			Output:   "hello\n",
			ExitCode: intPtr(0),
			Duration: 1500 * time.Millisecond,
			EndedAt:  time.Date(2026, 8, 1, 12, 0, 1, 0, time.UTC),
		},
		{
			Command:  "ls /missing",
			Output:   "ls: /missing: No such file or directory\n",
			ExitCode: intPtr(2),
			Duration: 20 * time.Millisecond,
			EndedAt:  time.Date(2026, 8, 1, 12, 0, 5, 0, time.UTC),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"markdown", FormatMarkdown, true},
		{"md", FormatMarkdown, true},
		{"JSON", FormatJSON, true},
		{"html", FormatHTML, true},
		{"text", FormatText, true},
		{"txt", FormatText, true},
		{"pdf", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}

func TestFormatMarkdown(t *testing.T) {
	out, err := FormatBlocks(sampleBlocks(), FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, out, "## echo hello")
	assert.Contains(t, out, "```bash\necho hello\n```")
	assert.Contains(t, out, "hello\n")
	assert.Contains(t, out, "Exit Code: 0")
	assert.Contains(t, out, "Duration: 1500ms")
	assert.Contains(t, out, "Exit Code: 2")
}

func TestFormatText(t *testing.T) {
	out, err := FormatBlocks(sampleBlocks(), FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "Command: echo hello")
	assert.Contains(t, out, "Exit Code: 2")
	assert.Contains(t, out, "Duration: 20ms")
	assert.Equal(t, 2, strings.Count(out, "\n---\n"))
}

func TestFormatJSONRoundTrip(t *testing.T) {
	out, err := FormatBlocks(sampleBlocks(), FormatJSON)
	require.NoError(t, err)

	var decoded []session.Block
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "echo hello", decoded[0].Command)
	assert.Equal(t, 2, *decoded[1].ExitCode)
}

func TestFormatHTMLEscapes(t *testing.T) {
	blocks := []session.Block{{
		Command:  `echo "<script>" && true`,
		Output:   "<script>\n",
		ExitCode: intPtr(0),
	}}

	out, err := FormatBlocks(blocks, FormatHTML)
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>\n")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&quot;")
	assert.Contains(t, out, "&amp;&amp;")
	assert.Contains(t, out, "<!doctype html>")
}

func TestFormatMissingExitCode(t *testing.T) {
	blocks := []session.Block{{Command: "top", Output: ""}}

	out, err := FormatBlocks(blocks, FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "Exit Code: -1")
}

func TestFormatBlocksUnknownFormat(t *testing.T) {
	_, err := FormatBlocks(sampleBlocks(), Format("pdf"))
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, FormatMarkdown, "# export\n")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "blockterm_export_"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# export\n", string(data))
}

func TestWriteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	path, err := WriteFile(dir, FormatText, "content")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
