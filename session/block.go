package session

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

// Block is one command execution: its timing, output, and metadata. A block
// is created running (no exit code) on CommandStart and finalized on
// CommandEnd, or defensively by the next CommandStart. Once finalized and
// appended to history, only the user-annotation fields (Pinned, Selected,
// Collapsed, Tags, manual command edits) may change.
type Block struct {
	Command   string        `json:"command"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	// ExitCode is nil while the command is running or when the block was
	// finalized defensively without an explicit end marker.
	ExitCode  *int      `json:"exit_code,omitempty"`
	Cwd       string    `json:"cwd,omitempty"`
	GitBranch string    `json:"git_branch,omitempty"`
	GitStatus GitStatus `json:"git_status,omitempty"`
	Output    string    `json:"output"`
	Host      string    `json:"host"`
	IsRemote  bool      `json:"is_remote,omitempty"`
	Pinned    bool      `json:"pinned,omitempty"`
	Selected  bool      `json:"selected,omitempty"`
	Collapsed bool      `json:"collapsed,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Finalized reports whether the block has been closed out. A finalized
// block always has both timestamps set.
func (b *Block) Finalized() bool {
	return !b.EndedAt.IsZero()
}

// Succeeded reports whether the command exited zero.
func (b *Block) Succeeded() bool {
	return b.ExitCode != nil && *b.ExitCode == 0
}

// Failed reports whether the command exited non-zero.
func (b *Block) Failed() bool {
	return b.ExitCode != nil && *b.ExitCode != 0
}

// CopyOutput places the block's captured output on the system clipboard.
func (b *Block) CopyOutput() error {
	return clipboard.WriteAll(b.Output)
}

// BlockFilter selects blocks from a history for search and export.
type BlockFilter struct {
	Query       string
	SuccessOnly bool
	FailureOnly bool
	PinnedOnly  bool
}

// Matches reports whether the block passes the filter. The query is a
// case-insensitive substring match on the command text.
func (f BlockFilter) Matches(b *Block) bool {
	if f.SuccessOnly && !b.Succeeded() {
		return false
	}
	if f.FailureOnly && !b.Failed() {
		return false
	}
	if f.PinnedOnly && !b.Pinned {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(b.Command), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// FilterBlocks returns the history indices of blocks passing the filter,
// in history order.
func FilterBlocks(history []Block, f BlockFilter) []int {
	var matches []int
	for i := range history {
		if f.Matches(&history[i]) {
			matches = append(matches, i)
		}
	}
	return matches
}
