package session

// ParserEvent is a discrete event recovered from the shell-integration
// protocol embedded in the pty byte stream. Events are queued FIFO by the
// parser and drained once per control tick.
type ParserEvent interface{}

// PromptShownEvent signals the shell displayed its prompt (OSC 133;A).
type PromptShownEvent struct{}

// CommandStartEvent signals command execution started (OSC 133;C).
type CommandStartEvent struct{}

// CommandEvent carries the command line the user ran (OSC 633;E).
type CommandEvent struct {
	Text string
}

// CommandEndEvent signals the command finished with an exit code (OSC 133;D).
type CommandEndEvent struct {
	ExitCode int
}

// DirectoryEvent carries an absolute working-directory path (OSC 1337 CurrentDir).
type DirectoryEvent struct {
	Path string
}

// GitStatus is the shell-reported state of the working tree.
type GitStatus string

const (
	GitStatusClean     GitStatus = "clean"
	GitStatusDirty     GitStatus = "dirty"
	GitStatusConflicts GitStatus = "conflicts"
)

// parseGitStatus maps a protocol status token to a GitStatus.
// Unknown tokens map to the empty status.
func parseGitStatus(s string) GitStatus {
	switch s {
	case "clean":
		return GitStatusClean
	case "dirty":
		return GitStatusDirty
	case "conflicts":
		return GitStatusConflicts
	}
	return ""
}

// GitInfoEvent carries git state reported by the shell (OSC 133;G extension).
type GitInfoEvent struct {
	Branch string
	Status GitStatus
}
