package session

import "os"

// HostInfo identifies where commands run, stamped onto every block.
type HostInfo struct {
	Display  string
	IsRemote bool
}

// ResolveHostInfo returns the local hostname and whether this process is
// running inside an SSH session.
func ResolveHostInfo() HostInfo {
	display, err := os.Hostname()
	if err != nil || display == "" {
		display = "localhost"
	}

	isRemote := os.Getenv("SSH_CONNECTION") != "" ||
		os.Getenv("SSH_CLIENT") != "" ||
		os.Getenv("SSH_TTY") != ""

	return HostInfo{Display: display, IsRemote: isRemote}
}
