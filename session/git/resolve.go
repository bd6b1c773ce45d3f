// Package git resolves repository state for blocks whose shell never
// reported it through the integration protocol.
package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// Status mirrors the shell-integration status tokens.
type Status string

const (
	StatusClean     Status = "clean"
	StatusDirty     Status = "dirty"
	StatusConflicts Status = "conflicts"
)

// cacheEntry memoizes one path's resolution. Worktree status walks the
// whole tree, which is far too slow to repeat every block finalization.
type cacheEntry struct {
	branch   string
	status   Status
	err      error
	resolved time.Time
}

const cacheDuration = 5 * time.Second

var cache = map[string]cacheEntry{}

// Resolve returns the branch and working-tree status for the repository
// containing path. Results are cached briefly. Only the control loop calls
// this, so the cache needs no lock.
func Resolve(path string) (string, Status, error) {
	if entry, ok := cache[path]; ok && time.Since(entry.resolved) < cacheDuration {
		return entry.branch, entry.status, entry.err
	}

	branch, status, err := resolve(path)
	cache[path] = cacheEntry{branch: branch, status: status, err: err, resolved: time.Now()}
	return branch, status, err
}

func resolve(path string) (string, Status, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		// Unborn HEAD (fresh repo) or detached state we can't name.
		return "", "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	branch := head.Name().Short()

	worktree, err := repo.Worktree()
	if err != nil {
		return branch, "", nil
	}

	wtStatus, err := worktree.Status()
	if err != nil {
		return branch, "", nil
	}

	status := StatusClean
	for _, fileStatus := range wtStatus {
		if fileStatus.Staging == gogit.UpdatedButUnmerged || fileStatus.Worktree == gogit.UpdatedButUnmerged {
			return branch, StatusConflicts, nil
		}
		if fileStatus.Staging != gogit.Unmodified || fileStatus.Worktree != gogit.Unmodified {
			status = StatusDirty
		}
	}

	return branch, status, nil
}
