package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHostInfoLocal(t *testing.T) {
	t.Setenv("SSH_CONNECTION", "")
	t.Setenv("SSH_CLIENT", "")
	t.Setenv("SSH_TTY", "")

	info := ResolveHostInfo()
	assert.NotEmpty(t, info.Display)
	assert.False(t, info.IsRemote)
}

func TestResolveHostInfoRemote(t *testing.T) {
	t.Setenv("SSH_CLIENT", "")
	t.Setenv("SSH_TTY", "")
	t.Setenv("SSH_CONNECTION", "10.0.0.1 50000 10.0.0.2 22")

	info := ResolveHostInfo()
	assert.True(t, info.IsRemote)
}
