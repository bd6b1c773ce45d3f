package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetShell(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/fish")
	assert.Equal(t, "/usr/bin/fish", GetShell())

	t.Setenv("SHELL", "")
	assert.Equal(t, "/bin/bash", GetShell())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.TickIntervalMs)
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval())
	assert.True(t, cfg.PersistHistory)
	assert.NotEmpty(t, cfg.ExportDir)
	assert.NotEmpty(t, cfg.ThemeBackground)
	assert.NotEmpty(t, cfg.ThemeForeground)
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 10, cfg.TickIntervalMs)

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(configDir, ConfigFileName))
}

func TestConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.DefaultShell = "/bin/zsh"
	cfg.TickIntervalMs = 25
	require.NoError(t, SaveConfig(cfg))

	loaded := LoadConfig()
	assert.Equal(t, "/bin/zsh", loaded.DefaultShell)
	assert.Equal(t, 25, loaded.TickIntervalMs)
}

func TestLoadConfigCorruptFallsBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, ConfigFileName), []byte("{broken"), 0644))

	cfg := LoadConfig()
	assert.Equal(t, 10, cfg.TickIntervalMs)

	// The corrupted file is kept as a backup for inspection.
	entries, err := os.ReadDir(configDir)
	require.NoError(t, err)
	backup := false
	for _, e := range entries {
		if len(e.Name()) > len(ConfigFileName) && e.Name()[:len(ConfigFileName)] == ConfigFileName {
			backup = true
		}
	}
	assert.True(t, backup, "expected a .corrupt backup next to the config")
}

func TestLoadConfigClampsTickInterval(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	data, err := json.Marshal(&Config{TickIntervalMs: -5})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, ConfigFileName), data, 0644))

	cfg := LoadConfig()
	assert.Equal(t, 10, cfg.TickIntervalMs)
}

func TestStateHistoryRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	state := LoadState()
	require.NoError(t, state.SaveHistory(json.RawMessage(`[{"command":"ls"}]`)))

	reloaded := LoadState()
	assert.JSONEq(t, `[{"command":"ls"}]`, string(reloaded.GetHistory()))

	require.NoError(t, reloaded.DeleteAllHistory())
	reloaded = LoadState()
	assert.JSONEq(t, `[]`, string(reloaded.GetHistory()))
}

func TestStateConcurrentSaveHistory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Debounced saves run on their own goroutines while the quit path
	// saves from the update loop; overlapping writers must not race on
	// the state struct.
	state := LoadState()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := fmt.Sprintf(`[{"command":"run %d"}]`, n)
			assert.NoError(t, state.SaveHistory(json.RawMessage(payload)))
		}(i)
	}
	wg.Wait()

	var blocks []map[string]any
	require.NoError(t, json.Unmarshal(state.GetHistory(), &blocks))
	require.Len(t, blocks, 1)

	reloaded := LoadState()
	require.NoError(t, json.Unmarshal(reloaded.GetHistory(), &blocks))
	require.Len(t, blocks, 1)
}
