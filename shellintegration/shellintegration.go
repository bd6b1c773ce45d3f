// Package shellintegration ships the scripts that make the shell emit the
// OSC 133 markers the block engine reconstructs command boundaries from.
package shellintegration

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed scripts/integration.bash scripts/integration.zsh
var scripts embed.FS

// Script returns the integration script for the given shell. The shell may
// be a bare name ("zsh") or a full path ("/usr/bin/zsh").
func Script(shell string) (string, error) {
	name := filepath.Base(shell)
	switch {
	case strings.Contains(name, "zsh"):
		return read("scripts/integration.zsh")
	case strings.Contains(name, "bash"), name == "sh":
		return read("scripts/integration.bash")
	}
	return "", fmt.Errorf("no integration script for shell %q", shell)
}

func read(path string) (string, error) {
	data, err := scripts.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded script: %w", err)
	}
	return string(data), nil
}

// Install writes the script for shell into dir and appends a source line to
// the shell's rc file if it is not already present. Returns the rc file
// that was touched.
func Install(shell, dir string) (string, error) {
	script, err := Script(shell)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	name := filepath.Base(shell)
	ext := "bash"
	rcName := ".bashrc"
	if strings.Contains(name, "zsh") {
		ext = "zsh"
		rcName = ".zshrc"
	}

	scriptPath := filepath.Join(dir, "integration."+ext)
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", scriptPath, err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	rcPath := filepath.Join(home, rcName)

	sourceLine := fmt.Sprintf("source %s # blockterm shell integration", scriptPath)
	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", rcPath, err)
	}
	if strings.Contains(string(existing), scriptPath) {
		return rcPath, nil
	}

	f, err := os.OpenFile(rcPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", rcPath, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s\n", sourceLine); err != nil {
		return "", fmt.Errorf("failed to append to %s: %w", rcPath, err)
	}
	return rcPath, nil
}
