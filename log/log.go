// Package log provides file-backed loggers plus debug mode with render profiling.
// Enable debug mode by setting BT_DEBUG=1 environment variable.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

var (
	InfoLog    *log.Logger
	WarningLog *log.Logger
	ErrorLog   *log.Logger

	logFile     *os.File
	logFileName = filepath.Join(os.TempDir(), "blockterm.log")
)

func init() {
	// Discard until Initialize runs so library consumers and tests never
	// hit a nil logger.
	InfoLog = log.New(io.Discard, "", 0)
	WarningLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)
	DebugLog = log.New(io.Discard, "", 0)
}

// Initialize sets up the loggers. Logs go to a file in the temp dir so they
// never bleed escape sequences into the terminal the app is drawing on.
func Initialize() {
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fall back to discarding; the app must keep working without logs.
		fmt.Fprintf(os.Stderr, "could not open log file: %s\n", err)
		f = nil
	}

	var w io.Writer = io.Discard
	if f != nil {
		w = f
		logFile = f
	}

	flags := log.Ldate | log.Ltime | log.Lshortfile
	InfoLog = log.New(w, "INFO: ", flags)
	WarningLog = log.New(w, "WARNING: ", flags)
	ErrorLog = log.New(w, "ERROR: ", flags)

	InitDebug()
}

// Close flushes and closes the log file.
func Close() {
	CloseDebug()
	if logFile != nil {
		_ = logFile.Close()
	}
}
