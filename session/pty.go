package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"blockterm/log"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

const (
	defaultRows = 24
	defaultCols = 80

	// readChunkSize is the pump's per-read budget.
	readChunkSize = 4096
	// readBackoff is how long the pump sleeps when the master fd has no
	// bytes ready.
	readBackoff = 10 * time.Millisecond
)

// PtySession owns a pseudo-terminal pair and the child shell process.
// Reads happen on one dedicated background goroutine (SpawnReader); writes
// come from the control loop through TryWrite under a try-lock so a slow
// write can never stall a tick.
type PtySession struct {
	cmd  *exec.Cmd
	ptmx *os.File

	rows, cols uint16

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionWithCwd opens a pty at the default geometry and spawns the
// shell with the given working directory. A pty allocation or exec failure
// surfaces as an error and no session exists.
func NewSessionWithCwd(shell, cwd string) (*PtySession, error) {
	cmd := exec.Command(shell)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: defaultRows, Cols: defaultCols})
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %s in pty: %w", shell, err)
	}

	return &PtySession{
		cmd:  cmd,
		ptmx: ptmx,
		rows: defaultRows,
		cols: defaultCols,
		done: make(chan struct{}),
	}, nil
}

// SpawnReader starts the background read pump. The master fd is switched to
// non-blocking mode; the pump sleeps briefly when no bytes are ready, exits
// on EOF or any other read error, and forwards raw chunks unframed on ch.
// A full channel blocks the pump, which in turn backpressures the child
// through the kernel's pty buffer.
func (s *PtySession) SpawnReader(ch chan<- []byte) {
	go func() {
		if err := unix.SetNonblock(int(s.ptmx.Fd()), true); err != nil {
			log.ErrorLog.Printf("failed to set pty non-blocking: %v", err)
			return
		}

		buf := make([]byte, readChunkSize)
		for {
			select {
			case <-s.done:
				return
			default:
			}

			n, err := s.ptmx.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case ch <- chunk:
				case <-s.done:
					return
				}
			}
			if err != nil {
				if errors.Is(err, unix.EAGAIN) {
					time.Sleep(readBackoff)
					continue
				}
				// EOF means the shell exited; anything else is
				// equivalent for our purposes.
				if !errors.Is(err, io.EOF) {
					log.PtyTrace("read pump exiting: %v", err)
				}
				return
			}
			if n == 0 {
				// Zero bytes with no error: session ended.
				return
			}
		}
	}()
}

// Writer returns the blocking write handle. Callers supply fully framed
// bytes (raw key codes, bracketed-paste wrapped text, or \r-terminated
// commands).
func (s *PtySession) Writer() io.Writer {
	return s.ptmx
}

// TryWrite writes data to the child under a non-blocking lock. On
// contention the write is dropped for this tick; the caller retries on a
// later tick if it still matters. Write errors are logged, not surfaced:
// the session carries on.
func (s *PtySession) TryWrite(data []byte) {
	if len(data) == 0 {
		return
	}
	if !s.writeMu.TryLock() {
		log.PtyTrace("write dropped: lock contended")
		return
	}
	defer s.writeMu.Unlock()

	if _, err := s.ptmx.Write(data); err != nil {
		log.ErrorLog.Printf("failed to write to pty: %v", err)
	}
}

// Resize propagates new geometry to the OS pty. Failures are logged, not
// fatal.
func (s *PtySession) Resize(rows, cols, pixelW, pixelH uint16) {
	if rows == 0 || cols == 0 {
		return
	}
	s.rows, s.cols = rows, cols
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols, X: pixelW, Y: pixelH}); err != nil {
		log.ErrorLog.Printf("failed to resize pty: %v", err)
	}
}

// Size returns the last geometry pushed to the pty.
func (s *PtySession) Size() (rows, cols uint16) {
	return s.rows, s.cols
}

// Close kills the child and releases the pty. Callers are responsible for
// the running-command close refusal (Pane.CanClose).
func (s *PtySession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if s.ptmx != nil {
			_ = s.ptmx.Close()
		}
	})
}
