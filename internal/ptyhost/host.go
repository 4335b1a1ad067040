// Package ptyhost owns the pseudo-terminal pair and the assistant child
// process. What it reads from the child is forwarded unmodified; it performs
// no encoding normalization or output inspection of its own. When the
// bounded output channel is full, the oldest queued chunk is dropped.
package ptyhost

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/x/xpty"
	"go.uber.org/zap"

	"github.com/crabigator/crabigator/utils/process"
)

const (
	chanCapacity = 256
	readChunk    = 4096
)

// Chunk is one read from the child's PTY master side.
type Chunk struct {
	Data []byte
	Err  error
}

// Host manages the PTY pair and the child process lifecycle.
type Host struct {
	pty    xpty.Pty
	cmd    *exec.Cmd
	cancel context.CancelFunc
	logger *zap.Logger

	mu      sync.Mutex
	running bool

	out chan Chunk
}

// Params describes how to start the assistant child.
type Params struct {
	Command []string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
	Logger  *zap.Logger
}

// Start opens a PTY of the requested size and spawns the command on it.
func Start(ctx context.Context, p Params) (*Host, error) {
	cols, rows := p.Cols, p.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	ptyDevice, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, err
	}

	childCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(childCtx, p.Command[0], p.Command[1:]...)
	cmd.Dir = p.Dir
	cmd.Env = append(append([]string{}, os.Environ()...), append(p.Env, "TERM=xterm-256color")...)

	if err := ptyDevice.Start(cmd); err != nil {
		cancel()
		_ = ptyDevice.Close()
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Host{
		pty:     ptyDevice,
		cmd:     cmd,
		cancel:  cancel,
		logger:  logger,
		running: true,
		out:     make(chan Chunk, chanCapacity),
	}

	go h.readLoop()

	return h, nil
}

func (h *Host) readLoop() {
	reader := h.pty.Reader()
	buf := make([]byte, readChunk)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.send(Chunk{Data: chunk})
		}
		if err != nil {
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			h.send(Chunk{Err: err})
			close(h.out)
			return
		}
	}
}

// send drops the oldest queued chunk when the channel is full so a slow
// consumer never blocks the PTY reader.
func (h *Host) send(c Chunk) {
	select {
	case h.out <- c:
	default:
		select {
		case <-h.out:
		default:
		}
		select {
		case h.out <- c:
		default:
		}
	}
}

// Output returns the channel of chunks read from the child.
func (h *Host) Output() <-chan Chunk {
	return h.out
}

// Write sends bytes to the child's PTY input side.
func (h *Host) Write(data []byte) error {
	_, err := h.pty.Writer().Write(data)
	return err
}

// Resize adjusts the PTY window size.
func (h *Host) Resize(cols, rows int) error {
	return h.pty.Resize(cols, rows)
}

// IsRunning reports whether the child process is still alive, checking via a
// non-blocking process lookup rather than blocking on cmd.Wait.
func (h *Host) IsRunning() bool {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		return false
	}
	if h.cmd.Process == nil {
		return false
	}
	return process.IsAlive(int32(h.cmd.Process.Pid))
}

// Wait blocks until the child process exits and returns its error, if any.
func (h *Host) Wait() error {
	return h.cmd.Wait()
}

// Close terminates the child and releases the PTY.
func (h *Host) Close() error {
	h.cancel()
	err := h.pty.Close()
	return err
}

// WaitForExit polls IsRunning at the given interval until the child exits or
// ctx is cancelled.
func (h *Host) WaitForExit(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.IsRunning() {
				return
			}
		}
	}
}
