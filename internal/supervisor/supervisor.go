// Package supervisor runs the wrapper's main event loop: it drains child
// output through the OSC/DSR scanner into the virtual screen, answers
// cursor-position requests, redraws the status band on a debounce, and
// turns decoded host input into bytes written back to the child.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/crabigator/crabigator/internal/cloud"
	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/ideurl"
	"github.com/crabigator/crabigator/internal/input"
	"github.com/crabigator/crabigator/internal/keys"
	"github.com/crabigator/crabigator/internal/mirror"
	"github.com/crabigator/crabigator/internal/ptyhost"
	"github.com/crabigator/crabigator/internal/scrollback"
	"github.com/crabigator/crabigator/internal/session"
	"github.com/crabigator/crabigator/internal/statsreader"
	"github.com/crabigator/crabigator/internal/statusband"
	"github.com/crabigator/crabigator/internal/termscan"
	"github.com/crabigator/crabigator/internal/vscreen"
)

const (
	refreshInterval    = 3 * time.Second
	livenessInterval   = 200 * time.Millisecond
	inputPollTimeout   = 50 * time.Millisecond
	redrawDebounce     = 100 * time.Millisecond
	ctrlA              = 0x01
)

// PTYHost is the subset of ptyhost.Host the supervisor drives; defined as
// an interface so tests can inject a fake child.
type PTYHost interface {
	Output() <-chan ptyhost.Chunk
	Write(data []byte) error
	Resize(cols, rows int) error
	IsRunning() bool
	Close() error
}

// StatsReader is the subset ClaudeReader and CodexReader share.
type StatsReader interface {
	Poll() (statsreader.Stats, bool)
}

// Params wires every component the supervisor composes. Fields left nil
// disable the corresponding feature (Cloud, Recorder, Publisher).
type Params struct {
	Session     *session.Session
	Host        PTYHost
	Stdout      io.Writer
	Logger      *zap.Logger
	Screen      *vscreen.Screen
	Scanner     *termscan.Scanner
	StatsReader StatsReader
	Stats       *statsreader.SessionStats
	Publisher   *mirror.Publisher
	Recorder    *scrollback.Recorder
	Cloud       *cloud.Client
	DiffEngine  *diffengine.Engine
	GitDir      string
	IDEScheme   ideurl.Scheme
	Input       *input.Reader
}

// Supervisor owns the running session's event loop.
type Supervisor struct {
	session     *session.Session
	host        PTYHost
	stdout      io.Writer
	logger      *zap.Logger
	screen      *vscreen.Screen
	scanner     *termscan.Scanner
	statsReader StatsReader
	stats       *statsreader.SessionStats
	publisher   *mirror.Publisher
	recorder    *scrollback.Recorder
	cloud       *cloud.Client
	diffEngine  *diffengine.Engine
	gitDir      string
	ideScheme   ideurl.Scheme
	input       *input.Reader

	mu            sync.Mutex
	git           *gitstate.State
	diff          diffengine.Summary
	gitTimeMs     *int64
	diffTimeMs    *int64
	terminalTitle string

	gitInFlight  atomic.Bool
	diffInFlight atomic.Bool

	redrawRequested chan struct{}
	stopCh          chan struct{}
	prefixArmed     bool
}

// New builds a Supervisor from its wired components.
func New(p Params) *Supervisor {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		session:         p.Session,
		host:            p.Host,
		stdout:          p.Stdout,
		logger:          logger,
		screen:          p.Screen,
		scanner:         p.Scanner,
		statsReader:     p.StatsReader,
		stats:           p.Stats,
		publisher:       p.Publisher,
		recorder:        p.Recorder,
		cloud:           p.Cloud,
		diffEngine:      p.DiffEngine,
		gitDir:          p.GitDir,
		ideScheme:       p.IDEScheme,
		input:           p.Input,
		redrawRequested: make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
	}
}

// Run drives the event loop until the child exits, the context is
// cancelled, or a quit key is handled.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.cleanup()

	if err := statusband.EnterAltRegion(s.stdout, s.session.Layout.PtyRows); err != nil {
		s.logger.Warn("enter alt region failed", zap.Error(err))
	}

	inputEvents := make(chan input.Event, 16)
	go s.pumpInput(ctx, inputEvents)

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	liveness := time.NewTicker(livenessInterval)
	defer liveness.Stop()

	var redrawTimer *time.Timer
	var redrawC <-chan time.Time
	armRedraw := func() {
		if redrawTimer != nil {
			redrawTimer.Stop()
		}
		redrawTimer = time.NewTimer(redrawDebounce)
		redrawC = redrawTimer.C
	}

	s.refreshState(ctx)

	for {
		select {
		case chunk, ok := <-s.host.Output():
			if !ok {
				return nil
			}
			if chunk.Err != nil {
				return nil
			}
			s.handleChildOutput(chunk.Data)
			armRedraw()

		case ev := <-inputEvents:
			if s.handleInputEvent(ev) {
				return nil
			}

		case <-refreshTicker.C:
			s.refreshState(ctx)

		case <-s.redrawRequested:
			armRedraw()

		case <-redrawC:
			redrawC = nil
			s.redrawAndPublish()

		case <-liveness.C:
			if !s.host.IsRunning() {
				return nil
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Supervisor) cleanup() {
	close(s.stopCh)
	if err := statusband.ExitAltRegion(s.stdout, s.session.Layout.Rows); err != nil {
		s.logger.Warn("exit alt region failed", zap.Error(err))
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.logger.Warn("scrollback recorder close failed", zap.Error(err))
		}
	}
	if s.publisher != nil {
		s.publisher.Cleanup()
	}
	if s.cloud != nil {
		s.cloud.Close()
	}
	_ = s.host.Close()
}

func (s *Supervisor) pumpInput(ctx context.Context, out chan<- input.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		ev, ok := s.input.Poll(inputPollTimeout)
		if !ok {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Supervisor) handleChildOutput(data []byte) {
	passthrough, titles, dsrRequests := s.scanner.Scan(data)

	s.screen.Write(passthrough)
	if len(passthrough) > 0 {
		if _, err := s.stdout.Write(passthrough); err != nil {
			s.logger.Warn("stdout write failed", zap.Error(err))
		}
	}

	if len(titles) > 0 {
		s.terminalTitle = titles[len(titles)-1]
	}

	for i := 0; i < dsrRequests; i++ {
		row, col := s.screen.Cursor()
		reply := fmt.Sprintf("\x1b[%d;%dR", row, col)
		if err := s.host.Write([]byte(reply)); err != nil {
			s.logger.Warn("cursor position reply failed", zap.Error(err))
		}
	}

	if s.recorder != nil {
		if err := s.recorder.Observe(s.screen.Snapshot()); err != nil {
			s.logger.Warn("scrollback observe failed", zap.Error(err))
		}
	}
}

func (s *Supervisor) scheduleRedraw() {
	select {
	case s.redrawRequested <- struct{}{}:
	default:
	}
}

func (s *Supervisor) refreshState(ctx context.Context) {
	s.stats.Tick()
	if s.statsReader != nil {
		stats, changed := s.statsReader.Poll()
		s.stats.Apply(stats, changed)
		if changed {
			s.scheduleRedraw()
		}
	}

	if s.gitInFlight.CompareAndSwap(false, true) {
		go func() {
			defer s.gitInFlight.Store(false)
			start := time.Now()
			state, err := gitstate.Read(s.gitDir)
			if err != nil {
				s.logger.Warn("git state refresh failed", zap.Error(err))
				return
			}
			elapsed := time.Since(start).Milliseconds()
			s.mu.Lock()
			s.git = state
			s.gitTimeMs = &elapsed
			s.mu.Unlock()
			s.scheduleRedraw()
		}()
	}

	if s.diffEngine != nil && s.diffInFlight.CompareAndSwap(false, true) {
		go func() {
			defer s.diffInFlight.Store(false)
			start := time.Now()
			summary, err := s.diffEngine.Refresh(ctx)
			if err != nil {
				s.logger.Warn("diff refresh failed", zap.Error(err))
				return
			}
			elapsed := time.Since(start).Milliseconds()
			s.mu.Lock()
			s.diff = summary
			s.diffTimeMs = &elapsed
			s.mu.Unlock()
			s.scheduleRedraw()
		}()
	}
}

func (s *Supervisor) redrawAndPublish() {
	s.mu.Lock()
	git, diff, gitTimeMs, diffTimeMs := s.git, s.diff, s.gitTimeMs, s.diffTimeMs
	s.mu.Unlock()

	model := statusband.Model{
		Stats: s.stats,
		Git:   git,
		Diff:  diff,
		IDE:   s.ideScheme,
		Cwd:   s.session.Cwd,
	}
	layout := statusband.Layout{
		PtyRows:    s.session.Layout.PtyRows,
		TotalCols:  s.session.Layout.Cols,
		StatusRows: s.session.Layout.StatusRows,
	}
	if err := statusband.Render(s.stdout, layout, model); err != nil {
		s.logger.Warn("status band render failed", zap.Error(err))
	}

	if s.publisher != nil {
		if _, err := s.publisher.MaybePublish(s.stats, git, diff, s.terminalTitle, gitTimeMs, diffTimeMs); err != nil {
			s.logger.Warn("mirror publish failed", zap.Error(err))
		}
	}

	if s.cloud != nil {
		kind, payload := cloud.NewStatsEvent(s.stats)
		s.cloud.SendEvent(kind, payload)

		if git != nil {
			kind, payload = cloud.NewGitEvent(git)
			s.cloud.SendEvent(kind, payload)
		}

		kind, payload = cloud.NewChangesEvent(diff)
		s.cloud.SendEvent(kind, payload)

		if s.terminalTitle != "" {
			kind, payload = cloud.NewTitleEvent(s.terminalTitle)
			s.cloud.SendEvent(kind, payload)
		}
	}
}

func (s *Supervisor) handleInputEvent(ev input.Event) bool {
	switch ev.Kind {
	case input.EventResize:
		s.session.Resize(ev.Cols, ev.Rows)
		if err := s.host.Resize(s.session.Layout.Cols, s.session.Layout.PtyRows); err != nil {
			s.logger.Warn("pty resize failed", zap.Error(err))
		}
		s.screen.Resize(s.session.Layout.Cols, s.session.Layout.PtyRows)
		if err := statusband.EnterAltRegion(s.stdout, s.session.Layout.PtyRows); err != nil {
			s.logger.Warn("enter alt region failed", zap.Error(err))
		}
		s.scheduleRedraw()
		return false

	case input.EventPaste:
		s.prefixArmed = false
		framed := append([]byte("\x1b[200~"), keys.EncodePaste(ev.Paste)...)
		framed = append(framed, "\x1b[201~"...)
		if err := s.host.Write(framed); err != nil {
			s.logger.Warn("paste forward failed", zap.Error(err))
		}
		return false

	case input.EventMouseScroll:
		// The wrapper has no scrollback viewport of its own; wheel events
		// are swallowed rather than forwarded, since the child never asked
		// for mouse reporting here.
		return false

	case input.EventKey:
		return s.handleKeyEvent(ev.Key)

	default:
		return false
	}
}

// handleKeyEvent implements the Ctrl+A one-shot prefix: q quits, a forwards
// a literal Ctrl+A, arrow/page keys are absorbed (the virtual screen keeps
// no scrollback history beyond the live grid), anything else forwards
// verbatim. Outside the prefix, Ctrl+A arms it instead of forwarding.
func (s *Supervisor) handleKeyEvent(k keys.Event) bool {
	if s.prefixArmed {
		s.prefixArmed = false
		switch {
		case k.Code == keys.Char && k.Char == 'q':
			return true
		case k.Code == keys.Char && k.Char == 'a':
			if err := s.host.Write([]byte{ctrlA}); err != nil {
				s.logger.Warn("ctrl+a forward failed", zap.Error(err))
			}
		case k.Code == keys.Up || k.Code == keys.Down || k.Code == keys.Left || k.Code == keys.Right ||
			k.Code == keys.PageUp || k.Code == keys.PageDown:
			// absorbed
		default:
			if err := s.host.Write(keys.Encode(k)); err != nil {
				s.logger.Warn("key forward failed", zap.Error(err))
			}
		}
		return false
	}

	if k.Code == keys.Char && k.Char == 'a' && k.Ctrl {
		s.prefixArmed = true
		return false
	}

	if err := s.host.Write(keys.Encode(k)); err != nil {
		s.logger.Warn("key forward failed", zap.Error(err))
	}
	return false
}
