// Command crabigator wraps an interactive Claude Code or Codex CLI session
// in a PTY, overlaying a live status band below the child's output and
// mirroring session state for other tools to inspect.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/crabigator/crabigator/internal/cloud"
	"github.com/crabigator/crabigator/internal/config"
	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/hooks"
	"github.com/crabigator/crabigator/internal/ideurl"
	"github.com/crabigator/crabigator/internal/input"
	"github.com/crabigator/crabigator/internal/logging"
	"github.com/crabigator/crabigator/internal/mirror"
	"github.com/crabigator/crabigator/internal/ptyhost"
	"github.com/crabigator/crabigator/internal/scrollback"
	"github.com/crabigator/crabigator/internal/session"
	"github.com/crabigator/crabigator/internal/statsreader"
	"github.com/crabigator/crabigator/internal/statusband"
	"github.com/crabigator/crabigator/internal/supervisor"
	"github.com/crabigator/crabigator/internal/termscan"
	"github.com/crabigator/crabigator/internal/vscreen"
	"github.com/crabigator/crabigator/utils"
)

type rootOptions struct {
	Platform     string `short:"p" long:"platform" description:"assistant platform to wrap (claude|codex)"`
	Resume       bool   `short:"r" long:"resume" description:"resume the assistant's most recent session"`
	Continue     bool   `short:"c" long:"continue" description:"continue the assistant's previous session"`
	NoCapture    bool   `long:"no-capture" description:"disable scrollback/screen capture to disk"`
	Profile      bool   `long:"profile" description:"trace startup phase timings"`
	DebugStartup bool   `long:"debug-startup" description:"alias for --profile"`
}

func main() {
	var opts rootOptions
	parser := flags.NewParser(&opts, flags.Default)

	inspectCmd := &inspectCommand{}
	if _, err := parser.AddCommand("inspect", "inspect a running session", "Print a running session's status-band snapshot from its mirror file.", inspectCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	passthrough, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, "crabigator:", err)
		os.Exit(1)
	}

	if parser.Active != nil {
		return
	}

	if err := run(opts, passthrough); err != nil {
		fmt.Fprintln(os.Stderr, "crabigator:", err)
		os.Exit(1)
	}
}

func run(opts rootOptions, extraArgs []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggingCleanup, err := logging.Init(cfg.LogLevelValue(), cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer loggingCleanup()

	timer := newDebugTimer(cfg.Debug)
	timer.mark("logging initialized")

	if opts.Platform != "" {
		if err := config.PersistPlatform(cfg.Platform); err != nil {
			logger.Warn("failed to persist platform choice", zap.Error(err))
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	cols, rows, err := input.GetSize(os.Stdout)
	if err != nil {
		cols, rows = 80, 24
	}

	sess := session.New(cfg.Platform, cwd, cols, rows)
	timer.mark("session created")

	installHooksAsync(cfg.Platform)

	argv, err := utils.ResolveAssistantCommand(cfg.Platform, "", buildPassthroughArgs(opts, extraArgs))
	if err != nil {
		return fmt.Errorf("resolve assistant command: %w", err)
	}
	timer.mark("assistant command resolved")

	rawState, err := setupTerminal(sess.Layout.Rows)
	if err != nil {
		return fmt.Errorf("setup terminal: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			restoreTerminal(rawState, sess.Layout.Rows)
			panic(r)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
	}()

	host, err := ptyhost.Start(ctx, ptyhost.Params{
		Command: argv,
		Dir:     cwd,
		Cols:    sess.Layout.Cols,
		Rows:    sess.Layout.PtyRows,
		Logger:  logger,
	})
	if err != nil {
		restoreTerminal(rawState, sess.Layout.Rows)
		return fmt.Errorf("start assistant: %w", err)
	}
	timer.mark("assistant started")

	publisher := mirror.New(true, sess.ID, cwd, !cfg.NoCapture)

	recorder, err := scrollback.New(publisher.SessionDir(), !cfg.NoCapture)
	if err != nil {
		logger.Warn("scrollback recorder init failed", zap.Error(err))
	}

	var statsReader supervisor.StatsReader
	switch cfg.Platform {
	case config.PlatformClaude:
		statsReader = statsreader.NewClaudeReader(sess.ID)
	case config.PlatformCodex:
		if home, herr := os.UserHomeDir(); herr == nil {
			statsReader = statsreader.NewCodexReader(home, cwd)
		}
	}

	var cloudClient *cloud.Client
	if !cfg.CloudDisabled {
		cloudClient, err = cloud.New(logger)
		if err != nil {
			logger.Warn("cloud client init failed", zap.Error(err))
			cloudClient = nil
		} else {
			if cfg.CloudURL != "" {
				cloudClient = cloudClient.WithAPIURL(cfg.CloudURL)
			}
			go registerCloudSession(ctx, cloudClient, sess, cfg.Platform)
		}
	}

	inputReader := input.NewReader(os.Stdin)
	defer inputReader.Close()

	stats := statsreader.NewSessionStats()

	sup := supervisor.New(supervisor.Params{
		Session:     sess,
		Host:        host,
		Stdout:      os.Stdout,
		Logger:      logger,
		Screen:      vscreen.New(sess.Layout.Cols, sess.Layout.PtyRows, logger),
		Scanner:     termscan.New(),
		StatsReader: statsReader,
		Stats:       stats,
		Publisher:   publisher,
		Recorder:    recorder,
		Cloud:       cloudClient,
		DiffEngine:  diffengine.New(cwd),
		GitDir:      cwd,
		IDEScheme:   ideurl.Detect(),
		Input:       inputReader,
	})

	timer.mark("supervisor starting")
	runErr := sup.Run(ctx)

	restoreTerminal(rawState, sess.Layout.Rows)
	timer.dump(logger)

	surfaceHookStatus()
	printSessionSummary(sess, stats)

	return runErr
}

func loadConfig(opts rootOptions) (*config.AppConfig, error) {
	overrides := config.AppConfig{
		NoCapture: opts.NoCapture,
		Debug:     opts.Profile || opts.DebugStartup,
	}
	if opts.Platform != "" {
		overrides.Platform = config.Platform(opts.Platform)
	}
	return config.Load(overrides)
}

func buildPassthroughArgs(opts rootOptions, extraArgs []string) []string {
	var args []string
	if opts.Resume {
		args = append(args, "--resume")
	}
	if opts.Continue {
		args = append(args, "--continue")
	}
	return append(args, extraArgs...)
}

func registerCloudSession(ctx context.Context, client *cloud.Client, sess *session.Session, platform config.Platform) {
	if err := client.RegisterDevice(ctx); err != nil {
		logging.L().Warn("cloud device registration failed", zap.Error(err))
		return
	}
	if _, err := client.RegisterSession(ctx, sess.ID, sess.Cwd, string(platform)); err != nil {
		logging.L().Warn("cloud session registration failed", zap.Error(err))
		return
	}
	client.TryReconnect()
}

// setupTerminal pushes the terminal's existing content into scrollback,
// enables raw mode, and turns on bracketed paste.
func setupTerminal(rows int) (*term.State, error) {
	fmt.Print(strings.Repeat("\n", rows))

	state, err := input.EnableRaw(os.Stdin)
	if err != nil {
		return nil, err
	}
	fmt.Print("\x1b[?2004h")
	return state, nil
}

// restoreTerminal undoes setupTerminal and the supervisor's alt scroll
// region, in the order that leaves the host shell usable even if called
// from a panic recovery.
func restoreTerminal(state *term.State, totalRows int) {
	fmt.Print("\x1b[?2004l")
	_ = statusband.ExitAltRegion(os.Stdout, totalRows)
	if state != nil {
		_ = input.Restore(os.Stdin, state)
	}
	fmt.Print("\x1b[?25h")
}

func printSessionSummary(sess *session.Session, stats *statsreader.SessionStats) {
	fmt.Printf("\nsession %s (%s) -- %s, %d tool calls\n", sess.ID, sess.Platform, stats.FormatWork(), stats.TotalToolCalls())
}

type hookState int32

const (
	hookPending hookState = iota
	hookOK
	hookFailed
	hookPanicked
)

var (
	hookStatus atomic.Int32
	hookDetail atomic.Value
)

// installHooksAsync installs or refreshes the platform's stats hook in the
// background so a slow or failing install never delays startup; its result
// is only surfaced after the terminal is restored.
func installHooksAsync(platform config.Platform) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				hookStatus.Store(int32(hookPanicked))
				hookDetail.Store(fmt.Sprintf("%v", r))
			}
		}()

		home, err := os.UserHomeDir()
		if err != nil {
			hookStatus.Store(int32(hookFailed))
			hookDetail.Store(err.Error())
			return
		}

		var installErr error
		switch platform {
		case config.PlatformClaude:
			installer := hooks.NewClaudeInstaller(home)
			if !installer.IsCurrent() {
				installErr = installer.Install()
			}
		case config.PlatformCodex:
			installer := hooks.NewCodexInstaller(home)
			if !installer.IsCurrent() {
				installErr = installer.Install()
			}
		}
		if installErr != nil {
			hookStatus.Store(int32(hookFailed))
			hookDetail.Store(installErr.Error())
			return
		}
		hookStatus.Store(int32(hookOK))
	}()
}

func surfaceHookStatus() {
	switch hookState(hookStatus.Load()) {
	case hookFailed:
		detail, _ := hookDetail.Load().(string)
		fmt.Fprintf(os.Stderr, "warning: hook installation failed: %s\n", detail)
	case hookPanicked:
		detail, _ := hookDetail.Load().(string)
		fmt.Fprintf(os.Stderr, "warning: hook installation panicked: %s\n", detail)
	}
}

type debugTimer struct {
	enabled bool
	start   time.Time
	marks   []timerMark
}

type timerMark struct {
	label string
	at    time.Duration
}

func newDebugTimer(enabled bool) *debugTimer {
	return &debugTimer{enabled: enabled, start: time.Now()}
}

func (t *debugTimer) mark(label string) {
	if !t.enabled {
		return
	}
	t.marks = append(t.marks, timerMark{label: label, at: time.Since(t.start)})
}

func (t *debugTimer) dump(logger *zap.Logger) {
	if !t.enabled {
		return
	}
	prev := time.Duration(0)
	for _, m := range t.marks {
		logger.Info("startup phase", zap.String("phase", m.label), zap.Duration("elapsed", m.at), zap.Duration("delta", m.at-prev))
		prev = m.at
	}
}
