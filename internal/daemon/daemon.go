// BYZRA ⸻ internal/daemon/daemon.go
// watch mode: fix media files as they land in watched directories

package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photofix/internal/config"
	"photofix/internal/fix"
	"photofix/internal/util"
)

// background service that monitors files
type Daemon struct {
	config   *config.Config
	logger   *util.Logger
	executor util.Executor
	watcher  *Watcher
	running  bool

	mu        sync.Mutex
	pending   map[string]struct{} // media still waiting for a sidecar
	processed int
	errors    int
	started   time.Time

	// serializes exiftool runs
	runLock sync.Mutex
}

// current state of the daemon
type DaemonStatus struct {
	Running        bool
	WatchedDirs    []string
	Pending        int
	ProcessedFiles int
	ErrorCount     int
	StartTime      time.Time
}

// new daemon instance; per-file runs share cfg but never dump associations
func NewDaemon(cfg *config.Config, logger *util.Logger, executor util.Executor) (*Daemon, error) {
	if len(cfg.Watch.Paths) == 0 {
		return nil, fmt.Errorf("no watch paths configured")
	}

	runCfg := *cfg
	runCfg.Paths.Associations = ""
	if runCfg.Paths.Input == "" {
		runCfg.Paths.Input = cfg.Watch.Paths[0]
	}

	return &Daemon{
		config:   &runCfg,
		logger:   logger,
		executor: executor,
		pending:  make(map[string]struct{}),
	}, nil
}

func (d *Daemon) Start(ctx context.Context) error {
	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.logger.Info("Starting daemon")

	minAge, err := time.ParseDuration(d.config.Watch.MinFileAge)
	if err != nil {
		return fmt.Errorf("invalid min_file_age %q: %w", d.config.Watch.MinFileAge, err)
	}
	table, err := d.config.Table()
	if err != nil {
		return err
	}

	options := WatchOptions{
		Accept: func(path string) bool {
			return isSidecar(path) || table.IsSupported(path)
		},
		ExcludeDirs: []string{".git", filepath.Clean(d.config.Paths.Output)},
		MinFileAge:  minAge,
		Recursive:   true,
	}

	watcher, err := NewWatcher(d.config.Watch.Paths, options, func(path string) error {
		return d.handle(ctx, path)
	}, d.logger)
	if err != nil {
		d.logger.Error(fmt.Sprintf("[X] Failed to create watcher: %v", err))
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Start(); err != nil {
		d.logger.Error(fmt.Sprintf("[X] Failed to start watcher: %v", err))
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	d.watcher = watcher
	d.running = true
	d.started = time.Now()
	d.logger.Info("Daemon started successfully")

	return nil
}

// a media file is fixed right away; a sidecar retries the media in its
// directory that were still waiting for one
func (d *Daemon) handle(ctx context.Context, path string) error {
	if !isSidecar(path) {
		return d.fixFiles(ctx, []string{path})
	}

	dir := filepath.Dir(path)
	var retry []string
	d.mu.Lock()
	for p := range d.pending {
		if filepath.Dir(p) == dir {
			retry = append(retry, p)
		}
	}
	d.mu.Unlock()

	if len(retry) == 0 {
		return nil
	}
	return d.fixFiles(ctx, retry)
}

func (d *Daemon) fixFiles(ctx context.Context, paths []string) error {
	d.runLock.Lock()
	defer d.runLock.Unlock()

	result, err := fix.Run(ctx, d.config, d.logger, d.executor, &fix.Options{Paths: paths})

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.errors++
		return err
	}

	for _, p := range paths {
		delete(d.pending, p)
	}
	for _, p := range result.Unresolved {
		d.pending[p] = struct{}{}
	}
	d.processed += result.Blocks
	if n := len(result.ParseFailures); n > 0 {
		d.errors += n
	}
	if result.Batch != nil && result.Batch.ExitCode != 0 {
		d.errors++
	}
	return nil
}

func isSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// halts the daemon
func (d *Daemon) Stop() error {
	if !d.running {
		return nil
	}

	d.logger.Info("Stopping daemon")

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warning(fmt.Sprintf("[!] Error stopping watcher: %v", err))
		}
	}

	d.running = false
	return nil
}

// current daemon status
func (d *Daemon) Status() *DaemonStatus {
	if !d.running {
		return &DaemonStatus{
			Running: false,
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return &DaemonStatus{
		Running:        true,
		WatchedDirs:    d.config.Watch.Paths,
		Pending:        len(d.pending),
		ProcessedFiles: d.processed,
		ErrorCount:     d.errors,
		StartTime:      d.started,
	}
}

// is daemon currently running?
func (d *Daemon) IsRunning() bool {
	return d.running
}
