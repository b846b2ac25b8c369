// BYZRA ⸻ internal/daemon/watcher.go
// file system monitoring for the daemon

package daemon

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"photofix/internal/util"
)

// processes a detected file
type FileHandler func(path string) error

// configures the watcher behavior
type WatchOptions struct {
	// files to hand to the handler; all files when nil
	Accept func(path string) bool

	// directories to exclude
	ExcludeDirs []string

	// min file age before processing (avoid processing incomplete files)
	MinFileAge time.Duration

	// process files recursively in subdirectories?
	Recursive bool
}

// monitors directories for file changes
type Watcher struct {
	watcher     *fsnotify.Watcher
	dirs        []string
	options     WatchOptions
	handler     FileHandler
	logger      *util.Logger
	processed   map[string]time.Time
	processLock sync.Mutex
	running     bool
	done        chan struct{}
	wg          sync.WaitGroup
}

// new file system watcher
func NewWatcher(dirs []string, options WatchOptions, handler FileHandler, logger *util.Logger) (*Watcher, error) {
	var validDirs []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			logger.Warning(fmt.Sprintf("Skipping invalid directory %s: %v", dir, err))
			continue
		}

		if !info.IsDir() {
			logger.Warning(fmt.Sprintf("Skipping non-directory path %s", dir))
			continue
		}

		validDirs = append(validDirs, dir)
	}

	if len(validDirs) == 0 {
		return nil, fmt.Errorf("no valid directories to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:   fsWatcher,
		dirs:      validDirs,
		options:   options,
		handler:   handler,
		logger:    logger,
		processed: make(map[string]time.Time),
		done:      make(chan struct{}),
	}, nil
}

// begins watching the configured directories
func (w *Watcher) Start() error {
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	for _, dir := range w.dirs {
		if !w.options.Recursive {
			w.addDir(dir)
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				w.logger.Warning(fmt.Sprintf("Error accessing path %s: %v", path, err))
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if w.excluded(path) {
				return filepath.SkipDir
			}
			w.addDir(path)
			return nil
		})
		if err != nil {
			w.logger.Error(fmt.Sprintf("Error walking directory %s: %v", dir, err))
		}
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.periodicCleanup()

	w.running = true
	w.logger.Info("File watcher started")

	return nil
}

func (w *Watcher) addDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warning(fmt.Sprintf("Failed to watch directory %s: %v", dir, err))
		return
	}
	w.logger.Debug(fmt.Sprintf("Watching directory: %s", dir))
}

func (w *Watcher) excluded(path string) bool {
	for _, exclude := range w.options.ExcludeDirs {
		if exclude == "" {
			continue
		}
		if filepath.Base(path) == exclude || path == exclude || strings.HasPrefix(path, exclude+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// terminates the watcher and waits for in-flight handlers
func (w *Watcher) Stop() error {
	if !w.running {
		return nil
	}

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.running = false
	w.logger.Info("File watcher stopped")

	return err
}

// checks if a file should be processed based on options; claims it when so
func (w *Watcher) shouldProcessFile(path string) bool {
	if w.options.Accept != nil && !w.options.Accept(path) {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	w.processLock.Lock()
	defer w.processLock.Unlock()

	if lastProcessed, exists := w.processed[path]; exists {
		if time.Since(lastProcessed) < time.Minute {
			return false
		}
	}

	w.processed[path] = time.Now()
	return true
}

// waits until path has not been modified for MinFileAge; false on shutdown
// or when the file disappears
func (w *Watcher) settle(path string) bool {
	for {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		wait := w.options.MinFileAge - time.Since(info.ModTime())
		if wait <= 0 {
			return true
		}
		select {
		case <-time.After(wait):
		case <-w.done:
			return false
		}
	}
}

// file system events
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return // watcher was closed
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := event.Name

			// if a new directory was created and we're in recursive mode, watch it
			if w.options.Recursive {
				info, err := os.Stat(path)
				if err == nil && info.IsDir() {
					if !w.excluded(path) {
						w.addDir(path)
					}
					continue
				}
			}

			if w.shouldProcessFile(path) {
				w.wg.Add(1)
				go func(filePath string) {
					defer w.wg.Done()
					if !w.settle(filePath) {
						return
					}

					w.logger.Debug(fmt.Sprintf("Processing file: %s", filePath))

					if err := w.handler(filePath); err != nil {
						w.logger.Error(fmt.Sprintf("[X] Failed to process file %s: %v", filePath, err))
					} else {
						w.logger.Info(fmt.Sprintf("Successfully processed file: %s", filePath))
					}
				}(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return // watcher closed
			}
			w.logger.Error(fmt.Sprintf("[X] Watcher error: %v", err))

		case <-w.done:
			return
		}
	}
}

// periodically cleans the processed files map
func (w *Watcher) periodicCleanup() {
	defer w.wg.Done()

	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.processLock.Lock()

			// clean entries older than 1 hour
			cutoff := time.Now().Add(-1 * time.Hour)
			for path, processed := range w.processed {
				if processed.Before(cutoff) {
					delete(w.processed, path)
				}
			}

			w.processLock.Unlock()

			w.logger.Debug("Cleaned processed files cache")

		case <-w.done:
			return
		}
	}
}
