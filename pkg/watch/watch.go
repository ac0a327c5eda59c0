// Package watch reports changes to the catalog file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/marquee/pkg/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Config holds configuration for a catalog watcher.
type Config struct {
	// Path is the file to watch. Its directory must exist; the file need not.
	Path string

	Debounce time.Duration

	// OnChange runs on the watcher goroutine once events settle.
	OnChange func()

	Logger *slog.Logger
}

// Run watches the parent directory of c.Path, so atomic replace-by-rename
// saves are seen, and calls OnChange after writes to the file settle. It
// blocks until ctx is done and then returns nil.
func Run(ctx context.Context, c Config) error {
	if c.Path == "" {
		return errors.New("watch path is required")
	}
	if c.OnChange == nil {
		return errors.New("watch callback is required")
	}
	debounce := c.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	path, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("resolving watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching catalog dir: %w", err)
	}
	log.Info("watching catalog", "path", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("catalog event", "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			log.Info("catalog changed", "path", path)
			c.OnChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("catalog watcher error: %w", err)
		}
	}
}
