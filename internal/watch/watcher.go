// Package watch re-runs synchronization whenever a model source changes.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ModelWatcher monitors the models directory and triggers a callback with
// the changed .site files, debounced so editor save bursts coalesce into
// one sync.
type ModelWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	dir       string
	logger    *zap.Logger
	onChange  func([]string)
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewModelWatcher creates a watcher over dir. The callback runs on the
// debouncer's timer goroutine.
func NewModelWatcher(dir string, logger *zap.Logger, onChange func([]string)) (*ModelWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mw := &ModelWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(200 * time.Millisecond),
		dir:       dir,
		logger:    logger,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}
	mw.debouncer.SetCallback(mw.onChange)
	return mw, nil
}

// Start begins watching the models directory.
func (mw *ModelWatcher) Start() error {
	if err := mw.watcher.Add(mw.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", mw.dir, err)
	}
	mw.logger.Info("watching for model changes", zap.String("dir", mw.dir))

	mw.wg.Add(1)
	go mw.watch()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (mw *ModelWatcher) Stop() error {
	select {
	case <-mw.stopChan:
		return nil
	default:
		close(mw.stopChan)
	}
	mw.wg.Wait()
	mw.debouncer.Stop()
	return mw.watcher.Close()
}

func (mw *ModelWatcher) watch() {
	defer mw.wg.Done()

	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if !isModelSource(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			mw.logger.Debug("model file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			mw.debouncer.Add(event.Name)

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.logger.Warn("watch error", zap.Error(err))

		case <-mw.stopChan:
			return
		}
	}
}

func isModelSource(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return filepath.Ext(base) == ".site"
}
