package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/logger"
	"github.com/odyomed/resolve/synonym"
)

// SynonymWatcher watches the synonym groups file and rebuilds the index
// when it changes, so edits to the YAML show up in live search without a
// restart.
type SynonymWatcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []SynonymReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
}

// SynonymReloadCallback receives the freshly built index after a reload.
type SynonymReloadCallback func(*synonym.Index) error

// NewSynonymWatcher creates a watcher for the given synonyms file.
func NewSynonymWatcher(path string) (*SynonymWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch synonyms file %s", path)
	}

	return &SynonymWatcher{
		path:           path,
		watcher:        watcher,
		debouncePeriod: 500 * time.Millisecond, // Debounce rapid file changes
	}, nil
}

// OnReload registers a callback to be called after each successful reload
func (sw *SynonymWatcher) OnReload(callback SynonymReloadCallback) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.callbacks = append(sw.callbacks, callback)
}

// Start begins watching for file changes
func (sw *SynonymWatcher) Start() {
	go sw.watchLoop()
}

func (sw *SynonymWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}

			// Editors save via rename-and-replace as often as in-place
			// writes, so Create counts too.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				logger.Logger.Infow("Synonyms file changed",
					"file", event.Name,
					"op", event.Op.String())
				sw.scheduleReload()
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logger.Logger.Warnw("Synonym watcher error",
				"error", err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (sw *SynonymWatcher) scheduleReload() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.debounceTimer != nil {
		sw.debounceTimer.Stop()
	}

	sw.debounceTimer = time.AfterFunc(sw.debouncePeriod, func() {
		if err := sw.reload(); err != nil {
			logger.Logger.Errorw("Synonym reload failed",
				"path", sw.path,
				"error", err)
		}
	})
}

// reload rebuilds the index and calls all callbacks. A parse failure
// leaves the previous index in place.
func (sw *SynonymWatcher) reload() error {
	groups, err := synonym.LoadFile(sw.path)
	if err != nil {
		return err
	}
	index := synonym.NewIndex(groups)

	logger.Logger.Infow("Synonyms reloaded",
		"path", sw.path,
		"groups", index.Groups())

	sw.mu.RLock()
	callbacks := make([]SynonymReloadCallback, len(sw.callbacks))
	copy(callbacks, sw.callbacks)
	sw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(index); err != nil {
			logger.Logger.Warnw("Synonym reload callback error",
				"error", err)
			// Continue calling other callbacks even if one fails
		}
	}

	return nil
}

// Stop stops watching for changes
func (sw *SynonymWatcher) Stop() error {
	return sw.watcher.Close()
}
