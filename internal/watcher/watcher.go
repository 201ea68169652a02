// Package watcher provides file system monitoring for the proxy's config
// pool file, reloading the in-memory store when it changes on disk.
// Mirrors the teacher's internal/watcher package: an fsnotify.Watcher
// guarding a single path, with hash-based change detection so a touch
// with unchanged content does not trigger a pointless reload.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Reloadable is anything that can re-seed itself from a path on disk.
// internal/store.Store implements this via its Reload method.
type Reloadable interface {
	Reload(path string) error
}

// Watcher watches a single config pool file and reloads a Reloadable
// store whenever its content changes.
type Watcher struct {
	path    string
	target  Reloadable
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	lastHash string
}

// New creates a watcher for path, backed by an fsnotify watcher. Start
// must be called to begin watching.
func New(path string, target Reloadable) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, target: target, watcher: fw}, nil
}

// Start begins watching the config pool file in a background goroutine.
// It returns once the watch is registered; reload events are processed
// asynchronously until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.path); err != nil {
		log.Errorf("failed to watch config pool file %s: %v", w.path, err)
		return err
	}
	log.Debugf("watching config pool file: %s", w.path)

	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = hashOf(data)
	}

	go w.loop(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.maybeReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config pool watcher error: %v", err)
		}
	}
}

func (w *Watcher) maybeReload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Errorf("failed to read config pool file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debugf("ignoring empty config pool write event")
		return
	}

	newHash := hashOf(data)

	w.mu.Lock()
	unchanged := w.lastHash != "" && w.lastHash == newHash
	w.mu.Unlock()
	if unchanged {
		log.Debugf("config pool file content unchanged (hash match), skipping reload")
		return
	}

	log.Infof("config pool file changed, reloading: %s", w.path)
	if err := w.target.Reload(w.path); err != nil {
		log.Errorf("failed to reload config pool: %v", err)
		return
	}

	w.mu.Lock()
	w.lastHash = newHash
	w.mu.Unlock()
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
