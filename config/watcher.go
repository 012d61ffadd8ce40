package config

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/a8m/envsubst"
	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"

	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/utils"
)

// watchSettleTime is how long the file has to stay unchanged before it is read again. Editors
// often write a file in several steps.
const watchSettleTime = 100 * time.Millisecond

// A Watcher announces a freshly read config every time its file changes.
type Watcher interface {
	// Config yields a new config after every change that reads and validates.
	Config() <-chan *Config
	Close() error
}

type fsConfigWatcher struct {
	path    string
	logger  logging.Logger
	fsw     *fsnotify.Watcher
	out     chan *Config
	workers utils.StoppableWorkers

	mu   sync.Mutex
	last []byte
}

// NewWatcher watches the config file at path. The current contents do not produce a config,
// only later changes do. Invalid configs are logged and skipped.
func NewWatcher(ctx context.Context, path string, logger logging.Logger) (Watcher, error) {
	path = filepath.Clean(path)
	last, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// the directory is watched since editors tend to replace the file rather than write to it
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(err, fsw.Close())
	}

	w := &fsConfigWatcher{
		path:   path,
		logger: logger,
		fsw:    fsw,
		out:    make(chan *Config),
		last:   last,
	}
	w.workers = utils.NewStoppableWorkersWithContext(ctx, w.watch)
	return w, nil
}

func (w *fsConfigWatcher) watch(ctx context.Context) {
	debounced := debounce.New(watchSettleTime)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounced(func() { w.reload(ctx) })
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.CWarnw(ctx, "error watching config", "path", w.path, "error", err)
		}
	}
}

func (w *fsConfigWatcher) reload(ctx context.Context) {
	buf, err := envsubst.ReadFile(w.path)
	if err != nil {
		w.logger.CWarnw(ctx, "failed to read changed config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	if bytes.Equal(buf, w.last) {
		w.mu.Unlock()
		return
	}
	w.last = buf
	w.mu.Unlock()

	cfg, err := FromReader(ctx, w.path, bytes.NewReader(buf), w.logger)
	if err != nil {
		w.logger.CErrorw(ctx, "ignoring invalid config", "path", w.path, "error", err)
		return
	}
	select {
	case <-ctx.Done():
	case w.out <- cfg:
	}
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.out
}

func (w *fsConfigWatcher) Close() error {
	w.workers.Stop()
	return w.fsw.Close()
}
