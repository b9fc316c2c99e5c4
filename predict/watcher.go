package predict

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/ml"
)

// debounce absorbs the write/rename event bursts editors and atomic-save
// tools emit for a single artifact update.
const reloadDebounce = 500 * time.Millisecond

// Watcher hot-reloads the model artifact when the file changes on disk. A
// broken or mismatched artifact is logged and skipped; the predictor keeps
// serving the previous model.
type Watcher struct {
	predictor *Predictor
	path      string
	watcher   *fsnotify.Watcher
	logger    *zap.Logger
	done      chan struct{}
}

// WatchModel starts watching the artifact's directory (watching the file
// itself breaks across atomic renames).
func WatchModel(predictor *Predictor, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		predictor: predictor,
		path:      path,
		watcher:   fsWatcher,
		logger:    logger,
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop ends the watch loop.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	artifact, err := ml.LoadModel(w.path)
	if err != nil {
		if errors.Is(err, ml.ErrFeatureMismatch) {
			w.logger.Error("updated artifact is incompatible, keeping current model",
				zap.String("path", w.path), zap.Error(err))
		} else {
			w.logger.Warn("model reload failed, keeping current model",
				zap.String("path", w.path), zap.Error(err))
		}
		return
	}
	w.predictor.SwapModel(artifact)
	w.logger.Info("model reloaded", zap.String("path", w.path))
}
