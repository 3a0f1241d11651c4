package grid

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a single file. The parent directory is
// watched so editors that save by rename are still seen.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	changes  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	debounce time.Duration
	log      *zap.Logger
}

// Watch starts watching path. Bursts of events inside the debounce window
// collapse into one change.
func Watch(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		fs:       fw,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		debounce: debounce,
		log:      log,
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Changes delivers one value per settled change. It is closed by Close.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.changes)

	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fire = time.After(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watch error", zap.String("path", w.path), zap.Error(err))

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}
