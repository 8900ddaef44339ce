package skip

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher reports changes to a rules file. It watches the file's directory
// so editors that save through rename are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	file    string
	Events  chan string
	errs    chan error
	closeCh chan struct{}
	once    sync.Once
}

func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		file:    abs,
		Events:  make(chan string, 4),
		errs:    make(chan error, 4),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// Changed reports, without blocking, whether the file changed since the
// last call.
func (w *Watcher) Changed() bool {
	changed := false
	for {
		select {
		case <-w.Events:
			changed = true
		default:
			return changed
		}
	}
}

// Errors returns, without blocking, the watch errors seen since the last
// call. Errors beyond the buffer are dropped.
func (w *Watcher) Errors() []error {
	var errs []error
	for {
		select {
		case err := <-w.errs:
			errs = append(errs, err)
		default:
			return errs
		}
	}
}

// run forwards a change once writes to the file have been quiet for
// watchDebounce.
func (w *Watcher) run() {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			timer.Reset(watchDebounce)
		case <-timer.C:
			select {
			case w.Events <- w.file:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
