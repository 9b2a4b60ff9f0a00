package settings

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes settings files and invokes a callback when one changes,
// so hosts can re-apply the logging level and drop cached documents without
// restarting. It never touches in-flight requests.
type Watcher struct {
	fs      *fsnotify.Watcher
	watched map[string]struct{}
	done    chan struct{}
}

// Watch starts observing the given settings files. Paths that do not exist
// yet are watched through their parent directory so a later file creation
// still fires. The callback runs on the watcher's own goroutine.
func Watch(paths []string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings: watch: %w", err)
	}

	w := &Watcher{
		fs:      fsw,
		watched: make(map[string]struct{}, len(paths)),
		done:    make(chan struct{}),
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.watched[abs] = struct{}{}

		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("settings: watch %s: %w", p, err)
		}
	}

	go w.loop(onChange)

	return w, nil
}

func (w *Watcher) loop(onChange func(path string)) {
	defer close(w.done)

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				abs = ev.Name
			}
			if _, tracked := w.watched[abs]; tracked {
				onChange(abs)
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit. No callbacks
// fire after Close returns.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
