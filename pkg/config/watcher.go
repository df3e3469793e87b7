package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of write events most editors produce
// for a single save.
const debounceWindow = 250 * time.Millisecond

// Watcher reports changes to a configuration file. Each change is a single
// signal on Events after the debounce window passes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}
}

// NewWatcher watches the given configuration file for changes. It watches
// the parent directory so atomic rename-based saves are seen too.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events delivers one signal per (debounced) config file change.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops watching. Events is closed afterwards.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

// loop filters raw fsnotify events down to debounced changes of the
// watched file.
func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default: // a signal is already pending
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
