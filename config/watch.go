package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch watches path for writes and calls onChange with a freshly
// Load-ed Config each time the file changes, until the returned stop
// function is called. Errors from Load (other than a missing file,
// which Load itself tolerates) are logged and otherwise ignored --
// Watch never stops running because one reload failed.
func Watch(path string, onChange func(Config)) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Printf("config: reload of %s failed: %v", path, err)
					continue
				}
				onChange(cfg)
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("config: watcher error: %v", werr)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}
