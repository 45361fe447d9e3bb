package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// WatchTimetable watches path for writes and calls onChange after each one,
// so an operator editing the timetable file by hand (outside the control
// surface) is picked up without a daemon restart.  The watch follows the
// file's inode: once the file is replaced by a rename (as timetable.Save
// does), later writes to the new file are not reported.  The returned
// function stops the watch; callers should defer it.
func WatchTimetable(path string, onChange func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("config: watch error on %s: %v", path, err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}, nil
}
