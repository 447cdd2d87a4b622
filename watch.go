//go:build !embed
// +build !embed

package portfoliolive

import (
	"io"
	"log"

	"github.com/fsnotify/fsnotify"
)

func init() {
	log.Println("using filesystem resources")
}

// StartWatching re-transpiles the widget whenever a file in ui-src is written.
func StartWatching(events EventPublisher) (io.Closer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Start listening for events.
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Println("modified: ", event.Name)
					if err := Refresh(); err != nil {
						log.Println("refresh failed: ", err)
						continue
					}
					events.Publish(NewEventWithParam(UIRefreshedEvent, event.Name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Println("error: ", err)
			}
		}
	}()

	if err := watcher.Add(uiSrc); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}
