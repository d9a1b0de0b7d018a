// Package landing watches the landing directory for newly delivered dump
// part files and signals when a batch should be reprocessed.
package landing

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounce window: uploads arrive as several part files in quick succession,
// and one run should cover the whole delivery.
const settleDelay = 2 * time.Second

type Watcher struct {
	fs  *fsnotify.Watcher
	dir string
}

func New(dir string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return &Watcher{fs: fs, dir: dir}, nil
}

func (w *Watcher) Close() error { return w.fs.Close() }

// Runs emits once per settled batch of *.json / *.ndjson writes. The channel
// closes when ctx is cancelled or the underlying watcher shuts down.
func (w *Watcher) Runs(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fs.Events:
				if !ok {
					return
				}
				if !isDump(ev.Name) {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("landing event")
				if timer == nil {
					timer = time.NewTimer(settleDelay)
					timerC = timer.C
				} else {
					if !timer.Stop() {
						<-timerC
					}
					timer.Reset(settleDelay)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case out <- struct{}{}:
				default: // a run is already pending
				}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Str("dir", w.dir).Msg("landing watcher error")
			}
		}
	}()

	return out
}

func isDump(path string) bool {
	switch filepath.Ext(path) {
	case ".json", ".ndjson":
		return true
	}
	return false
}
