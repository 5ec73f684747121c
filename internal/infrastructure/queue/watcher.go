package queue

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"neupages/internal/errs"
	"neupages/internal/ports"
)

// Watcher wakes idle workers when a new pending descriptor lands in the
// queue directory. fsnotify events are a hint, not a guarantee (another
// worker may claim the item first), so Wait also returns after pollInterval
// and callers simply re-poll the queue.
type Watcher struct {
	watcher      *fsnotify.Watcher
	pollInterval time.Duration
}

var _ ports.QueueWatcher = (*Watcher)(nil)

func NewWatcher(dir string, pollInterval time.Duration) (*Watcher, error) {
	if pollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create queue directory")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(err, "create fsnotify watcher")
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errs.Wrap(err, "watch queue directory")
	}

	return &Watcher{
		watcher:      fsWatcher,
		pollInterval: pollInterval,
	}, nil
}

// Wait blocks until a pending descriptor may have appeared, the poll
// interval elapses, or ctx ends.
func (w *Watcher) Wait(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("queue watcher closed")
			}
			if !strings.HasSuffix(event.Name, pendingSuffix) {
				continue
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				return nil
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("queue watcher closed")
			}
			return errs.Wrap(err, "watch queue directory")
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
