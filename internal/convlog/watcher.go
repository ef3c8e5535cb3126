package convlog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/patheras/prometheus-core/internal/logging"
	"github.com/patheras/prometheus-core/internal/store"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	DebounceMs int64
	OnIndexed  func(IndexStats) // optional, called after each reconciliation pass
}

// Watcher watches the conversations directory for .log changes and
// schedules a debounced IndexFiles pass, coalescing rapid bursts into one
// reconciliation per quiet window.
type Watcher struct {
	log       *Log
	store     *store.Store
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	onIndexed func(IndexStats)
	logger    logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Watch starts watching l.Dir() for changes to .log files, debounced by
// opts.DebounceMs (default 500ms if zero). The returned Watcher must be
// stopped with Close.
func (l *Log) Watch(ctx context.Context, s *store.Store, opts WatchOptions) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(l.dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	debounceMs := opts.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 500
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		log: l, store: s, fsw: fsw, onIndexed: opts.OnIndexed,
		logger: logging.ConvLogLogger, cancel: cancel,
	}
	w.debouncer = NewDebouncer(time.Duration(debounceMs)*time.Millisecond, func() {
		stats, err := l.IndexFiles(watchCtx, s)
		if err != nil {
			w.logger.Error("conversation log reconciliation failed", "error", err)
			return
		}
		if w.onIndexed != nil {
			w.onIndexed(stats)
		}
	})

	w.wg.Add(1)
	go w.loop(watchCtx)

	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".log") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debouncer.Trigger()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("conversation log watcher error", "error", err)
		}
	}
}

// Close stops the watcher, waits for any in-flight reconciliation to
// finish, and releases the filesystem handle.
func (w *Watcher) Close() error {
	w.cancel()
	w.debouncer.CancelAndWait()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
