package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/strrl/chatdash/pkg/models"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload
const DefaultDebounce = 250 * time.Millisecond

// Update is one reload result pushed by a Watcher
type Update struct {
	Sessions []models.SessionSummary
	Err      error
}

// Watcher reloads a data file whenever it changes
type Watcher struct {
	path     string
	load     LoadFunc
	logger   *slog.Logger
	debounce time.Duration

	fs      *fsnotify.Watcher
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// WatchOptions tune a Watcher. The zero value uses Load and
// DefaultDebounce.
type WatchOptions struct {
	Load     LoadFunc
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch starts watching path with the default options
func Watch(ctx context.Context, path string, logger *slog.Logger) (*Watcher, error) {
	return WatchWith(ctx, path, WatchOptions{Logger: logger})
}

// WatchWith starts watching path. The directory is watched rather than the
// file so that editors replacing the file by rename are still seen.
func WatchWith(ctx context.Context, path string, opts WatchOptions) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Load == nil {
		opts.Load = NewLoader(opts.Logger)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:     abs,
		load:     opts.Load,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		fs:       fsw,
		updates:  make(chan Update, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Updates delivers reload results. Only the newest pending result is kept.
// The channel is closed when the watcher stops.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Close stops the watcher and waits for its goroutine
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.updates)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug("data file changed", "path", w.path, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "path", w.path, "error", err)
			w.push(Update{Err: err})

		case <-timer.C:
			sessions, err := w.load(ctx, w.path)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Warn("failed to reload sessions", "path", w.path, "error", err)
			} else {
				w.logger.Info("reloaded sessions", "path", w.path, "count", len(sessions))
			}
			w.push(Update{Sessions: sessions, Err: err})
		}
	}
}

// push replaces any unread update with u
func (w *Watcher) push(u Update) {
	for {
		select {
		case w.updates <- u:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}
