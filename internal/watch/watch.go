// Package watch triggers archival runs on an interval and, optionally, when
// PDFs land in a local inbox directory. Runs never overlap: triggers that
// arrive during a run coalesce into one follow-up run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// RunFunc performs one run. A returned error that Stop reports true ends
// the watcher; any other error is logged and watching continues.
type RunFunc func(ctx context.Context) error

// Options configure a Watcher.
type Options struct {
	Interval time.Duration
	Debounce time.Duration
	// Dir is watched for new or rewritten PDFs when non-empty.
	Dir string
	// Stop reports whether a run error is fatal.
	Stop func(error) bool
}

// Watcher schedules runs.
type Watcher struct {
	opts    Options
	run     RunFunc
	trigger chan string
	logger  *slog.Logger
}

// New creates a Watcher.
func New(opts Options, run RunFunc, logger *slog.Logger) *Watcher {
	if opts.Stop == nil {
		opts.Stop = func(error) bool { return false }
	}
	return &Watcher{
		opts:    opts,
		run:     run,
		trigger: make(chan string, 1),
		logger:  logger.With("system", "watch"),
	}
}

// Run performs an initial run and then watches until ctx is done or a run
// fails fatally.
func (w *Watcher) Run(ctx context.Context) error {
	var fw *fsnotify.Watcher
	if w.opts.Dir != "" {
		var err error
		if fw, err = fsnotify.NewWatcher(); err != nil {
			return fmt.Errorf("create file watcher: %w", err)
		}
		defer fw.Close()

		if err := fw.Add(w.opts.Dir); err != nil {
			return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
		}
		w.logger.InfoContext(ctx, "watching inbox directory", "dir", w.opts.Dir)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.tick(gctx) })
	if fw != nil {
		g.Go(func() error { return w.files(gctx, fw) })
	}
	g.Go(func() error { return w.loop(gctx) })

	w.fire("startup")
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// fire requests a run without blocking; a pending request absorbs it.
func (w *Watcher) fire(reason string) {
	select {
	case w.trigger <- reason:
	default:
	}
}

func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-w.trigger:
			w.logger.InfoContext(ctx, "run triggered", "reason", reason)
			if err := w.run(ctx); err != nil {
				if w.opts.Stop(err) {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.ErrorContext(ctx, "run failed", "error", err)
			}
		}
	}
}

func (w *Watcher) tick(ctx context.Context) error {
	t := time.NewTicker(w.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.fire("interval")
		}
	}
}

func (w *Watcher) files(ctx context.Context, fw *fsnotify.Watcher) error {
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") {
				continue
			}
			w.logger.DebugContext(ctx, "inbox change", "file", ev.Name, "op", ev.Op.String())
			debounce = time.After(w.opts.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "file watcher error", "error", err)
		case <-debounce:
			debounce = nil
			w.fire("inbox")
		}
	}
}
