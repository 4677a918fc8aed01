// Package watcher observes the source file and drives re-renders into the
// document state. It is the only writer; the HTTP layer never renders.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/grup/internal/config"
	"git.home.luguber.info/inful/grup/internal/document"
	gruperrors "git.home.luguber.info/inful/grup/internal/errors"
	"git.home.luguber.info/inful/grup/internal/logfields"
	"git.home.luguber.info/inful/grup/internal/metrics"
)

// Watcher observes a single file and commits its contents into the document
// state. Filesystem events are debounced into a size-1 trigger channel and
// consumed serially, so overlapping edits coalesce into one commit at a time.
type Watcher struct {
	path     string
	state    *document.State
	cfg      config.WatchConfig
	recorder metrics.Recorder

	commitReq chan struct{}

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	pollMu      sync.Mutex
	lastModTime time.Time
	lastSize    int64
	lastStatErr bool
}

// New creates a Watcher for path. recorder may be a NoopRecorder.
func New(path string, state *document.State, cfg config.WatchConfig, recorder metrics.Recorder) *Watcher {
	return &Watcher{
		path:      path,
		state:     state,
		cfg:       cfg,
		recorder:  recorder,
		commitReq: make(chan struct{}, 1),
	}
}

// CommitOnce reads the file and commits its current contents. Used for the
// initial population at startup and by the event loop for every observed
// change. Read failures are committed as a visible error snapshot rather
// than returned; watching continues.
func (w *Watcher) CommitOnce() {
	start := time.Now()

	data, err := os.ReadFile(w.path)
	if err != nil {
		fileErr := gruperrors.FileAccessError(w.path, err)
		slog.Warn("source file unreadable", logfields.Path(w.path), logfields.Error(err))
		w.state.CommitError(fileErr)
		w.recorder.IncCommit(metrics.CommitFailed)
		return
	}

	effective, err := w.state.Commit(data)
	w.recorder.ObserveRenderDuration(time.Since(start))
	switch {
	case err != nil:
		slog.Warn("render failed", logfields.Path(w.path), logfields.Error(err))
		w.recorder.IncCommit(metrics.CommitFailed)
	case effective:
		snap := w.state.Snapshot()
		slog.Info("document re-rendered",
			logfields.Path(w.path), logfields.Version(snap.Version))
		w.recorder.IncCommit(metrics.CommitEffective)
	default:
		w.recorder.IncCommit(metrics.CommitNoop)
	}
}

// Run watches the file until ctx is canceled. It performs an initial commit,
// then processes change events serially. fsnotify watches the file's parent
// directory because editors typically write a temp file and rename it over
// the original, which drops a watch on the file's own inode. When fsnotify
// is unavailable (or disabled) a scheduled mtime poll takes over.
func (w *Watcher) Run(ctx context.Context) error {
	w.CommitOnce()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	usePoll := w.cfg.ForcePoll
	if !usePoll {
		fw, err := newDirWatcher(w.path)
		if err != nil {
			slog.Warn("fsnotify unavailable, falling back to polling",
				logfields.Path(w.path), logfields.Error(gruperrors.WatchError(w.path, err)))
			usePoll = true
		} else {
			defer func() { _ = fw.Close() }()
			events, watchErrs = fw.Events, fw.Errors
		}
	}

	if usePoll {
		w.primePollState()
		sched, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create poll scheduler: %w", err)
		}
		_, err = sched.NewJob(
			gocron.DurationJob(w.cfg.PollInterval),
			gocron.NewTask(w.pollOnce),
			gocron.WithName("mtime-poll"),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule poll job: %w", err)
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("watcher stopping", logfields.Path(w.path))
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-watchErrs:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		case <-w.commitReq:
			w.CommitOnce()
		}
	}
}

func newDirWatcher(path string) (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return fw, nil
}

// handleEvent filters directory events down to ones affecting the watched
// file and debounces them into a commit request.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != filepath.Base(w.path) {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	slog.Debug("file change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// trigger coalesces rapid successive events for one logical edit into a
// single commit request.
func (w *Watcher) trigger() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.cfg.Debounce, func() {
		select {
		case w.commitReq <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) primePollState() {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()
	if fi, err := os.Stat(w.path); err == nil {
		w.lastModTime = fi.ModTime()
		w.lastSize = fi.Size()
		w.lastStatErr = false
	} else {
		w.lastStatErr = true
	}
}

// pollOnce is the scheduled fallback: trigger a commit whenever the file's
// mtime or size changed, or its readability flipped. The commit itself is
// hash-gated, so a spurious trigger never bumps the version.
func (w *Watcher) pollOnce() {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	fi, err := os.Stat(w.path)
	if err != nil {
		if !w.lastStatErr {
			w.lastStatErr = true
			w.trigger()
		}
		return
	}
	changed := w.lastStatErr || !fi.ModTime().Equal(w.lastModTime) || fi.Size() != w.lastSize
	w.lastStatErr = false
	w.lastModTime = fi.ModTime()
	w.lastSize = fi.Size()
	if changed {
		w.trigger()
	}
}
