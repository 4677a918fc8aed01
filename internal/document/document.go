// Package document holds the single source of truth consulted by the HTTP
// layer: the latest rendered snapshot of the previewed file plus its
// versioning metadata.
//
// Snapshots are immutable and published with an atomic pointer swap, so
// readers never block on an in-flight commit and never observe a half-written
// render. Commits are serialized; only the watcher calls Commit.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/grup/internal/logfields"
	"git.home.luguber.info/inful/grup/internal/render"
)

// Snapshot is one immutable (version, renderedHTML) pair. LastError is empty
// after a successful render and sticky until the next successful one.
type Snapshot struct {
	Version     uint64
	HTML        string
	ContentHash string
	LastError   string
}

// OK reports whether the snapshot represents a successful render.
func (s *Snapshot) OK() bool { return s.LastError == "" }

// State tracks the current snapshot of a single document.
type State struct {
	path     string
	renderer *render.Renderer

	// commitMu serializes writers; readers go through the atomic pointer only.
	commitMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// NewState creates a State for path. The snapshot starts at version 0 with
// empty content; the watcher's initial commit populates it.
func NewState(path string, renderer *render.Renderer) *State {
	s := &State{path: path, renderer: renderer}
	s.current.Store(&Snapshot{})
	return s
}

// Path returns the source file path the state tracks.
func (s *State) Path() string { return s.path }

// Snapshot returns the latest committed snapshot. It never blocks.
func (s *State) Snapshot() *Snapshot {
	return s.current.Load()
}

// Commit renders source and publishes a new snapshot. When the content hash
// is unchanged from the current snapshot the call is a no-op and no version
// is consumed, so metadata-only filesystem events never bump the version.
//
// A render failure still publishes: the new snapshot carries an incremented
// version and the fallback error page, so the browser's next poll surfaces
// the problem instead of showing stale content indefinitely. The returned
// error reports that failure; effective is true whenever a new snapshot was
// published.
func (s *State) Commit(source []byte) (effective bool, err error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	sum := sha256.Sum256(source)
	hash := hex.EncodeToString(sum[:])

	prev := s.current.Load()
	if prev.ContentHash == hash {
		slog.Debug("commit skipped, content unchanged",
			logfields.Path(s.path), logfields.Hash(hash))
		return false, nil
	}

	version := prev.Version + 1
	next := &Snapshot{Version: version, ContentHash: hash}

	html, renderErr := s.renderer.Render(source, version)
	if renderErr != nil {
		next.HTML = s.renderer.ErrorPage(version, renderErr)
		next.LastError = renderErr.Error()
		err = renderErr
	} else {
		next.HTML = html
	}

	s.current.Store(next)
	slog.Debug("snapshot committed",
		logfields.Path(s.path), logfields.Version(version), logfields.Hash(hash))
	return true, err
}

// CommitError publishes an error-page snapshot for a failure that produced no
// source bytes, typically an unreadable or deleted file. The content hash is
// cleared so the next successful read always re-renders, even if the file
// comes back with the same bytes it had before the failure.
func (s *State) CommitError(cause error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	prev := s.current.Load()
	if prev.ContentHash == "" && prev.LastError == cause.Error() {
		// Watcher retries while the file stays unreadable; one visible
		// snapshot per distinct failure is enough.
		return
	}
	version := prev.Version + 1
	s.current.Store(&Snapshot{
		Version:   version,
		HTML:      s.renderer.ErrorPage(version, cause),
		LastError: cause.Error(),
	})
	slog.Debug("error snapshot committed",
		logfields.Path(s.path), logfields.Version(version), logfields.Error(cause))
}
