// Package metrics provides observability hooks for the preview pipeline.
//
// Components receive a Recorder through dependency injection; NoopRecorder is
// the default so metrics stay optional with zero overhead when disabled.
package metrics

import "time"

// CommitResult enumerates commit outcomes for counters.
type CommitResult string

const (
	CommitEffective CommitResult = "effective"
	CommitNoop      CommitResult = "noop"
	CommitFailed    CommitResult = "failed"
)

// Recorder defines observability hooks for request and commit metrics.
// Implementations must tolerate zero-value use.
type Recorder interface {
	IncHTTPRequest(route string, status int)
	IncCommit(result CommitResult)
	ObserveRenderDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncHTTPRequest(string, int)          {}
func (NoopRecorder) IncCommit(CommitResult)              {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
