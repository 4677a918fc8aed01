package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncHTTPRequest("/", 200)
	pr.IncHTTPRequest("/updates", 404)
	pr.IncCommit(CommitEffective)
	pr.IncCommit(CommitNoop)
	pr.ObserveRenderDuration(5 * time.Millisecond)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncHTTPRequest("/", 200)
	pr.IncCommit(CommitFailed)
	pr.ObserveRenderDuration(time.Millisecond)
}
