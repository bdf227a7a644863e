package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSync(t *testing.T) {
	okBefore := testutil.ToFloat64(SyncRuns.WithLabelValues("ok"))
	skippedBefore := testutil.ToFloat64(SyncRuns.WithLabelValues("skipped"))
	addedBefore := testutil.ToFloat64(SyncJobsAdded)
	processedBefore := testutil.ToFloat64(SyncJobsProcessed)

	RecordSync("ok", 10, 3)
	RecordSync("skipped", 0, 0)

	if got := testutil.ToFloat64(SyncRuns.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Errorf("ok runs delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SyncRuns.WithLabelValues("skipped")) - skippedBefore; got != 1 {
		t.Errorf("skipped runs delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SyncJobsAdded) - addedBefore; got != 3 {
		t.Errorf("added delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SyncJobsProcessed) - processedBefore; got != 10 {
		t.Errorf("processed delta = %v, want 10", got)
	}
	if testutil.ToFloat64(SyncLastSuccess) == 0 {
		t.Error("last success timestamp not set")
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CatalogCacheHits)
	misses := testutil.ToFloat64(CatalogCacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(true)
	RecordCacheLookup(false)

	if got := testutil.ToFloat64(CatalogCacheHits) - hits; got != 2 {
		t.Errorf("hits delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CatalogCacheMisses) - misses; got != 1 {
		t.Errorf("misses delta = %v, want 1", got)
	}
}

func TestRecordDegradation(t *testing.T) {
	before := testutil.ToFloat64(CatalogDegradations.WithLabelValues("query_error"))
	RecordDegradation("query_error")
	if got := testutil.ToFloat64(CatalogDegradations.WithLabelValues("query_error")) - before; got != 1 {
		t.Errorf("degradations delta = %v, want 1", got)
	}
}

func TestRecordDurations(t *testing.T) {
	// Histograms only need to accept observations without panicking.
	RecordFeedFetch(250 * time.Millisecond)
	RecordRecommend("user", 5*time.Millisecond)
	RecordRecommend("anonymous", time.Microsecond)

	if n := testutil.CollectAndCount(RecommendDuration); n < 2 {
		t.Errorf("expected at least 2 recommend series, got %d", n)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/jobs/{id}", "404"))
	RecordHTTPRequest("GET", "/api/jobs/{id}", 404, 3*time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/jobs/{id}", "404")) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
}
