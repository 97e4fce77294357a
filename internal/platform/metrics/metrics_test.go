package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshotBucketsStatuses(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(404, 20*time.Millisecond)
	c.Record(409, 5*time.Millisecond)
	c.Record(429, 1*time.Millisecond)
	c.Record(500, 4*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(5) {
		t.Fatalf("requestsTotal = %v, want 5", snap["requestsTotal"])
	}
	if snap["clientErrors"] != uint64(1) {
		t.Fatalf("clientErrors = %v, want 1", snap["clientErrors"])
	}
	if snap["serverErrors"] != uint64(1) {
		t.Fatalf("serverErrors = %v, want 1", snap["serverErrors"])
	}
	if snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("rateLimitedTotal = %v, want 1", snap["rateLimitedTotal"])
	}
	if snap["conflictsBlocked"] != uint64(1) {
		t.Fatalf("conflictsBlocked = %v, want 1", snap["conflictsBlocked"])
	}
	if snap["avgDurationMs"] != float64(8) {
		t.Fatalf("avgDurationMs = %v, want 8", snap["avgDurationMs"])
	}
}

func TestCollectorSnapshotEmpty(t *testing.T) {
	snap := New().Snapshot()
	if snap["requestsTotal"] != uint64(0) {
		t.Fatalf("requestsTotal = %v, want 0", snap["requestsTotal"])
	}
	if snap["avgDurationMs"] != float64(0) {
		t.Fatalf("avgDurationMs = %v, want 0", snap["avgDurationMs"])
	}
}
