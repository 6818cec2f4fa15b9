package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordTransition("open", "in_progress")
	m.RecordTransition("open", "in_progress")
	m.RecordEscalation("L2")
	m.RecordNotification("created", "sent")
	m.RecordRequest("/tickets/:id", "GET", 200, 15*time.Millisecond)
	m.RecordConflict()

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("open", "in_progress")); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.escalations.WithLabelValues("L2")); got != 1 {
		t.Errorf("escalations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("created", "sent")); got != 1 {
		t.Errorf("notifications = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/tickets/:id", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.conflicts); got != 1 {
		t.Errorf("conflicts = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordTransition("open", "in_progress")
	m.RecordNotification("created", "failed")
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "NOT_FOUND")
}
