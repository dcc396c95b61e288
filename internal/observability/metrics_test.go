package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()

	m.IncNotificationSent("email")
	m.IncNotificationSent("Email")
	m.IncNotificationFailed("sms", "attempts_exhausted")
	m.IncNotificationFailed("sms", "")
	m.IncRetryScheduled("email")
	m.IncBroadcast()
	m.IncBroadcast()

	if got := testutil.ToFloat64(m.notificationsSentTotal.WithLabelValues("email")); got != 2 {
		t.Fatalf("sent total = %v, want 2 (type label should be normalized)", got)
	}
	if got := testutil.ToFloat64(m.notificationsFailedTotal.WithLabelValues("sms", "attempts_exhausted")); got != 1 {
		t.Fatalf("failed total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.notificationsFailedTotal.WithLabelValues("sms", "unknown")); got != 1 {
		t.Fatalf("failed total with empty reason = %v, want 1 under unknown", got)
	}
	if got := testutil.ToFloat64(m.retryScheduledTotal.WithLabelValues("email")); got != 1 {
		t.Fatalf("retry scheduled total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.broadcastsTotal); got != 2 {
		t.Fatalf("broadcasts total = %v, want 2", got)
	}
}

func TestMetricsWorkerInFlight(t *testing.T) {
	t.Parallel()

	m := NewMetrics()

	m.IncWorkerInFlight("email")
	m.IncWorkerInFlight("email")
	m.DecWorkerInFlight("email")

	if got := testutil.ToFloat64(m.workerInflight.WithLabelValues("email")); got != 1 {
		t.Fatalf("worker inflight = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncNotificationSent("email")
	m.IncNotificationFailed("email", "permanent_error")
	m.ObserveSendDuration("email", time.Second)
	m.IncWorkerInFlight("email")
	m.DecWorkerInFlight("email")
	m.IncRetryScheduled("email")
	m.IncBroadcast()
	m.RegisterLiveConnections(func() int { return 0 })

	if m.Handler() == nil {
		t.Fatal("nil metrics should still return a scrape handler")
	}
}

func TestMetricsLiveConnectionsGauge(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RegisterLiveConnections(func() int { return 3 })

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read scrape body: %v", err)
	}

	if !strings.Contains(string(body), "notifyhub_live_connections 3") {
		t.Fatalf("scrape output missing live connections gauge:\n%s", string(body))
	}
}
