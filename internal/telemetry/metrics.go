// Package telemetry holds the Prometheus metrics exported on /metrics.
//
// All metrics are registered against the default registry through promauto,
// so importing the package is enough for them to appear in the scrape output.
//
// Audit metrics let operators notice the paths that are swallowed by design:
// a rising atlasdash_audit_write_failures_total means operations are running
// unaudited, and atlasdash_backup_capture_total{result="degraded"} counts
// restorable mutations that went ahead without a snapshot.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by chi route pattern rather than raw URL.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasdash_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlasdash_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Audit engine metrics.
//
//   - Entry rate by action:        sum by (action) (rate(atlasdash_audit_entries_total[5m]))
//   - Unaudited operations alert:  increase(atlasdash_audit_write_failures_total[10m]) > 0
//   - Restore failures:            rate(atlasdash_restores_total{result!="ok"}[1h])
var (
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasdash_audit_entries_total",
			Help: "Total number of audit entries written, by action and operation outcome.",
		},
		[]string{"action", "success"},
	)

	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atlasdash_audit_write_failures_total",
			Help: "Total number of audit entries that could not be persisted.",
		},
	)

	BackupCaptureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasdash_backup_capture_total",
			Help: "Total number of pre-mutation backup captures, by result (ok or degraded).",
		},
		[]string{"result"},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasdash_restores_total",
			Help: "Total number of restore attempts, by original action and result.",
		},
		[]string{"action", "result"},
	)

	IdentityFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atlasdash_identity_fallbacks_total",
			Help: "Total number of server identity lookups that fell back to the raw locator.",
		},
	)
)

// Restore result labels.
const (
	RestoreOK       = "ok"
	RestoreRejected = "rejected"
	RestoreFailed   = "failed"
)

// Capture result labels.
const (
	CaptureOK       = "ok"
	CaptureDegraded = "degraded"
)

// ObserveAuditEntry counts one persisted audit entry.
func ObserveAuditEntry(action string, success bool) {
	AuditEntriesTotal.WithLabelValues(action, strconv.FormatBool(success)).Inc()
}
