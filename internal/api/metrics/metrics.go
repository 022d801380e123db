// Package metrics defines and registers all custom Prometheus metrics for the
// paghive API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is imported; /metrics serves them alongside the HTTP
// request metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paghive"

// ── Book metrics ──────────────────────────────────────────────────────────────

// BooksCreatedTotal counts successful create requests.
// Label:
//   - result: "created" for a new book, "replayed" for an Idempotency-Key hit
var BooksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "books_created_total",
		Help:      "Total number of book create requests that succeeded, by result.",
	},
	[]string{"result"},
)

// BooksDeletedTotal counts deleted books.
var BooksDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "books_deleted_total",
		Help:      "Total number of books deleted.",
	},
)

// ── Media metrics ─────────────────────────────────────────────────────────────

// MediaUploadsTotal counts image uploads.
// Labels:
//   - backend: "cloudinary" or "gridfs"
//   - result: "ok" or "error"
var MediaUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Total number of image uploads, by backend and result.",
	},
	[]string{"backend", "result"},
)

// MediaUploadDuration measures how long an upload to the media backend takes.
var MediaUploadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_upload_duration_seconds",
		Help:      "Duration of image uploads to the media backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// ── Cleanup metrics ───────────────────────────────────────────────────────────

// CleanupTotal counts image cleanup attempts.
// Label:
//   - result: "ok", "error", or "dropped" (queue full or shutting down)
var CleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_cleanup_total",
		Help:      "Total number of hosted image removals, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks the number of removals waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "image_cleanup_queue_depth",
		Help:      "Current number of removals pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsTotal counts account and session events.
// Label:
//   - event: "signup", "login", or "logout"
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of sign-ups, logins and logouts.",
	},
	[]string{"event"},
)

// AuthFailuresTotal counts rejected bearer tokens and login attempts.
// Label:
//   - reason: "missing_token", "invalid_token", "unknown_user", "name_mismatch"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of authentication failures, by reason.",
	},
	[]string{"reason"},
)
