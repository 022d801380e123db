// Package media hosts decoded book cover images on an external image service
// or in the document store.
package media

import (
	"context"
	"time"

	"github.com/paghive/paghive/internal/api/metrics"
	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

const (
	MediaCloudinary = "cloudinary"
	MediaGridFS     = "gridfs"
)

// Backend is a MediaStore that knows its own name.
type Backend interface {
	ports.MediaStore
	Name() string
}

// Instrumented records upload counts and latency for a backend.
type Instrumented struct {
	Backend
}

func Instrument(b Backend) *Instrumented {
	return &Instrumented{Backend: b}
}

func (i *Instrumented) Upload(ctx context.Context, img domain.ImagePayload) (string, error) {
	start := time.Now()
	url, err := i.Backend.Upload(ctx, img)
	metrics.MediaUploadDuration.WithLabelValues(i.Name()).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.MediaUploadsTotal.WithLabelValues(i.Name(), result).Inc()
	return url, err
}
