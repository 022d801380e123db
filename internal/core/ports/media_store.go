package ports

import (
	"context"

	"github.com/paghive/paghive/internal/core/domain"
)

// MediaStore hosts image content outside the document store.
type MediaStore interface {
	// Upload stores img and returns the URL clients should load it from.
	Upload(ctx context.Context, img domain.ImagePayload) (string, error)
	Destroy(ctx context.Context, publicID string) error
	// PublicID extracts the store-specific identifier from an image URL. ok is
	// false when the URL is not hosted by this store.
	PublicID(imageURL string) (publicID string, ok bool)
}

// ImageCleaner schedules best-effort removal of hosted images.
type ImageCleaner interface {
	Schedule(publicID string)
}
