package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// AuthorSummary is the denormalized view of a user embedded in listings.
type AuthorSummary struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

// Book is a user-submitted recommendation. Everything except the image
// reference is immutable after creation.
type Book struct {
	ID      string
	Title   string
	Caption string
	Rating  int
	// Image is the URL returned by the media store, never inline content.
	Image string
	// AuthorID is a weak reference to a User; empty when none resolved at write time.
	AuthorID string
	// Author is populated by listing queries when AuthorID still resolves.
	Author         *AuthorSummary
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidRating reports whether r is within the star range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ImagePayload is decoded image content awaiting upload.
type ImagePayload struct {
	ContentType string
	Data        []byte
}
