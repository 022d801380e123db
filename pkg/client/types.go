package client

import "time"

// Author is the summary embedded in a listed book. Nil when the author no
// longer resolves.
type Author struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

type Book struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	Rating    int       `json:"rating"`
	Image     string    `json:"image"`
	User      *Author   `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookPage is one page of the feed.
type BookPage struct {
	Books       []Book `json:"books"`
	CurrentPage int    `json:"currentPage"`
	TotalBooks  int64  `json:"totalBooks"`
	TotalPages  int    `json:"totalPages"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// Session is what sign-up and login return. Token is empty when the server
// does not issue its own tokens.
type Session struct {
	Message   string `json:"message"`
	User      User   `json:"user"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// NewBook is the payload of CreateBook. Image must be a data URL; see
// ImageDataURL.
type NewBook struct {
	Title   string `json:"title"`
	Caption string `json:"caption"`
	Rating  int    `json:"rating"`
	Image   string `json:"image"`
	Email   string `json:"email,omitempty"`

	// IdempotencyKey is sent as a header so retries do not post twice.
	IdempotencyKey string `json:"-"`
}

type message struct {
	Message string `json:"message"`
}
