package ports

import (
	"context"

	"github.com/paghive/paghive/internal/core/domain"
)

// CreateBookInput carries the data needed to create a recommendation.
type CreateBookInput struct {
	Title   string
	Caption string
	Rating  int
	// Image is a data URL: data:<mime>;base64,<payload>.
	Image          string
	AuthorEmail    string
	AuthorID       string // verified caller, used when AuthorEmail is empty
	IdempotencyKey string
}

// CreateBookResult is returned after creating a book.
type CreateBookResult struct {
	Book *domain.Book
	// AlreadyExisted is true when the Idempotency-Key matched an existing book.
	AlreadyExisted bool
}

// ListBooksInput carries the raw paging parameters of the feed endpoint.
// Non-positive values fall back to defaults.
type ListBooksInput struct {
	Page  int
	Limit int
}

// ListBooksResult is one page of the feed.
type ListBooksResult struct {
	Items       []*domain.Book
	CurrentPage int
	Limit       int
	TotalItems  int64
	TotalPages  int
}

// RemoveBookInput identifies the book to delete and, when ownership is
// enforced, the caller requesting it.
type RemoveBookInput struct {
	ID       string
	CallerID string
}

// BookService defines use-case operations for recommendations.
type BookService interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*CreateBookResult, error)
	ListBooks(ctx context.Context, input ListBooksInput) (*ListBooksResult, error)
	// UserBooks lists every book newest first; a non-empty email restricts the
	// result to that author.
	UserBooks(ctx context.Context, email string) ([]*domain.Book, error)
	RemoveBook(ctx context.Context, input RemoveBookInput) error
}
