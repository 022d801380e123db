package ports

import (
	"context"

	"github.com/paghive/paghive/internal/core/domain"
)

// ListBooksFilter carries the query parameters for listing books.
type ListBooksFilter struct {
	AuthorID string // optional: only books referencing this user
	Skip     int64
	Limit    int64 // 0 = no limit
}

// BookRepository defines persistence operations for books.
type BookRepository interface {
	// Create inserts b and assigns its ID.
	Create(ctx context.Context, b *domain.Book) error
	FindByID(ctx context.Context, id string) (*domain.Book, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Book, error)
	// List returns books ordered by createdAt desc (ties by ID desc) with the
	// author summary joined, plus the total count matching filter.
	List(ctx context.Context, filter ListBooksFilter) ([]*domain.Book, int64, error)
	Delete(ctx context.Context, id string) error
}
