package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 2
	maxLimit     = 100

	missingFieldsMessage = "Please provide title, caption, rating, and image"
)

// BookOption configures a BookService.
type BookOption func(*BookService)

// WithOwnershipCheck restricts deletion to the book's author.
func WithOwnershipCheck() BookOption {
	return func(s *BookService) { s.enforceOwnership = true }
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) BookOption {
	return func(s *BookService) { s.now = now }
}

type BookService struct {
	books   ports.BookRepository
	users   ports.UserRepository
	media   ports.MediaStore
	cleaner ports.ImageCleaner
	logger  zerolog.Logger

	enforceOwnership bool
	now              func() time.Time
}

func NewBookService(
	books ports.BookRepository,
	users ports.UserRepository,
	media ports.MediaStore,
	cleaner ports.ImageCleaner,
	logger zerolog.Logger,
	opts ...BookOption,
) *BookService {
	s := &BookService{
		books:   books,
		users:   users,
		media:   media,
		cleaner: cleaner,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBook validates the input, uploads the image and persists the book.
// Nothing is persisted when the upload fails. If an idempotency key is
// provided and already seen, the stored book is returned without side effects.
func (s *BookService) CreateBook(ctx context.Context, in ports.CreateBookInput) (*ports.CreateBookResult, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	img, err := decodeDataURL(in.Image)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.books.FindByIdempotencyKey(ctx, in.IdempotencyKey)
		switch {
		case err == nil && existing != nil:
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("book_id", existing.ID).Msg("idempotent replay")
			return &ports.CreateBookResult{Book: existing, AlreadyExisted: true}, nil
		case err != nil && !errors.Is(err, domain.ErrBookNotFound):
			// the unique index still rejects a duplicate insert below
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency lookup failed")
		}
	}

	authorID, author := s.resolveAuthor(ctx, in)

	imageURL, err := s.media.Upload(ctx, img)
	if err != nil {
		s.logger.Error().Err(err).Msg("image upload failed")
		return nil, fmt.Errorf("upload image: %w: %w", domain.ErrUpstream, err)
	}

	now := s.now().UTC()
	book := &domain.Book{
		Title:          strings.TrimSpace(in.Title),
		Caption:        strings.TrimSpace(in.Caption),
		Rating:         in.Rating,
		Image:          imageURL,
		AuthorID:       authorID,
		Author:         author,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.books.Create(ctx, book); err != nil {
		if publicID, ok := s.media.PublicID(imageURL); ok {
			s.cleaner.Schedule(publicID)
		}
		if errors.Is(err, domain.ErrDuplicateBook) {
			return s.replayAfterConflict(ctx, in.IdempotencyKey)
		}
		s.logger.Error().Err(err).Msg("failed to create book")
		return nil, fmt.Errorf("create book: %w: %w", domain.ErrUpstream, err)
	}

	s.logger.Info().Str("book_id", book.ID).Str("author_id", authorID).Msg("book created")
	return &ports.CreateBookResult{Book: book}, nil
}

// replayAfterConflict answers a create that lost the insert race to another
// request carrying the same idempotency key.
func (s *BookService) replayAfterConflict(ctx context.Context, key string) (*ports.CreateBookResult, error) {
	existing, err := s.books.FindByIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("idempotency_key", key).Msg("replay lookup after conflict failed")
		return nil, fmt.Errorf("find book: %w: %w", domain.ErrUpstream, err)
	}
	s.logger.Info().Str("idempotency_key", key).Str("book_id", existing.ID).Msg("idempotent replay after conflict")
	return &ports.CreateBookResult{Book: existing, AlreadyExisted: true}, nil
}

func validateCreate(in ports.CreateBookInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return domain.Invalid("title", missingFieldsMessage)
	case strings.TrimSpace(in.Caption) == "":
		return domain.Invalid("caption", missingFieldsMessage)
	case in.Rating == 0:
		return domain.Invalid("rating", missingFieldsMessage)
	case !domain.ValidRating(in.Rating):
		return domain.Invalid("rating", fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	case strings.TrimSpace(in.Image) == "":
		return domain.Invalid("image", missingFieldsMessage)
	}
	return nil
}

// resolveAuthor never fails: an unknown email or a lookup error yields no
// author. Without an email the verified caller, if any, is the author.
func (s *BookService) resolveAuthor(ctx context.Context, in ports.CreateBookInput) (string, *domain.AuthorSummary) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case in.AuthorEmail != "":
		user, err = s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.AuthorEmail)))
	case in.AuthorID != "":
		user, err = s.users.FindByID(ctx, in.AuthorID)
		if err != nil {
			// the caller was verified moments ago; keep the reference
			return in.AuthorID, nil
		}
	default:
		return "", nil
	}
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Err(err).Str("email", in.AuthorEmail).Msg("author lookup failed, storing book without author")
		}
		return "", nil
	}
	return user.ID, user.Summary()
}

// ListBooks returns one page of the feed, newest first.
func (s *BookService) ListBooks(ctx context.Context, in ports.ListBooksInput) (*ports.ListBooksResult, error) {
	page, limit := normalizePaging(in.Page, in.Limit)

	items, total, err := s.books.List(ctx, ports.ListBooksFilter{
		Skip:  int64(page-1) * int64(limit),
		Limit: int64(limit),
	})
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Int("limit", limit).Msg("failed to list books")
		return nil, fmt.Errorf("list books: %w: %w", domain.ErrUpstream, err)
	}
	if items == nil {
		items = []*domain.Book{}
	}

	return &ports.ListBooksResult{
		Items:       items,
		CurrentPage: page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages(total, limit),
	}, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *BookService) UserBooks(ctx context.Context, email string) ([]*domain.Book, error) {
	var filter ports.ListBooksFilter
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		user, err := s.users.FindByEmail(ctx, email)
		if errors.Is(err, domain.ErrUserNotFound) {
			return []*domain.Book{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find author: %w: %w", domain.ErrUpstream, err)
		}
		filter.AuthorID = user.ID
	}

	items, _, err := s.books.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list user books")
		return nil, fmt.Errorf("list user books: %w: %w", domain.ErrUpstream, err)
	}
	if items == nil {
		items = []*domain.Book{}
	}
	return items, nil
}

// RemoveBook deletes the book and schedules removal of its hosted image.
// Image cleanup is best effort and never affects the result.
func (s *BookService) RemoveBook(ctx context.Context, in ports.RemoveBookInput) error {
	book, err := s.books.FindByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return err
		}
		return fmt.Errorf("find book: %w: %w", domain.ErrUpstream, err)
	}

	if s.enforceOwnership {
		if in.CallerID == "" {
			return domain.ErrUnauthorized
		}
		if book.AuthorID != in.CallerID {
			return domain.ErrForbidden
		}
	}

	if err := s.books.Delete(ctx, book.ID); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("book_id", book.ID).Msg("failed to delete book")
		return fmt.Errorf("delete book: %w: %w", domain.ErrUpstream, err)
	}

	if publicID, ok := s.media.PublicID(book.Image); ok {
		s.cleaner.Schedule(publicID)
	}

	s.logger.Info().Str("book_id", book.ID).Msg("book deleted")
	return nil
}
