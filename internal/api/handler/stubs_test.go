package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paghive/paghive/internal/api/middleware"
	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub services
// ---------------------------------------------------------------------------

type stubBookService struct {
	createFn    func(ctx context.Context, in ports.CreateBookInput) (*ports.CreateBookResult, error)
	listFn      func(ctx context.Context, in ports.ListBooksInput) (*ports.ListBooksResult, error)
	userBooksFn func(ctx context.Context, email string) ([]*domain.Book, error)
	removeFn    func(ctx context.Context, in ports.RemoveBookInput) error
}

func (s *stubBookService) CreateBook(ctx context.Context, in ports.CreateBookInput) (*ports.CreateBookResult, error) {
	return s.createFn(ctx, in)
}

func (s *stubBookService) ListBooks(ctx context.Context, in ports.ListBooksInput) (*ports.ListBooksResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubBookService) UserBooks(ctx context.Context, email string) ([]*domain.Book, error) {
	return s.userBooksFn(ctx, email)
}

func (s *stubBookService) RemoveBook(ctx context.Context, in ports.RemoveBookInput) error {
	return s.removeFn(ctx, in)
}

type stubAuthService struct {
	signUpFn func(ctx context.Context, name, email string) (*ports.AuthResult, error)
	logInFn  func(ctx context.Context, name, email string) (*ports.AuthResult, error)
	logOutFn func(ctx context.Context, id *domain.Identity) error
	meFn     func(ctx context.Context, id *domain.Identity) (*domain.User, error)
}

func (s *stubAuthService) SignUp(ctx context.Context, name, email string) (*ports.AuthResult, error) {
	return s.signUpFn(ctx, name, email)
}

func (s *stubAuthService) LogIn(ctx context.Context, name, email string) (*ports.AuthResult, error) {
	return s.logInFn(ctx, name, email)
}

func (s *stubAuthService) LogOut(ctx context.Context, id *domain.Identity) error {
	return s.logOutFn(ctx, id)
}

func (s *stubAuthService) Me(ctx context.Context, id *domain.Identity) (*domain.User, error) {
	return s.meFn(ctx, id)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubImageSource struct {
	content     string
	contentType string
	err         error
}

func (s stubImageSource) Open(_ context.Context, _ string) (io.ReadCloser, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(strings.NewReader(s.content)), s.contentType, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withIdentity(c echo.Context, id *domain.Identity) {
	c.Set(middleware.IdentityKey, id)
}
