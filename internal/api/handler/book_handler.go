package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paghive/paghive/internal/api/metrics"
	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

// BookHandler handles HTTP requests for book recommendations.
type BookHandler struct {
	service ports.BookService
}

func NewBookHandler(service ports.BookService) *BookHandler {
	return &BookHandler{service: service}
}

// Create handles POST /books.
//
// @Summary      Create a book recommendation
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string             false  "Replays return the original book instead of creating a duplicate"
// @Param        body             body      createBookRequest  true   "Book details; image is a base64 data URL"
// @Success      201              {object}  createBookResponse
// @Success      200              {object}  createBookResponse  "Idempotent replay"
// @Failure      400              {object}  messageResponse
// @Failure      401              {object}  messageResponse
// @Failure      500              {object}  messageResponse
// @Router       /books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.CreateBook(c.Request().Context(), ports.CreateBookInput{
		Title:          req.Title,
		Caption:        req.Caption,
		Rating:         int(req.Rating),
		Image:          req.Image,
		AuthorEmail:    req.Email,
		AuthorID:       ctxCallerID(c),
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")),
	})
	if err != nil {
		return err
	}

	if result.AlreadyExisted {
		metrics.BooksCreatedTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, createBookResponse{
			Message: "Book already created",
			Book:    toBookResponse(result.Book),
		})
	}

	metrics.BooksCreatedTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, createBookResponse{
		Message: "Book created successfully",
		Book:    toBookResponse(result.Book),
	})
}

// List handles GET /books.
//
// @Summary      List books, newest first
// @Tags         books
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 2, max 100)"
// @Success      200    {object}  listBooksResponse
// @Failure      500    {object}  messageResponse
// @Router       /books [get]
func (h *BookHandler) List(c echo.Context) error {
	var q listBooksQuery
	_ = (&echo.DefaultBinder{}).BindQueryParams(c, &q)

	result, err := h.service.ListBooks(c.Request().Context(), ports.ListBooksInput{
		Page:  lenientInt(q.Page),
		Limit: lenientInt(q.Limit),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListBooksResponse(result))
}

// UserBooks handles GET /books/user.
//
// @Summary      List every book, newest first
// @Tags         books
// @Produce      json
// @Param        email  query     string  false  "Only books by this author"
// @Success      200    {array}   bookResponse
// @Failure      500    {object}  messageResponse
// @Router       /books/user [get]
func (h *BookHandler) UserBooks(c echo.Context) error {
	books, err := h.service.UserBooks(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookResponses(books))
}

// Delete handles DELETE /books/:id.
//
// @Summary      Delete a book and its hosted image
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /books/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	err := h.service.RemoveBook(c.Request().Context(), ports.RemoveBookInput{
		ID:       c.Param("id"),
		CallerID: ctxCallerID(c),
	})
	if err != nil {
		return err
	}

	metrics.BooksDeletedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Book deleted successfully"})
}

// lenientInt parses a query value; anything unparsable is 0 so the service
// applies its default.
func lenientInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
