package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/paghive/paghive/internal/core/domain"
)

// --- Request types ---

// flexibleInt accepts a JSON number or a numeric string. Mobile clients send
// the star rating as a string.
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = 0
			return nil
		}
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errors.New("rating must be a number")
	}
	if n != float64(int(n)) {
		return errors.New("rating must be a whole number")
	}
	*f = flexibleInt(n)
	return nil
}

type createBookRequest struct {
	Title   string      `json:"title"   validate:"max=200"`
	Caption string      `json:"caption" validate:"max=2000"`
	Rating  flexibleInt `json:"rating"  swaggertype:"integer"`
	Image   string      `json:"image"`
	Email   string      `json:"email"   validate:"omitempty,max=254"`
}

type listBooksQuery struct {
	Page  string `query:"page"`
	Limit string `query:"limit"`
}

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}

type bookResponse struct {
	ID        string                `json:"_id"`
	Title     string                `json:"title"`
	Caption   string                `json:"caption"`
	Rating    int                   `json:"rating"`
	Image     string                `json:"image"`
	User      *domain.AuthorSummary `json:"user"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

type createBookResponse struct {
	Message string       `json:"message"`
	Book    bookResponse `json:"book"`
}

type listBooksResponse struct {
	Books       []bookResponse `json:"books"`
	CurrentPage int            `json:"currentPage"`
	TotalBooks  int64          `json:"totalBooks"`
	TotalPages  int            `json:"totalPages"`
}
