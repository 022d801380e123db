package handler

import (
	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

func toBookResponse(b *domain.Book) bookResponse {
	resp := bookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Caption:   b.Caption,
		Rating:    b.Rating,
		Image:     b.Image,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Author != nil {
		author := *b.Author
		resp.User = &author
	}
	return resp
}

func toBookResponses(books []*domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

func toListBooksResponse(r *ports.ListBooksResult) listBooksResponse {
	return listBooksResponse{
		Books:       toBookResponses(r.Items),
		CurrentPage: r.CurrentPage,
		TotalBooks:  r.TotalItems,
		TotalPages:  r.TotalPages,
	}
}
