package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ListBooks fetches one page of the feed, newest first.
func (c *Client) ListBooks(ctx context.Context, page, limit int) (*BookPage, error) {
	var out BookPage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/books", query: pageQuery(page, limit)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserBooks lists every book, optionally only those by email.
func (c *Client) UserBooks(ctx context.Context, email string) ([]Book, error) {
	var q url.Values
	if email != "" {
		q = url.Values{"email": {email}}
	}
	var out []Book
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/books/user", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBook posts a recommendation. created is false when the server
// replayed an earlier request with the same idempotency key.
func (c *Client) CreateBook(ctx context.Context, in NewBook) (book *Book, created bool, err error) {
	var headers map[string]string
	if in.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": in.IdempotencyKey}
	}

	var out struct {
		Message string `json:"message"`
		Book    Book   `json:"book"`
	}
	status, err := c.do(ctx, request{method: http.MethodPost, path: "/books", body: in, headers: headers}, &out)
	if err != nil {
		return nil, false, err
	}
	return &out.Book, status == http.StatusCreated, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/books/" + id}, &message{})
	return err
}

// ImageDataURL encodes raw image bytes as the data URL CreateBook expects.
// Non-image content is rejected.
func ImageDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("client: empty image")
	}
	mime := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mime.String(), ";")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("client: %s is not an image", contentType)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
