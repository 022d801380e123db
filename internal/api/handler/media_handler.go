package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ImageSource streams images kept in the document store.
type ImageSource interface {
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
}

type MediaHandler struct {
	source ImageSource
}

func NewMediaHandler(source ImageSource) *MediaHandler {
	return &MediaHandler{source: source}
}

// Get handles GET /media/:id.
//
// @Summary  Fetch a stored cover image
// @Tags     media
// @Produce  image/png,image/jpeg,image/webp,image/gif
// @Param    id   path      string  true  "Image ID"
// @Success  200  {file}    binary
// @Failure  404  {object}  messageResponse
// @Router   /media/{id} [get]
func (h *MediaHandler) Get(c echo.Context) error {
	rc, contentType, err := h.source.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Stream(http.StatusOK, contentType, rc)
}
