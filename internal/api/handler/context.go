package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/paghive/paghive/internal/api/middleware"
	"github.com/paghive/paghive/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Auth middleware, or
// ErrUnauthorized when the request is anonymous.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return id, nil
}

// ctxCallerID is the verified caller's user ID, or "" for anonymous requests.
func ctxCallerID(c echo.Context) string {
	if id, ok := middleware.IdentityFrom(c); ok {
		return id.UserID
	}
	return ""
}
