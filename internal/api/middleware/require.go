package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/paghive/paghive/internal/api/metrics"
)

// RequireIdentity rejects requests that Auth did not attach an identity to.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); !ok {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			return next(c)
		}
	}
}
