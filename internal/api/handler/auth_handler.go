package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/paghive/paghive/internal/api/metrics"
	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp creates a new user account.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Name and email"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.SignUp(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		return err
	}

	metrics.SessionsTotal.WithLabelValues("signup").Inc()
	return c.JSON(http.StatusCreated, toAuthResponse("User created successfully", result))
}

// LogIn matches an existing account by email and name. There is no password.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Name and email"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /auth/login [post]
func (h *AuthHandler) LogIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("body", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.LogIn(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
		case errors.Is(err, domain.ErrNameMismatch):
			metrics.AuthFailuresTotal.WithLabelValues("name_mismatch").Inc()
		}
		return err
	}

	metrics.SessionsTotal.WithLabelValues("login").Inc()
	return c.JSON(http.StatusOK, toAuthResponse("Login successful", result))
}

// LogOut revokes the bearer token used for this request.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) LogOut(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.authService.LogOut(c.Request().Context(), id); err != nil {
		return err
	}

	metrics.SessionsTotal.WithLabelValues("logout").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me returns the account behind the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  messageResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toAuthResponse(message string, r *ports.AuthResult) authResponse {
	resp := authResponse{
		Message: message,
		User:    toUserResponse(r.User),
		Token:   r.Token,
	}
	if !r.ExpiresAt.IsZero() {
		resp.ExpiresAt = r.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}
