package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/middleware"
	"github.com/iliyamo/cinereview/internal/service"
)

// UserHandler serves the account endpoints under /user.
type UserHandler struct {
	base
	Accounts *service.Accounts
}

// NewUserHandler wires the account endpoints.
func NewUserHandler(a *service.Accounts, log logrus.FieldLogger, timeout time.Duration) *UserHandler {
	return &UserHandler{base: newBase(log, timeout), Accounts: a}
}

// Signup handles POST /user/signup.
func (h *UserHandler) Signup(c echo.Context) error {
	var req service.SignupInput
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, "signup", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	created, err := h.Accounts.Signup(ctx, req)
	if err != nil {
		return h.fail(c, "signup", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "User created successfully",
		"createdUser": created,
	})
}

// Login handles POST /user/login and returns the identity with a session
// token.
func (h *UserHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, "login", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	s, err := h.Accounts.Login(ctx, req)
	if err != nil {
		return h.fail(c, "login", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":      s.User,
		"jwtToken":  s.Token.Token,
		"expiresAt": s.Token.Exp,
	})
}

// Verify handles GET /user/verify by echoing the token identity.
func (h *UserHandler) Verify(c echo.Context) error {
	id, err := h.caller(c)
	if err != nil {
		return h.fail(c, "verify", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User is logged in.", "user": id})
}

// Admin handles GET /user/admin; the admin gate has already run.
func (h *UserHandler) Admin(c echo.Context) error {
	id, err := h.caller(c)
	if err != nil {
		return h.fail(c, "admin", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin is logged in and verified.", "user": id})
}

// Profile handles GET /user/profile with the caller's lists resolved from
// the store rather than the token.
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := h.caller(c)
	if err != nil {
		return h.fail(c, "profile", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Accounts.Profile(ctx, id.ID)
	if err != nil {
		return h.fail(c, "profile", err)
	}
	return c.JSON(http.StatusOK, p)
}

// Logout handles POST /user/logout by revoking the presented token.
func (h *UserHandler) Logout(c echo.Context) error {
	s, ok := middleware.SessionFrom(c.Request().Context())
	if !ok {
		return message(c, http.StatusUnauthorized, middleware.MsgInvalidToken)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Accounts.Logout(ctx, s.ID, s.Exp); err != nil {
		return h.fail(c, "logout", err)
	}
	return message(c, http.StatusOK, "User logged out.")
}
