package api

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/labstack/echo/v4"
	"net/http"
)

type JsonErrorModel struct {
	Message string `json:"message"`
}

func JsonError(c echo.Context, status int, content any) error {
	data := &JsonErrorModel{Message: fmt.Sprintf("%v", content)}
	return c.JSON(status, data)
}

// domainError maps the errors services return to a response. Anything not
// listed is an internal error and its text is not exposed.
func (s *Server) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrMissingHeight):
		return JsonError(c, http.StatusBadRequest, ledger.ErrMissingHeight)
	case errors.Is(err, bmi.ErrInvalidWeight):
		return JsonError(c, http.StatusBadRequest, bmi.ErrInvalidWeight)
	case errors.Is(err, bmi.ErrInvalidHeight):
		return JsonError(c, http.StatusBadRequest, bmi.ErrInvalidHeight)
	case errors.Is(err, user.ErrInvalidProfile):
		return JsonError(c, http.StatusBadRequest, err)
	case errors.Is(err, user.ErrInvalidPassword):
		return JsonError(c, http.StatusBadRequest, "password must be at most 72 bytes long")
	case errors.Is(err, user.ErrUserExists):
		return JsonError(c, http.StatusBadRequest, "user already exists")
	case errors.Is(err, user.ErrInvalidCredentials):
		return JsonError(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, ledger.ErrLedgerNotFound):
		return JsonError(c, http.StatusNotFound, ledger.ErrLedgerNotFound)
	case errors.Is(err, user.ErrUserNotFound):
		return JsonError(c, http.StatusNotFound, user.ErrUserNotFound)
	default:
		s.logger.Error("request failed", "path", c.Path(), "err", err)
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}
}
