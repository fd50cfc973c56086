package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// PassHandler serves the public pass catalog. These endpoints need no
// authentication; the responses are good candidates for the response
// cache because the catalog only changes on admin edits.
type PassHandler struct {
	Passes *repository.PassRepo
}

func NewPassHandler(passes *repository.PassRepo) *PassHandler {
	return &PassHandler{Passes: passes}
}

// List returns the full catalog grouped by category, provider and type.
func (h *PassHandler) List(c echo.Context) error {
	passes, err := h.Passes.List(c.Request().Context())
	if err != nil {
		c.Logger().Error("list passes: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch passes"})
	}
	return c.JSON(http.StatusOK, passes)
}

// GetByID returns a single pass.
func (h *PassHandler) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid pass id"})
	}
	p, err := h.Passes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Pass not found"})
		}
		c.Logger().Error("get pass: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch pass"})
	}
	return c.JSON(http.StatusOK, p)
}
