package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/model"
	"github.com/transportpass/api/internal/repository"
)

// AdminPassHandler manages the pass catalog. Routes are mounted behind the
// admin role gate; edits here never touch existing bookings, only what
// future purchases and renewals cost.
type AdminPassHandler struct {
	Passes *repository.PassRepo
}

func NewAdminPassHandler(passes *repository.PassRepo) *AdminPassHandler {
	return &AdminPassHandler{Passes: passes}
}

type passRequest struct {
	Provider     string  `json:"provider"`
	Category     string  `json:"category"`
	Type         string  `json:"type"`
	Price        float64 `json:"price"`
	ValidityDays int     `json:"validity_days"`
	Coverage     *string `json:"coverage"`
	LogoURL      *string `json:"logo_url"`
}

func (r passRequest) validate() string {
	if strings.TrimSpace(r.Provider) == "" || strings.TrimSpace(r.Category) == "" ||
		strings.TrimSpace(r.Type) == "" {
		return "Missing required fields"
	}
	if r.Price < 0 {
		return "Price cannot be negative"
	}
	if r.ValidityDays <= 0 {
		return "Validity days must be positive"
	}
	return ""
}

func (r passRequest) toModel() model.Pass {
	return model.Pass{
		Provider:     strings.TrimSpace(r.Provider),
		Category:     strings.TrimSpace(r.Category),
		Type:         strings.TrimSpace(r.Type),
		Price:        r.Price,
		ValidityDays: r.ValidityDays,
		Coverage:     r.Coverage,
		LogoURL:      r.LogoURL,
	}
}

// List returns all passes ordered by id for the admin table.
func (h *AdminPassHandler) List(c echo.Context) error {
	passes, err := h.Passes.ListAdmin(c.Request().Context())
	if err != nil {
		c.Logger().Error("admin list passes: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch passes"})
	}
	return c.JSON(http.StatusOK, passes)
}

// Create adds a new pass to the catalog.
func (h *AdminPassHandler) Create(c echo.Context) error {
	var req passRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Passes.Create(c.Request().Context(), req.toModel())
	if err != nil {
		c.Logger().Error("admin create pass: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create pass"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Pass created successfully",
		"id":      id,
	})
}

// Update overwrites all editable fields of a pass. Existing bookings keep
// their dates; only future purchases and renewals see the new price.
func (h *AdminPassHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid pass id"})
	}
	var req passRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Passes.Update(c.Request().Context(), id, req.toModel()); err != nil {
		c.Logger().Error("admin update pass: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update pass"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Pass updated successfully"})
}

// Delete removes a pass from the catalog. Bookings that reference it stay
// in place and render with "N/A" pass fields.
func (h *AdminPassHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid pass id"})
	}
	if err := h.Passes.Delete(c.Request().Context(), id); err != nil {
		c.Logger().Error("admin delete pass: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete pass"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Pass deleted successfully"})
}
