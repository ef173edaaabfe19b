package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"marketplace/internal/apperrors"
	"marketplace/pkg/logger"
)

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination derives the page flags from a total match count.
func NewPagination(page, limit int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

func respondMessage(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{Success: true, Message: message, Data: data})
}

// respondValidationError converts validator failures into a per-field
// error map.
func respondValidationError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Validation failed",
			Errors:  errorMessages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(Response{
		Success: false,
		Message: "Validation failed",
		Error:   err.Error(),
	})
}

// respondError maps an error onto its HTTP status. Business, auth,
// not-found and conflict errors carry their own message; anything else is
// logged in full and reported with a generic message so internals never
// leak to callers.
func respondError(c *fiber.Ctx, err error, fallbackMessage string) error {
	switch {
	case apperrors.IsBusiness(err):
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(Response{
			Success: false,
			Message: "Invalid credentials",
		})
	case errors.Is(err, apperrors.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(Response{
			Success: false,
			Message: "Access denied",
		})
	case errors.Is(err, apperrors.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(Response{
			Success: false,
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(Response{
			Success: false,
			Message: err.Error(),
		})
	default:
		logger.Log.Error(fallbackMessage, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(Response{
			Success: false,
			Message: fallbackMessage,
		})
	}
}
