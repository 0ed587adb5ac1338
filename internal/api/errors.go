package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/athro-ai/athro/internal/db"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Field  string   `json:"field,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// statusOf maps an error onto its HTTP status and response body.
func statusOf(err error) (int, errorResponse) {
	var (
		missing  *study.MissingFieldError
		invalid  *study.ValidationError
		notPers  *study.NotPersistableError
		persist  *study.PersistenceError
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, errorResponse{Error: fiberErr.Message}
	case errors.As(err, &missing):
		return fiber.StatusBadRequest, errorResponse{Error: missing.Error(), Fields: missing.Fields}
	case errors.As(err, &invalid):
		return fiber.StatusBadRequest, errorResponse{Error: invalid.Error(), Field: invalid.Field}
	case errors.As(err, &notPers):
		return fiber.StatusConflict, errorResponse{Error: notPers.Error()}
	case errors.Is(err, db.ErrNotFound), errors.Is(err, planner.ErrEventNotFound):
		return fiber.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.As(err, &persist):
		return fiber.StatusBadGateway, errorResponse{Error: "storage unavailable"}
	}
	return fiber.StatusInternalServerError, errorResponse{Error: "internal error"}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code, body := statusOf(err)
	return c.Status(code).JSON(body)
}
