package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/hsetrack/hseflow/pkg/engine"
	"github.com/moogar0880/problems"
)

// problem writes an RFC 7807 document with the given status.
func problem(c fiber.Ctx, status int, kind, detail string) error {
	doc := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(doc)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	doc := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(doc)
}

// handleEngineError maps engine errors to problem responses.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case engine.IsNotFound(err):
		return notFound(c, "Execution not found")
	case engine.IsConflict(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, engine.ErrEngineShutdown):
		return problem(c, fiber.StatusServiceUnavailable, "unavailable", "engine is shutting down")
	default:
		return internalError(c, err)
	}
}
