// Package web provides HTTP handlers and REST API endpoints for the execution engine.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/registry"
)

const defaultCleanupDays = 30

// Engine is the part of the execution engine exposed over HTTP.
type Engine interface {
	ValidateAction(action models.WorkflowAction) models.WorkflowValidation
	ExecuteAction(ctx context.Context, action models.WorkflowAction, scheduledAt *time.Time) (*models.ExecutionRecord, error)
	GetExecution(id string) (*models.ExecutionRecord, bool)
	GetExecutions(filter *models.ExecutionFilter) []*models.ExecutionRecord
	GetStats() models.ExecutionStats
	Cancel(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error
	Cleanup(olderThanDays int) int
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	engine    Engine
	validator *validator.Validate
	registry  *registry.Registry
	logger    *slog.Logger
}

func NewAPIHandlers(
	engine Engine,
	validator *validator.Validate,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		validator: validator,
		registry:  registry,
		logger:    logger,
	}
}

// Register mounts every endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	a := router.Group("/actions")
	a.Get("/schemas", h.GetSchemas)
	a.Post("/validate", h.ValidateAction)

	e := router.Group("/executions")
	e.Get("/", h.GetExecutions)
	e.Post("/", h.ExecuteAction)
	e.Get("/:id", h.GetExecution)
	e.Post("/:id/cancel", h.CancelExecution)
	e.Post("/:id/retry", h.RetryExecution)

	router.Get("/stats", h.GetStats)
	router.Post("/maintenance/cleanup", h.Cleanup)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetSchemas(c fiber.Ctx) error {
	return c.JSON(h.registry.Schemas())
}

// ValidateAction runs the pre-flight checks without creating an execution. Payload
// schema violations are reported as validation errors next to the domain checks.
func (h *APIHandlers) ValidateAction(c fiber.Ctx) error {
	var req ValidateActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.engine.ValidateAction(*req.Action)

	violations, err := h.checkPayload(*req.Action)
	if err != nil {
		return internalError(c, err)
	}

	for _, violation := range violations {
		result.AddError("Schema: " + violation)
	}

	return c.JSON(result)
}

// ExecuteAction submits an action. Invalid actions are accepted and come back as FAILED records.
func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	var req ExecuteActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.engine.ExecuteAction(c.Context(), *req.Action, req.ScheduledAt)
	if err != nil {
		return handleEngineError(c, err)
	}

	h.logger.InfoContext(c.Context(), "Action submitted", "execution_id", record.ID, "status", record.Status)

	return c.Status(fiber.StatusAccepted).JSON(record)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	query, err := h.parseListExecutionsQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	records := h.engine.GetExecutions(query.Filter())
	total := len(records)

	if query.Limit > 0 && len(records) > query.Limit {
		records = records[:query.Limit]
	}

	return c.JSON(ListExecutionsResponse{Executions: records, TotalCount: total})
}

// parseListExecutionsQuery parses and validates query parameters for listing executions.
func (h *APIHandlers) parseListExecutionsQuery(c fiber.Ctx) (*ListExecutionsQuery, error) {
	query := &ListExecutionsQuery{
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Assignee:  c.Query("assignee"),
		ProjectID: c.Query("projectId"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		query.Limit = limit
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, err
		}

		query.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, err
		}

		query.To = &to
	}

	if err := h.validator.Struct(query); err != nil {
		return nil, err
	}

	return query, nil
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	record, ok := h.engine.GetExecution(c.Params("id"))
	if !ok {
		return notFound(c, "Execution not found")
	}

	return c.JSON(record)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.engine.Cancel(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	record, _ := h.engine.GetExecution(id)

	return c.JSON(record)
}

func (h *APIHandlers) RetryExecution(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.engine.Retry(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	record, _ := h.engine.GetExecution(id)

	return c.Status(fiber.StatusAccepted).JSON(record)
}

func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	return c.JSON(h.engine.GetStats())
}

func (h *APIHandlers) Cleanup(c fiber.Ctx) error {
	days := defaultCleanupDays

	if daysStr := c.Query("olderThanDays"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 0 {
			return badRequest(c, "olderThanDays must be a non-negative integer")
		}

		days = parsed
	}

	removed := h.engine.Cleanup(days)

	h.logger.InfoContext(c.Context(), "History cleaned up", "removed", removed, "older_than_days", days)

	return c.JSON(CleanupResponse{Removed: removed, OlderThanDays: days})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "HSE Flow API is healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	err := h.engine.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "HSE Flow API is unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"executors":  h.registry.Types(),
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// checkPayload validates the populated variant against the schema of the action type.
// Unknown types and missing variants are left to the engine's validation.
func (h *APIHandlers) checkPayload(action models.WorkflowAction) ([]string, error) {
	variant := variantPayload(action)
	if variant == nil {
		return nil, nil
	}

	if _, ok := h.registry.Get(action.Type); !ok {
		return nil, nil
	}

	payload, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}

	return h.registry.CheckPayload(action.Type, payload)
}

func variantPayload(action models.WorkflowAction) any {
	switch {
	case action.Type == models.ActionTypeEmail && action.Email != nil:
		return action.Email
	case action.Type == models.ActionTypeMeeting && action.Meeting != nil:
		return action.Meeting
	case action.Type == models.ActionTypeTask && action.Task != nil:
		return action.Task
	case action.Type == models.ActionTypeDocument && action.Document != nil:
		return action.Document
	case action.Type == models.ActionTypeNotification && action.Notification != nil:
		return action.Notification
	default:
		return nil
	}
}
