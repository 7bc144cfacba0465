// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"strconv"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/app/middleware"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// BackfillHandlerInterface defines the contract for backfill handlers.
type BackfillHandlerInterface interface {
	Preview(c fiber.Ctx) error
	Run(c fiber.Ctx) error
}

// BackfillHandler handles backlog backfill requests.
type BackfillHandler struct {
	flow      businessflow.BackfillFlow
	validator *validator.Validate
}

// NewBackfillHandler creates a new backfill handler.
func NewBackfillHandler(flow businessflow.BackfillFlow) *BackfillHandler {
	return &BackfillHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Preview runs the backfill planner without persisting anything.
// @Summary Preview backfill
// @Description Dry-run distribution of the eligible backlog (authenticated)
// @Tags Dialer
// @Produce json
// @Param include_overdue query bool false "Include overdue non-paused contacts"
// @Success 200 {object} dto.APIResponse{data=dto.BackfillResponse} "Previewed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/backfill [get]
func (h *BackfillHandler) Preview(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	includeOverdue, _ := strconv.ParseBool(c.Query("include_overdue", "false"))
	req := dto.BackfillRequest{
		IncludeOverdue: includeOverdue,
		DryRun:         true,
	}

	res, err := h.flow.Run(createRequestContext(c, "/api/v1/dialer/backfill"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to preview backfill", "BACKFILL_PREVIEW_FAILED")
	}

	middleware.BackfillRunsTotal.WithLabelValues(res.State, "true").Inc()
	return successResponse(c, fiber.StatusOK, "Backfill previewed", res)
}

// Run executes a backfill over the eligible backlog.
// @Summary Run backfill
// @Description Distribute the eligible backlog across future business days (authenticated)
// @Tags Dialer
// @Accept json
// @Produce json
// @Param request body dto.BackfillRequest true "Run options"
// @Success 200 {object} dto.APIResponse{data=dto.BackfillResponse} "Finished"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Scheduling already in progress"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/backfill [post]
func (h *BackfillHandler) Run(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.BackfillRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.Run(createRequestContext(c, "/api/v1/dialer/backfill"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to run backfill", "BACKFILL_FAILED")
	}

	middleware.BackfillRunsTotal.WithLabelValues(res.State, strconv.FormatBool(res.DryRun)).Inc()
	if !res.DryRun {
		middleware.ContactsScheduledTotal.Add(float64(res.Scheduled))
		middleware.ScheduleSkipsTotal.Add(float64(res.Skipped))
	}
	return successResponse(c, fiber.StatusOK, "Backfill finished", res)
}
