// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/app/middleware"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CapacityHandlerInterface defines the contract for capacity handlers.
type CapacityHandlerInterface interface {
	GetCapacity(c fiber.Ctx) error
	ExportCapacity(c fiber.Ctx) error
	ScheduleContacts(c fiber.Ctx) error
	ListEligible(c fiber.Ctx) error
}

// CapacityHandler handles capacity status and scheduling requests.
type CapacityHandler struct {
	flow      businessflow.CapacityFlow
	validator *validator.Validate
}

// NewCapacityHandler creates a new capacity handler.
func NewCapacityHandler(flow businessflow.CapacityFlow) *CapacityHandler {
	return &CapacityHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// GetCapacity returns the aggregate capacity snapshot.
// @Summary Get capacity status
// @Description Per-day buckets, due-today counts, backlog and bloat pressure (authenticated)
// @Tags Dialer
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CapacityStatusResponse} "Retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/capacity [get]
func (h *CapacityHandler) GetCapacity(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	res, err := h.flow.GetCapacityStatus(createRequestContext(c, "/api/v1/dialer/capacity"), accountID)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to get capacity status", "CAPACITY_STATUS_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Capacity status retrieved", res)
}

// ExportCapacity streams the window buckets as an xlsx workbook.
// @Summary Export capacity buckets
// @Description Download the scheduling window as an xlsx workbook (authenticated)
// @Tags Dialer
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Workbook"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/capacity/export [get]
func (h *CapacityHandler) ExportCapacity(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	data, filename, err := h.flow.ExportCapacityWorkbook(createRequestContext(c, "/api/v1/dialer/capacity/export"), accountID)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to export capacity", "CAPACITY_EXPORT_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// ScheduleContacts distributes the requested contacts across future days.
// @Summary Schedule contacts
// @Description Assign next call dates to the given contacts under daily quotas (authenticated)
// @Tags Dialer
// @Accept json
// @Produce json
// @Param request body dto.ScheduleContactsRequest true "Contact IDs and optional quota overrides"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleContactsResponse} "Scheduled"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Scheduling already in progress"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/schedule [post]
func (h *CapacityHandler) ScheduleContacts(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.ScheduleContactsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.ScheduleContacts(createRequestContext(c, "/api/v1/dialer/schedule"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to schedule contacts", "SCHEDULE_FAILED")
	}

	middleware.ContactsScheduledTotal.Add(float64(res.Scheduled))
	middleware.ScheduleSkipsTotal.Add(float64(res.Skipped))
	return successResponse(c, fiber.StatusOK, "Contacts scheduled", res)
}

// ListEligible pages the schedulable backlog.
// @Summary List eligible unscheduled contacts
// @Description Stable-ordered page of contacts with no next call date (authenticated)
// @Tags Dialer
// @Produce json
// @Param include_overdue query bool false "Include overdue non-paused contacts"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.EligibleUnscheduledResponse} "Retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/eligible [get]
func (h *CapacityHandler) ListEligible(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.EligibleUnscheduledRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.GetEligibleUnscheduled(createRequestContext(c, "/api/v1/dialer/eligible"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to list eligible contacts", "ELIGIBLE_LIST_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Eligible contacts retrieved", res)
}
