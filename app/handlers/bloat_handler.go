// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/app/middleware"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// BloatHandlerInterface defines the contract for bloat-fix handlers.
type BloatHandlerInterface interface {
	GetRemovalCandidates(c fiber.Ctx) error
	ApplyBloatFix(c fiber.Ctx) error
}

// BloatHandler handles backlog pressure requests.
type BloatHandler struct {
	flow      businessflow.BloatFlow
	validator *validator.Validate
}

// NewBloatHandler creates a new bloat handler.
func NewBloatHandler(flow businessflow.BloatFlow) *BloatHandler {
	return &BloatHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// GetRemovalCandidates lists ranked deprioritization candidates.
// @Summary List removal candidates
// @Description Bloat status plus contacts ranked most defer-suitable first (authenticated)
// @Tags Dialer
// @Produce json
// @Param exclude_aaa query bool false "Exclude top-tier contacts"
// @Param limit query int false "Maximum candidates"
// @Success 200 {object} dto.APIResponse{data=dto.RemovalCandidatesResponse} "Retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/bloat-fix [get]
func (h *BloatHandler) GetRemovalCandidates(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.RemovalCandidatesRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.GetRemovalCandidates(createRequestContext(c, "/api/v1/dialer/bloat-fix"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to list removal candidates", "REMOVAL_CANDIDATES_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Removal candidates retrieved", res)
}

// ApplyBloatFix applies explicit or auto-selected corrective actions.
// @Summary Apply bloat fix
// @Description Apply pause/throttle actions to candidates, or auto-fix the detected overage (authenticated)
// @Tags Dialer
// @Accept json
// @Produce json
// @Param request body dto.ApplyBloatFixRequest true "Candidates or auto_fix flag"
// @Success 200 {object} dto.APIResponse{data=dto.ApplyBloatFixResponse} "Applied"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/bloat-fix [post]
func (h *BloatHandler) ApplyBloatFix(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.ApplyBloatFixRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.ApplyBloatFix(createRequestContext(c, "/api/v1/dialer/bloat-fix"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to apply bloat fix", "BLOAT_FIX_FAILED")
	}

	for action, n := range res.Actions {
		middleware.BloatActionsAppliedTotal.WithLabelValues(action).Add(float64(n))
	}
	return successResponse(c, fiber.StatusOK, "Bloat fix applied", res)
}
