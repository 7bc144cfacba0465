// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"github.com/coldwire/dialplan/app/dto"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SettingsHandlerInterface defines the contract for settings handlers.
type SettingsHandlerInterface interface {
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
}

// SettingsHandler handles capacity settings requests.
type SettingsHandler struct {
	flow      businessflow.SettingsFlow
	validator *validator.Validate
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(flow businessflow.SettingsFlow) *SettingsHandler {
	return &SettingsHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// GetSettings reads the account's capacity settings.
// @Summary Get capacity settings
// @Description Read the per-account settings, creating defaults on first access (authenticated)
// @Tags Dialer
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CapacitySettingsResponse} "Retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/settings [get]
func (h *SettingsHandler) GetSettings(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	res, err := h.flow.GetSettings(createRequestContext(c, "/api/v1/dialer/settings"), accountID)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to get settings", "SETTINGS_GET_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Settings retrieved", res)
}

// UpdateSettings applies a partial settings update.
// @Summary Update capacity settings
// @Description Update daily target, new-lead quota, window or bloat threshold (authenticated)
// @Tags Dialer
// @Accept json
// @Produce json
// @Param request body dto.UpdateCapacitySettingsRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.CapacitySettingsResponse} "Updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dialer/settings [put]
func (h *SettingsHandler) UpdateSettings(c fiber.Ctx) error {
	accountID, err := requireAccountID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateCapacitySettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	res, err := h.flow.UpdateSettings(createRequestContext(c, "/api/v1/dialer/settings"), accountID, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to update settings", "SETTINGS_UPDATE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Settings updated", res)
}
