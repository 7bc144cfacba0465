// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/app/middleware"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/coldwire/dialplan/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must have at least " + err.Param() + " entries"
	case "max":
		return err.Field() + " must have at most " + err.Param() + " entries"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validationErrorResponse renders validator errors field by field.
func validationErrorResponse(c fiber.Ctx, err error) error {
	var validationErrors []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
	} else {
		validationErrors = append(validationErrors, err.Error())
	}
	return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

// businessErrorResponse maps BusinessError codes to HTTP statuses; anything
// unrecognized becomes a generic 500 without leaking internals.
func businessErrorResponse(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	if be, ok := err.(*businessflow.BusinessError); ok {
		switch be.Code {
		case "VALIDATION_ERROR":
			return errorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, be.Error())
		case "SCHEDULING_IN_PROGRESS":
			return errorResponse(c, fiber.StatusConflict, be.Message, be.Code, nil)
		case "AUTHENTICATION_REQUIRED":
			return errorResponse(c, fiber.StatusUnauthorized, be.Message, be.Code, nil)
		}
	}
	return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// requireAccountID pulls the authenticated account from locals.
func requireAccountID(c fiber.Ctx) (uint, error) {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok || accountID == 0 {
		return 0, errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	return accountID, nil
}

func createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	if accountID, ok := middleware.GetAccountIDFromContext(c); ok && accountID != 0 {
		ctx = context.WithValue(ctx, utils.AccountIDKey, accountID)
	}
	return ctx
}
