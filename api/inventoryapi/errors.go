package inventoryapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/auth"
	"github.com/rio-inventory/inventory/storage/model"
)

// Error kinds used in error responses
const (
	ErrorKindValidation      = "validation_error"
	ErrorKindNotFound        = "not_found"
	ErrorKindConflict        = "conflict"
	ErrorKindUnauthenticated = "unauthenticated"
	ErrorKindUnavailable     = "service_unavailable"
	ErrorKindInternal        = "internal_error"
	ErrorKindInvalidRequest  = "invalid_request"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description"`
	Details          []string `json:"details,omitempty"`
}

// ErrorHandler is the fiber.ErrorHandler that maps errors to http responses
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, res := classify(err)
	switch status {
	case fiber.StatusUnauthorized:
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	case fiber.StatusInternalServerError:
		log.WithError(err).WithFields(
			log.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			},
		).Errorf("%+v", err)
	case fiber.StatusServiceUnavailable:
		log.WithError(err).Warn("identity provider unavailable")
	}
	return c.Status(status).JSON(res)
}

func classify(err error) (int, ErrorResponse) {
	var validation model.ValidationError
	var notFound model.NotFoundError
	var conflict model.ConflictError
	var exists model.AlreadyExistsError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, ErrorResponse{
			Error:            ErrorKindValidation,
			ErrorDescription: validation.Message,
			Details:          validation.Details,
		}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, ErrorResponse{
			Error:            ErrorKindNotFound,
			ErrorDescription: notFound.Error(),
		}
	case errors.As(err, &conflict):
		return fiber.StatusConflict, ErrorResponse{
			Error:            ErrorKindConflict,
			ErrorDescription: conflict.Error(),
		}
	case errors.As(err, &exists):
		return fiber.StatusConflict, ErrorResponse{
			Error:            ErrorKindConflict,
			ErrorDescription: exists.Error(),
		}
	case auth.IsUnauthenticated(err):
		return fiber.StatusUnauthorized, ErrorResponse{
			Error:            ErrorKindUnauthenticated,
			ErrorDescription: "Could not validate credentials",
		}
	case auth.IsServiceUnavailable(err):
		return fiber.StatusServiceUnavailable, ErrorResponse{
			Error:            ErrorKindUnavailable,
			ErrorDescription: "Signing keys are not available. Cannot validate token.",
		}
	case errors.As(err, &fiberErr):
		kind := ErrorKindInvalidRequest
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			kind = ErrorKindNotFound
		case fiber.StatusInternalServerError:
			kind = ErrorKindInternal
		}
		return fiberErr.Code, ErrorResponse{
			Error:            kind,
			ErrorDescription: fiberErr.Message,
		}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{
			Error:            ErrorKindInternal,
			ErrorDescription: "An unexpected error occurred",
		}
	}
}
