package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the stable error code surfaced to API clients.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindAlreadyExists    Kind = "ALREADY_EXISTS"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindAlreadyEnrolled  Kind = "ALREADY_ENROLLED"
	KindAccessDenied     Kind = "ACCESS_DENIED"
	KindUpstream         Kind = "UPSTREAM_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

func AlreadyExists(format string, args ...interface{}) *Error {
	return New(KindAlreadyExists, format, args...)
}

func CapacityExceeded(format string, args ...interface{}) *Error {
	return New(KindCapacityExceeded, format, args...)
}

func AlreadyEnrolled(format string, args ...interface{}) *Error {
	return New(KindAlreadyEnrolled, format, args...)
}

func AccessDenied(format string, args ...interface{}) *Error {
	return New(KindAccessDenied, format, args...)
}

func Upstream(err error, format string, args ...interface{}) *Error {
	return Wrap(KindUpstream, err, format, args...)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

var statusByKind = map[Kind]int{
	KindValidation:       fiber.StatusBadRequest,
	KindNotFound:         fiber.StatusNotFound,
	KindInvalidState:     fiber.StatusConflict,
	KindAlreadyExists:    fiber.StatusConflict,
	KindCapacityExceeded: fiber.StatusConflict,
	KindAlreadyEnrolled:  fiber.StatusConflict,
	KindAccessDenied:     fiber.StatusForbidden,
	KindUpstream:         fiber.StatusBadGateway,
}

// HTTPStatus maps an error to the status code the boundary should answer with.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if code, ok := statusByKind[appErr.Kind]; ok {
			return code
		}
	}
	return fiber.StatusInternalServerError
}

// ToResponse renders err as the structured failure body used by all handlers.
func ToResponse(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return c.Status(HTTPStatus(err)).JSON(fiber.Map{
			"status": "error",
			"code":   string(appErr.Kind),
			"error":  appErr.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status": "error",
		"code":   "INTERNAL",
		"error":  "Internal server error",
	})
}
