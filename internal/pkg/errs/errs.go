/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code, a human-readable message, and an HTTP status code for the
gateway surface. It also provides helpers to classify errors by taxonomy class.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"relayhub/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the human-readable error description.
	Message string

	// Status is the HTTP status code used when this error reaches the gateway.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d: %s", e.Code, e.Message)
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// The optional details parameter allows printf-style formatting arguments for the message
// template. If an unknown code is provided, it defaults to returning ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 && strings.Contains(customErr.Message, "%") {
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	}

	return &customErr
}

// CodeOf returns the business code carried by err, or 0 when err is not a CustomError.
func CodeOf(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return 0
}

// IsProtocol reports whether err belongs to the protocol/transport class (1xxx).
func IsProtocol(err error) bool {
	code := CodeOf(err)
	return code >= 1000 && code < 2000
}

// IsMalformedPacket reports whether err is a per-packet decode failure that
// leaves the frame stream itself intact. Frame-level failures are excluded:
// a bad length prefix means the stream can no longer be resynchronized.
func IsMalformedPacket(err error) bool {
	code := CodeOf(err)
	return code == ErrPacketDecode || code == ErrUnknownPacketTag
}

// IsDelivery reports whether err belongs to the delivery/liveness class (3xxx).
func IsDelivery(err error) bool {
	code := CodeOf(err)
	return code >= 3000 && code < 4000
}
