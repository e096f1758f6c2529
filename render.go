package auth

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Envelope is the uniform response shape of the API
type Envelope struct {
	Data       any    `json:"data,omitempty"`
	Error      *Fault `json:"error,omitempty"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp"`
}

// Fault is the outward error shape. Message and TextCode are the only fields
// that ever cross the boundary; internal detail stays in the logs.
type Fault struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code,omitempty"`
}

// RespondData writes the success envelope
func RespondData(ctx router.Context, status int, data any) error {
	return ctx.JSON(status, Envelope{
		Data:       data,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// RespondError maps a rich error to its HTTP status and writes the error
// envelope. Unknown errors collapse to a generic 500 with no detail.
func RespondError(ctx router.Context, err error) error {
	status := router.StatusInternalServerError
	fault := &Fault{Message: "internal server error"}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		status = statusForCategory(rich.Category)
		if status != router.StatusInternalServerError {
			fault.Message = rich.Message
			fault.TextCode = rich.TextCode
		}
	}

	return ctx.JSON(status, Envelope{
		Error:      fault,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryRateLimit:
		return router.StatusTooManyRequests
	default:
		return router.StatusInternalServerError
	}
}
