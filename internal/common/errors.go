package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("concurrent modification")
	ErrExtraction   = errors.New("extraction failed")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Error codes carried by AppError.
const (
	CodeValidationInput = "VALIDATION_INPUT"
	CodeInvalidState    = "INVALID_STATE"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeConfig          = "CONFIG_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// InvalidInputf builds a ValidationInputError: the request is rejected before any work is queued.
func InvalidInputf(format string, args ...any) error {
	return NewAppError(CodeValidationInput, fmt.Sprintf(format, args...), ErrInvalidInput)
}

// InvalidStatef builds an InvalidStateError for a transition not legal from the current status.
func InvalidStatef(format string, args ...any) error {
	return NewAppError(CodeInvalidState, fmt.Sprintf(format, args...), ErrInvalidState)
}

// NotFoundf builds a NotFoundError for an unknown job or profile id.
func NotFoundf(format string, args ...any) error {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf reports a lost optimistic-concurrency race.
func Conflictf(format string, args ...any) error {
	return NewAppError(CodeConflict, fmt.Sprintf(format, args...), ErrConflict)
}

// StatusCoder is implemented by errors that know their own gRPC code.
type StatusCoder interface {
	GRPCCode() codes.Code
}

// ToStatus converts a domain error into a gRPC status error at the transport boundary.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var sc StatusCoder
	switch {
	case errors.As(err, &sc):
		return status.Error(sc.GRPCCode(), err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, ErrExtraction):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
