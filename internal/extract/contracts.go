package extract

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Extractor turns raw document bytes into biodata fields.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (Result, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context, doc Document) (Result, error)

func (f ExtractorFunc) Extract(ctx context.Context, doc Document) (Result, error) {
	return f(ctx, doc)
}

// Document is the input to one extraction call.
type Document struct {
	Content  []byte
	MIMEHint string
	Filename string
}

// Result is a successful extraction.
type Result struct {
	Fields     entity.Fields
	Confidence float64
	RawText    string
	Model      string
}

// Kind classifies an extraction failure.
type Kind string

const (
	KindTimeout         Kind = "timeout"
	KindInvalidDocument Kind = "invalid_document"
	KindProviderError   Kind = "provider_error"
)

// Error is the failure type of every Extractor in this package.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{common.ErrExtraction, e.Err}
}

// GRPCCode implements common.StatusCoder.
func (e *Error) GRPCCode() codes.Code {
	switch e.Kind {
	case KindTimeout:
		return codes.DeadlineExceeded
	case KindInvalidDocument:
		return codes.InvalidArgument
	default:
		return codes.Unavailable
	}
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify converts any error returned by a provider into an *Error,
// mapping context deadlines to KindTimeout.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var xe *Error
	if errors.As(err, &xe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindProviderError, Err: err}
}

// KindOf returns the failure kind of err, or "" if err is not an extraction failure.
func KindOf(err error) Kind {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Kind
	}
	return ""
}
