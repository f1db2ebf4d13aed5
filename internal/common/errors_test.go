package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) GRPCCode() codes.Code { return codes.ResourceExhausted }

func TestToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", NotFoundf("profile %s", "x"), codes.NotFound},
		{"invalid input", InvalidInputf("too many files"), codes.InvalidArgument},
		{"invalid state", fmt.Errorf("approve: %w", InvalidStatef("already approved")), codes.FailedPrecondition},
		{"conflict", Conflictf("version mismatch"), codes.Aborted},
		{"deadline", fmt.Errorf("extract: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"extraction", fmt.Errorf("%w: provider 503", ErrExtraction), codes.Unavailable},
		{"self coded", fmt.Errorf("wrapped: %w", codedErr{}), codes.ResourceExhausted},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tc.err))
			assert.True(t, ok)
			assert.Equal(t, tc.want, st.Code())
		})
	}
	assert.NoError(t, ToStatus(nil))
}

func TestAppErrorUnwrap(t *testing.T) {
	err := InvalidStatef("profile is %s", "rejected")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), CodeInvalidState)
	assert.Contains(t, err.Error(), "rejected")
}
