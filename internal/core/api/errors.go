package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/predicates/internal/types"
)

// toStatus maps domain errors to gRPC status codes.
// Unknown rules map to NOT_FOUND.
// Shape, expression and type errors map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
// Everything else (store failures) maps to UNAVAILABLE.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Unavailable
	switch {
	case errors.Is(err, types.ErrRuleNotFound):
		code = codes.NotFound
	case errors.Is(err, types.ErrShape),
		errors.Is(err, types.ErrMalformedExpression),
		errors.Is(err, types.ErrTypeMismatch),
		errors.Is(err, types.ErrDocumentTooLarge):
		code = codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}
