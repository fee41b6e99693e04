package pipeline

import (
	"context"
	"errors"

	"mhdb/internal/dataset"
	"mhdb/internal/payload"
	"mhdb/pkg/digest"
)

// ErrConfig marks configuration failures.
var ErrConfig = errors.New("configuration error")

// ErrDeclined is returned when the operator declines the import.
var ErrDeclined = errors.New("import declined")

// Category names the class of a fatal error for the operator.
func Category(err error) string {
	var storeErr *payload.StoreError

	var syntaxErr *dataset.SyntaxError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Interrupted"
	case errors.Is(err, ErrConfig):
		return "Configuration error"
	case errors.As(err, &syntaxErr),
		errors.Is(err, dataset.ErrNotFound),
		errors.Is(err, dataset.ErrNotArray),
		errors.Is(err, dataset.ErrEmpty),
		errors.Is(err, dataset.ErrNoTarget),
		errors.Is(err, dataset.ErrMalformed),
		errors.Is(err, digest.ErrHashMismatch):
		return "Load error"
	case errors.Is(err, payload.ErrStoreUnreachable):
		return "Store unreachable"
	case errors.As(err, &storeErr):
		return "Store rejected payload"
	case errors.Is(err, ErrDeclined):
		return "Cancelled"
	}

	return "Error"
}
