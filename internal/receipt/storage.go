package receipt

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("receipt_object_not_found")

// Storage keeps rendered documents. Put returns the reference that Get
// accepts.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}
