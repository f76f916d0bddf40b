package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Store defines the contract for a key-addressed byte store.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Write(ctx context.Context, key string, contentType string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReadAll reads the full contents of the object at key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
