package settings

import (
	"context"
	"errors"
)

// Store is a typed key-value store.
type Store interface {
	GetU32(ctx context.Context, key string) (uint32, error)
	SetU32(ctx context.Context, key string, value uint32) error
	GetI64(ctx context.Context, key string) (int64, error)
	SetI64(ctx context.Context, key string, value int64) error
	GetU8(ctx context.Context, key string) (uint8, error)
	SetU8(ctx context.Context, key string, value uint8) error
}

var (
	// ErrNotFound is returned when the key has never been written.
	ErrNotFound = errors.New("setting not found")
	// ErrMalformed is returned when a stored value cannot be read as the requested type.
	ErrMalformed = errors.New("malformed setting")
)
