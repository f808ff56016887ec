package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key the cart snapshot lives under.
const DefaultKey = "@GoMarketplace:products"

var ErrNotFound = errors.New("key not found")

// Storage is the key-value service the cart store persists its snapshot to.
// Consumers define this interface, backends only implement it.
type Storage interface {
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
