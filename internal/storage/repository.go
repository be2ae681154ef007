package storage

import "context"

// Repository is the durable key-value collaborator the client state is
// mirrored into. Values are opaque strings; callers own the encoding.
type Repository interface {
	// Get returns found=false, without error, for a missing key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
