package ports

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by RecordStore.Get when no value is stored under the key.
var ErrRecordNotFound = errors.New("record not found")

// RecordStore is durable key-value storage for serialized session records.
// Implementations must fully overwrite on Put and treat Delete of a missing key as success.
type RecordStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
