// Package blobstore stores ciphertext blobs under opaque, server-generated
// keys. Two backends exist: the local filesystem (default) and an
// S3-compatible object store. Both treat deleting an absent blob as success
// so document deletion stays idempotent.
package blobstore

import "context"

// Store is the contract for ciphertext blob storage. Get of an absent key
// returns common.ErrorFileMissing.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
