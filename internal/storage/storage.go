package storage

import "context"

// BlobStore is the abstract attachment store. Forwarded attachments are
// copied under a fresh key so per-message deletion stays independent.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	CopyUnderNewKey(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
}
