// Package docstore is the persistence surface of the ledger: a small
// key/value store of whole JSON documents. Every write replaces one whole
// document; there are no transactions spanning documents. Malformed persisted
// JSON is reported as "absent" so callers fall back to default documents
// instead of failing (availability over surfacing corruption).
package docstore

import "context"

// Store is implemented by the file, Postgres and in-memory backends.
type Store interface {
	// Get unmarshals the document stored under key into v. It returns false
	// when the document does not exist or cannot be decoded.
	Get(ctx context.Context, key string, v any) (bool, error)

	// Put marshals v and replaces the document stored under key.
	Put(ctx context.Context, key string, v any) error

	// Delete removes the document under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
