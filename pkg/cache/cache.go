// Package cache stores fetched feed responses together with their freshness policies.
package cache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/librepod/librepod/pkg/httpcache"
)

var ErrNotFound = errors.New("not found")

// Store maps a fetch address to the last known response.
// Get returns ErrNotFound on a miss, Delete of a missing key is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

// Entry is a cached response and the policy that governs its reuse
type Entry struct {
	Policy   *httpcache.Policy
	Response *httpcache.Response
}

// Marshal serializes an entry for KV backends
func Marshal(entry *Entry) ([]byte, error) {
	data, err := msgpack.Marshal(entry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize cache entry")
	}

	return data, nil
}

func Unmarshal(data []byte) (*Entry, error) {
	entry := &Entry{}
	if err := msgpack.Unmarshal(data, entry); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize cache entry")
	}

	if entry.Policy == nil || entry.Response == nil {
		return nil, errors.New("incomplete cache entry")
	}

	return entry, nil
}
