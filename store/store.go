package store

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/Marcanta7/dietflow/core"
)

// ErrNotFound is returned by Backend.Read when no document exists under the
// requested name.
var ErrNotFound = errors.New("store: document not found")

// SessionStore is the public persistence contract consumed by the session
// service. Consumers treat it as opaque durable storage; chunk documents are
// an encoding detail they never see.
type SessionStore interface {
	// Put durably persists the state under key.
	Put(ctx context.Context, key string, state *core.SessionState) error
	// Get loads the state stored under key, or (nil, nil) when none exists.
	Get(ctx context.Context, key string) (*core.SessionState, error)
	// ListKeys returns the logical keys present in the store.
	ListKeys(ctx context.Context) ([]string, error)
}

// Backend is the physical document layer beneath the chunked store: a flat
// namespace of named byte documents. Implementations must return ErrNotFound
// (possibly wrapped) from Read for absent names. Delete exists for
// out-of-band administration only; the normal session lifecycle never
// deletes.
type Backend interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

var chunkNameRe = regexp.MustCompile(`_chunk_\d+$`)

// chunkName returns the deterministic physical name of the i-th chunk of key.
func chunkName(key string, i int) string {
	return key + "_chunk_" + strconv.Itoa(i)
}

// isChunkName reports whether a physical document name denotes a chunk.
func isChunkName(name string) bool { return chunkNameRe.MatchString(name) }
