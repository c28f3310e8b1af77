package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/logging"
)

// Options configures a ChunkedStore.
type Options struct {
	// MaxDocSize is the hard ceiling for one physical document, kept a
	// safety margin below the real provider limit (default 900_000 of a
	// 1_000_000-byte ceiling).
	MaxDocSize int
	// ChunkFloor is the per-field size at which a field becomes eligible for
	// sharding. The message log is always eligible regardless of size.
	ChunkFloor int
	// Logger receives store diagnostics, including chunk-gap warnings.
	Logger logging.Logger
}

// ChunkedStore implements SessionStore on top of a flat document Backend,
// transparently sharding oversized values and reassembling them on read. An
// in-process write-through cache serves repeated reads of hot sessions; the
// cache is guarded for concurrent use and only updated after the durable
// write succeeded.
type ChunkedStore struct {
	backend Backend
	opts    Options

	mu    sync.RWMutex
	cache map[string]*core.SessionState
}

var _ SessionStore = (*ChunkedStore)(nil)

// NewChunkedStore wraps a Backend in the chunked encoding.
func NewChunkedStore(backend Backend, optFns ...func(o *Options)) *ChunkedStore {
	opts := Options{MaxDocSize: 900_000, ChunkFloor: 100_000, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ChunkedStore{backend: backend, opts: opts, cache: map[string]*core.SessionState{}}
}

// Put persists state under key, choosing the plain, chunked or binary
// representation based on the canonical encoded size. Chunk documents are
// written before the main document so a reader never observes a main document
// referencing chunks that do not exist yet; a crash mid-write leaves the
// previous version visible, stale but internally consistent.
func (s *ChunkedStore) Put(ctx context.Context, key string, state *core.SessionState) error {
	fields, err := canonicalFields(state)
	if err != nil {
		if putErr := s.putBinary(ctx, key, state); putErr != nil {
			return putErr
		}
		s.cachePut(key, state)
		return nil
	}

	if display := dietDisplay(state.Diet); display != nil {
		fields["diet_display"] = display
	}

	// The plain-path decision measures the exact bytes that would hit the
	// backend: the full main-document envelope, display projection included.
	plainRaw, err := json.Marshal(mainDoc{Kind: docPlain, Fields: fields})
	if err != nil {
		return core.Wrap(core.FaultPersistence, err)
	}
	size := len(plainRaw)

	if size <= s.opts.MaxDocSize {
		if err := s.backend.Write(ctx, key, plainRaw); err != nil {
			return core.Wrap(core.FaultPersistence, err)
		}
		s.opts.Logger.Debug("store.put", "key", key, "kind", string(docPlain), "size", size)
		s.cachePut(key, state)
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var chunks []chunkDoc
	var sharded []string
	embedded := map[string]json.RawMessage{}
	for _, name := range names {
		raw := fields[name]
		if len(raw) < s.opts.ChunkFloor && name != "messages" {
			embedded[name] = raw
			continue
		}
		fieldChunks, err := splitField(name, raw, s.opts.MaxDocSize-chunkEnvelopeAllowance)
		if err != nil {
			return core.Wrap(core.FaultEncoding, err)
		}
		chunks = append(chunks, fieldChunks...)
		sharded = append(sharded, name)
	}

	for i := range chunks {
		chunks[i].Index = i
		if err := s.writeChunk(ctx, key, chunks[i]); err != nil {
			return err
		}
	}
	main := mainDoc{Kind: docChunked, ChunkCount: len(chunks), Sharded: sharded, Fields: embedded}
	if err := s.writeMain(ctx, key, main); err != nil {
		return err
	}
	s.opts.Logger.Info("store.put", "key", key, "kind", string(docChunked), "chunks", len(chunks), "size", size)
	s.cachePut(key, state)
	return nil
}

// putBinary is the binary-safe fallback: gob-encode the whole value and
// store it as one blob, or as fixed-size byte ranges when the blob itself
// exceeds the ceiling. A failure of the binary encoding itself is the one
// unrecoverable encoding fault.
func (s *ChunkedStore) putBinary(ctx context.Context, key string, state *core.SessionState) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return core.Wrap(core.FaultEncoding, err)
	}
	data := buf.Bytes()

	// Payloads ride inside a JSON envelope as base64, so size the raw ranges
	// against the post-encoding expansion.
	rangeSize := s.opts.MaxDocSize/4*3 - 1024
	if len(data) <= rangeSize {
		if err := s.writeMain(ctx, key, mainDoc{Kind: docPlainBinary, TotalSize: len(data), Payload: data}); err != nil {
			return err
		}
		s.opts.Logger.Info("store.put", "key", key, "kind", string(docPlainBinary), "size", len(data))
		return nil
	}

	count := 0
	for off := 0; off < len(data); off += rangeSize {
		end := off + rangeSize
		if end > len(data) {
			end = len(data)
		}
		chunk := chunkDoc{Index: count, Kind: chunkBinary, Data: data[off:end]}
		if err := s.writeChunk(ctx, key, chunk); err != nil {
			return err
		}
		count++
	}
	main := mainDoc{Kind: docBinaryChunked, ChunkCount: count, TotalSize: len(data)}
	if err := s.writeMain(ctx, key, main); err != nil {
		return err
	}
	s.opts.Logger.Info("store.put", "key", key, "kind", string(docBinaryChunked), "chunks", count, "size", len(data))
	return nil
}

// Get loads the state stored under key, serving from the write-through cache
// when possible. A missing structured chunk is logged and its contribution
// omitted from the reconstructed field; the read itself still succeeds.
func (s *ChunkedStore) Get(ctx context.Context, key string) (*core.SessionState, error) {
	if cached := s.cacheGet(key); cached != nil {
		return cached, nil
	}

	raw, err := s.backend.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}
	var main mainDoc
	if err := json.Unmarshal(raw, &main); err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}

	var state *core.SessionState
	switch main.Kind {
	case docPlain:
		state, err = assembleState(main.Fields)
	case docPlainBinary:
		state, err = decodeBinary(main.Payload)
	case docChunked:
		state, err = s.getChunked(ctx, key, main)
	case docBinaryChunked:
		state, err = s.getBinaryChunked(ctx, key, main)
	default:
		return nil, core.Errorf(core.FaultPersistence, "store: unknown document kind %q for %q", main.Kind, key)
	}
	if err != nil {
		return nil, err
	}
	s.cachePut(key, state)
	return state, nil
}

func (s *ChunkedStore) getChunked(ctx context.Context, key string, main mainDoc) (*core.SessionState, error) {
	byField := map[string][]chunkDoc{}
	for i := 0; i < main.ChunkCount; i++ {
		name := chunkName(key, i)
		raw, err := s.backend.Read(ctx, name)
		if err != nil {
			gap := core.Errorf(core.FaultChunkGap, "store: chunk %q unavailable: %v", name, err)
			s.opts.Logger.Warn("store.chunk.gap", "key", key, "chunk", name, "error", gap)
			continue
		}
		var chunk chunkDoc
		if err := json.Unmarshal(raw, &chunk); err != nil {
			s.opts.Logger.Warn("store.chunk.gap", "key", key, "chunk", name, "error", err)
			continue
		}
		byField[chunk.Field] = append(byField[chunk.Field], chunk)
	}

	fields := map[string]json.RawMessage{}
	for name, raw := range main.Fields {
		fields[name] = raw
	}
	for _, name := range main.Sharded {
		chunks, ok := byField[name]
		if !ok {
			// Every chunk of this field was a gap; the field's contribution
			// is omitted entirely.
			continue
		}
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
		raw, err := joinField(chunks)
		if err != nil {
			return nil, core.Wrap(core.FaultPersistence, err)
		}
		fields[name] = raw
	}
	return assembleState(fields)
}

func (s *ChunkedStore) getBinaryChunked(ctx context.Context, key string, main mainDoc) (*core.SessionState, error) {
	buf := make([]byte, 0, main.TotalSize)
	for i := 0; i < main.ChunkCount; i++ {
		name := chunkName(key, i)
		raw, err := s.backend.Read(ctx, name)
		if err != nil {
			// A hole in a gob stream makes the remainder undecodable, so the
			// soft-gap rule cannot apply to binary chunks.
			return nil, core.Errorf(core.FaultPersistence, "store: binary chunk %q unavailable: %v", name, err)
		}
		var chunk chunkDoc
		if err := json.Unmarshal(raw, &chunk); err != nil {
			return nil, core.Wrap(core.FaultPersistence, err)
		}
		buf = append(buf, chunk.Data...)
	}
	return decodeBinary(buf)
}

func decodeBinary(data []byte) (*core.SessionState, error) {
	state := &core.SessionState{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(state); err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}
	return state, nil
}

// ListKeys returns the logical session keys, filtering out chunk documents.
func (s *ChunkedStore) ListKeys(ctx context.Context) ([]string, error) {
	names, err := s.backend.List(ctx)
	if err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if !isChunkName(name) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ChunkedStore) writeMain(ctx context.Context, key string, doc mainDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return core.Wrap(core.FaultPersistence, err)
	}
	if err := s.backend.Write(ctx, key, raw); err != nil {
		return core.Wrap(core.FaultPersistence, err)
	}
	return nil
}

func (s *ChunkedStore) writeChunk(ctx context.Context, key string, chunk chunkDoc) error {
	raw, err := json.Marshal(chunk)
	if err != nil {
		return core.Wrap(core.FaultPersistence, err)
	}
	if err := s.backend.Write(ctx, chunkName(key, chunk.Index), raw); err != nil {
		return core.Wrap(core.FaultPersistence, err)
	}
	return nil
}

func (s *ChunkedStore) cacheGet(key string) *core.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.cache[key]; ok {
		return state.Clone()
	}
	return nil
}

func (s *ChunkedStore) cachePut(key string, state *core.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = state.Clone()
}
