package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/Marcanta7/dietflow/core"
)

// docKind is the discriminant carried by every main document.
type docKind string

const (
	docPlain         docKind = "plain"
	docChunked       docKind = "chunked"
	docPlainBinary   docKind = "plain-binary"
	docBinaryChunked docKind = "binaryChunked"
)

// chunkKind tells the reader how to recombine a chunk's payload with its
// siblings for the same field.
type chunkKind string

const (
	chunkSeq    chunkKind = "seq"
	chunkMap    chunkKind = "map"
	chunkRaw    chunkKind = "raw"
	chunkBinary chunkKind = "binary"
)

// mainDoc is the primary stored record: either the full canonical value
// (plain), chunk metadata plus the fields small enough to stay embedded
// (chunked), or the gob payload / its metadata (plain-binary,
// binaryChunked). Kind always discriminates; ChunkCount is exact when set.
type mainDoc struct {
	Kind       docKind                    `json:"kind"`
	ChunkCount int                        `json:"chunk_count,omitempty"`
	TotalSize  int                        `json:"total_size,omitempty"`
	Sharded    []string                   `json:"sharded,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
	Payload    []byte                     `json:"payload,omitempty"`
}

// chunkEnvelopeAllowance is headroom reserved for the chunk document's own
// JSON envelope (field name, index, kind, item separators) so a payload
// split at the limit still serializes under it.
const chunkEnvelopeAllowance = 1024

// chunkDoc is one physical shard of a single field (or of the binary
// payload). Exactly one of Items/Entries/Data is populated depending on Kind.
type chunkDoc struct {
	Field   string                     `json:"field,omitempty"`
	Index   int                        `json:"index"`
	Kind    chunkKind                  `json:"chunk_kind"`
	Items   []json.RawMessage          `json:"items,omitempty"`
	Entries map[string]json.RawMessage `json:"entries,omitempty"`
	Data    []byte                     `json:"data,omitempty"`
}

// canonicalFields projects the state onto its canonical JSON field map. An
// error here means the value is structurally incompatible with the canonical
// encoding and must take the binary-safe path.
func canonicalFields(state *core.SessionState) (map[string]json.RawMessage, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return nil, core.Wrap(core.FaultEncoding, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, core.Wrap(core.FaultEncoding, err)
	}
	return fields, nil
}

// dietDisplay derives the lossy display-only projection of the diet:
// day/meal names mapped to the plain list of food names. It is recomputed on
// every write and never read back as a source of truth.
func dietDisplay(diet core.Diet) json.RawMessage {
	if len(diet) == 0 {
		return nil
	}
	display := make(map[string]map[string][]string, len(diet))
	for day, plan := range diet {
		dayKey := "day_" + strconv.Itoa(day)
		display[dayKey] = make(map[string][]string, len(plan))
		for mealName, meal := range plan {
			foods := make([]string, 0, len(meal))
			for food := range meal {
				foods = append(foods, food)
			}
			sort.Strings(foods)
			display[dayKey][mealName] = foods
		}
	}
	raw, err := json.Marshal(display)
	if err != nil {
		return nil
	}
	return raw
}

// assembleState rebuilds a SessionState from a canonical field map. Fields
// unknown to the state type (such as the derived diet_display projection) are
// dropped by the decoder.
func assembleState(fields map[string]json.RawMessage) (*core.SessionState, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}
	state := &core.SessionState{}
	if err := json.Unmarshal(body, state); err != nil {
		return nil, core.Wrap(core.FaultPersistence, err)
	}
	return state, nil
}

// splitField shards one canonical field into chunk payloads, none exceeding
// limit. Sequences split by element boundary preserving order, mappings by
// key boundary, scalars become a single raw chunk. A single element or entry
// larger than the limit becomes its own oversized chunk; an element is never
// divided across two chunks.
func splitField(name string, raw json.RawMessage, limit int) ([]chunkDoc, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("store: empty field %q", name)
	}
	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("store: field %q: %w", name, err)
		}
		var chunks []chunkDoc
		var cur []json.RawMessage
		size := 0
		flush := func() {
			if cur != nil {
				chunks = append(chunks, chunkDoc{Field: name, Kind: chunkSeq, Items: cur})
				cur, size = nil, 0
			}
		}
		for _, e := range elems {
			if size+len(e) > limit {
				flush()
			}
			cur = append(cur, e)
			size += len(e) + 1
		}
		flush()
		if chunks == nil {
			chunks = []chunkDoc{{Field: name, Kind: chunkSeq, Items: []json.RawMessage{}}}
		}
		return chunks, nil
	case '{':
		entries := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("store: field %q: %w", name, err)
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var chunks []chunkDoc
		cur := map[string]json.RawMessage{}
		size := 0
		flush := func() {
			if len(cur) > 0 {
				chunks = append(chunks, chunkDoc{Field: name, Kind: chunkMap, Entries: cur})
				cur, size = map[string]json.RawMessage{}, 0
			}
		}
		for _, k := range keys {
			v := entries[k]
			if size+len(k)+len(v) > limit {
				flush()
			}
			cur[k] = v
			size += len(k) + len(v) + 4
		}
		flush()
		if chunks == nil {
			chunks = []chunkDoc{{Field: name, Kind: chunkMap, Entries: map[string]json.RawMessage{}}}
		}
		return chunks, nil
	default:
		// Scalar fields are not splittable: one raw chunk of their own.
		return []chunkDoc{{Field: name, Kind: chunkRaw, Items: []json.RawMessage{raw}}}, nil
	}
}

// joinField recombines, in index order, the chunks of one field back into
// its canonical raw encoding. Sequence chunks concatenate; mapping chunks
// union-merge with the later chunk winning on key collision; a raw chunk
// passes its single payload through.
func joinField(chunks []chunkDoc) (json.RawMessage, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("store: no chunks to join")
	}
	switch chunks[0].Kind {
	case chunkSeq:
		var items []json.RawMessage
		for _, c := range chunks {
			items = append(items, c.Items...)
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return json.Marshal(items)
	case chunkMap:
		merged := map[string]json.RawMessage{}
		for _, c := range chunks {
			for k, v := range c.Entries {
				merged[k] = v
			}
		}
		return json.Marshal(merged)
	case chunkRaw:
		if len(chunks[0].Items) != 1 {
			return nil, fmt.Errorf("store: malformed raw chunk for field %q", chunks[0].Field)
		}
		return chunks[0].Items[0], nil
	default:
		return nil, fmt.Errorf("store: unexpected chunk kind %q for field %q", chunks[0].Kind, chunks[0].Field)
	}
}
