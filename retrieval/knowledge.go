package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/logging"
)

// Document is one passage of nutritional guidance. Source and Page identify
// where the passage came from and are carried into the retrieved text.
type Document struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
}

// Options configures a KnowledgeBase.
type Options struct {
	// TopK is the maximum number of passages returned per query.
	TopK int
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// KnowledgeBase is an in-memory core.Retriever. Documents are scored by the
// number of distinct query terms they contain; ties break on insertion order
// so retrieval stays deterministic.
type KnowledgeBase struct {
	mu     sync.RWMutex
	docs   []Document
	topK   int
	logger logging.Logger
}

var _ core.Retriever = (*KnowledgeBase)(nil)

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase(optFns ...func(o *Options)) *KnowledgeBase {
	opts := Options{TopK: 3, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &KnowledgeBase{topK: opts.TopK, logger: opts.Logger}
}

// AddDocuments adds passages to the knowledge base. Documents without an ID
// are assigned one.
func (kb *KnowledgeBase) AddDocuments(docs ...Document) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = core.NewID()
		}
		kb.docs = append(kb.docs, doc)
	}
}

// Len returns the number of stored documents.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.docs)
}

// Retrieve returns the best-matching passages for query, each prefixed with
// its provenance, joined by blank lines. An empty result is not an error;
// the generator simply proceeds without guidance.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return "", nil
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, doc := range kb.docs {
		if s := overlap(terms, tokenize(doc.Text)); s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > kb.topK {
		hits = hits[:kb.topK]
	}

	var parts []string
	for _, h := range hits {
		parts = append(parts, formatPassage(kb.docs[h.idx]))
	}
	kb.logger.Debug("knowledge base query", "terms", len(terms), "hits", len(parts))
	return strings.Join(parts, "\n\n"), nil
}

func formatPassage(doc Document) string {
	if doc.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", doc.Source, doc.Page, doc.Text)
	}
	return fmt.Sprintf("%s: %s", doc.Source, doc.Text)
}

// tokenize lowercases s and splits it into terms of three or more letters,
// deduplicated.
func tokenize(s string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len([]rune(f)) >= 3 {
			terms[f] = struct{}{}
		}
	}
	return terms
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
