package pricing

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/agext/levenshtein"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/logging"
)

// DefaultThreshold is the minimum similarity for a catalog product to count
// as a match.
const DefaultThreshold = 0.6

// Product is one priced entry of the supermarket catalog.
type Product struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// Options configures a Matcher.
type Options struct {
	// Threshold is the minimum similarity in [0,1] for a match.
	// Defaults to DefaultThreshold.
	Threshold float64
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Matcher is an in-memory core.PriceMatcher over a product catalog.
type Matcher struct {
	mu        sync.RWMutex
	catalog   []Product
	threshold float64
	logger    logging.Logger
}

var _ core.PriceMatcher = (*Matcher)(nil)

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(catalog []Product, optFns ...func(o *Options)) *Matcher {
	opts := Options{Threshold: DefaultThreshold, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	return &Matcher{catalog: catalog, threshold: opts.Threshold, logger: opts.Logger}
}

// AddProducts appends products to the catalog.
func (m *Matcher) AddProducts(products ...Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = append(m.catalog, products...)
}

// MatchAndPrice finds the catalog product most similar to the item's name.
// It returns nil without error when no product clears the threshold, so an
// unmatched item leaves the grocery entry unpriced instead of failing the
// turn.
func (m *Matcher) MatchAndPrice(ctx context.Context, item core.GroceryItem) (*core.PriceMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := normalizeName(item.Name)
	if name == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	params := levenshtein.NewParams()
	best := -1
	bestScore := 0.0
	for i, p := range m.catalog {
		score := levenshtein.Similarity(name, normalizeName(p.Name), params)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < m.threshold {
		m.logger.Debug("no price match", "item", item.Name, "best_score", bestScore)
		return nil, nil
	}
	return &core.PriceMatch{
		ProductName: m.catalog[best].Name,
		UnitPrice:   m.catalog[best].Price,
		Score:       bestScore,
	}, nil
}

// normalizeName lowercases a product name and collapses every run of
// non-alphanumeric characters to a single space.
func normalizeName(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}
