package core

import "context"

// Classifier labels the latest user message, optionally informed by the
// facts already known on the state. Implementations must be pure with respect
// to the state: they read it, they never mutate it.
type Classifier interface {
	Classify(ctx context.Context, state *SessionState) (string, error)
}

// FactUpdate is the structured output of a fact extraction pass: facts the
// user newly declared plus facts the user explicitly retracted.
type FactUpdate struct {
	Intolerances          []string `json:"intolerances"`
	ForbiddenFoods        []string `json:"forbidden_foods"`
	RemovedIntolerances   []string `json:"removed_intolerances"`
	RemovedForbiddenFoods []string `json:"removed_forbidden_foods"`
}

// FactExtractor pulls dietary facts out of the latest user message.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, state *SessionState) (FactUpdate, error)
}

// Retriever performs semantic search over the knowledge base, returning free
// text with provenance markers.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// DietRequest carries the constraints the generator must honor.
type DietRequest struct {
	Intolerances   []string
	ForbiddenFoods []string
	Info           string
}

// DietGenerator produces a weekly diet honoring the request's constraints.
// Implementations must parse and validate the raw generator output into the
// Diet shape; unparseable output is an error, never a panic.
type DietGenerator interface {
	GenerateDiet(ctx context.Context, req DietRequest) (Diet, error)
}

// PriceMatch is an accepted catalog match for a grocery item.
type PriceMatch struct {
	ProductName string
	UnitPrice   float64
	Score       float64
}

// PriceMatcher looks a grocery item up in a product catalog. A nil match with
// a nil error means no product cleared the similarity threshold.
type PriceMatcher interface {
	MatchAndPrice(ctx context.Context, item GroceryItem) (*PriceMatch, error)
}
