// Package retrieval provides the nutritional knowledge base behind diet
// generation. The in-memory implementation scores documents by keyword
// overlap with the query and returns the best passages with their source
// and page so the generator's guidance stays traceable.
package retrieval
