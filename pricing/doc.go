// Package pricing matches grocery items against a product catalog and
// prices them. Matching is fuzzy: product names are normalized and compared
// with Levenshtein similarity, and a configurable threshold decides when a
// catalog product counts as a match. Catalogs load from CSV and priced
// grocery lists export back to CSV.
package pricing
