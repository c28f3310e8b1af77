package pricing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Marcanta7/dietflow/core"
)

// LoadCatalog reads a product catalog from CSV. The expected columns are
// name, price and an optional description; a header row is skipped when the
// price column does not parse as a number.
func LoadCatalog(r io.Reader) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var products []Product
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("catalog row %d: want at least name and price, got %d columns", line, len(record))
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("catalog row %d: parse price %q: %w", line, record[1], err)
		}
		p := Product{Name: strings.TrimSpace(record[0]), Price: price}
		if len(record) > 2 {
			p.Description = strings.TrimSpace(record[2])
		}
		products = append(products, p)
	}
	return products, nil
}

// LoadCatalogFile reads a product catalog from the CSV file at path.
func LoadCatalogFile(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// WriteGroceryCSV writes a priced grocery list as CSV with a header row.
// Unpriced items get an empty unit_price column.
func WriteGroceryCSV(w io.Writer, items []core.GroceryItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"name", "quantity", "unit", "unit_price", "matched_product"}); err != nil {
		return fmt.Errorf("write grocery header: %w", err)
	}
	for _, item := range items {
		price := ""
		if item.UnitPrice != nil {
			price = strconv.FormatFloat(*item.UnitPrice, 'f', 2, 64)
		}
		record := []string{
			item.Name,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			string(item.Unit),
			price,
			item.MatchedProduct,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write grocery row for %q: %w", item.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
