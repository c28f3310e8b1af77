package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/graph"
)

// groceryListStep aggregates the generated diet into a shopping list. Foods
// are summed across the whole week per name and unit, so the same food in
// grams and milliliters yields two entries.
func groceryListStep(Deps) graph.Step {
	return func(_ context.Context, state *core.SessionState) (string, error) {
		state.GroceryList = aggregateDiet(state.Diet)
		return "", nil
	}
}

func aggregateDiet(diet core.Diet) []core.GroceryItem {
	type itemKey struct {
		name string
		unit core.Unit
	}
	totals := make(map[itemKey]float64)
	for _, day := range diet {
		for _, meal := range day {
			for food, portion := range meal {
				key := itemKey{name: strings.ToLower(strings.TrimSpace(food)), unit: portion.Unit}
				totals[key] += portion.Quantity
			}
		}
	}
	items := make([]core.GroceryItem, 0, len(totals))
	for key, qty := range totals {
		items = append(items, core.GroceryItem{Name: key.name, Quantity: qty, Unit: key.unit})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	return items
}

// priceMatchStep prices the grocery list against the catalog and closes the
// turn with a summary message. Items without an accepted match stay
// unpriced; only priced items count toward the total.
func priceMatchStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		var total float64
		var unpriced int
		for i := range state.GroceryList {
			match, err := d.Prices.MatchAndPrice(ctx, state.GroceryList[i])
			if err != nil {
				return "", err
			}
			if match == nil {
				unpriced++
				continue
			}
			price := match.UnitPrice
			state.GroceryList[i].UnitPrice = &price
			state.GroceryList[i].MatchedProduct = match.ProductName
			total += price
		}
		state.AppendMessage(core.Message{
			Role:    core.RoleAssistant,
			Content: summaryMessage(state, total, unpriced),
		})
		return "", nil
	}
}

func summaryMessage(state *core.SessionState, total float64, unpriced int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your weekly diet is ready: %d days planned", len(state.Diet))
	if len(state.Intolerances) > 0 {
		fmt.Fprintf(&b, ", avoiding %s", strings.Join(state.Intolerances, ", "))
	}
	fmt.Fprintf(&b, ".\nGrocery list: %d items, estimated cost %.2f EUR.", len(state.GroceryList), total)
	if unpriced > 0 {
		fmt.Fprintf(&b, " %d items had no catalog match and are unpriced.", unpriced)
	}
	if state.Budget != nil {
		if total <= *state.Budget {
			fmt.Fprintf(&b, "\nThat is within your %.2f EUR budget.", *state.Budget)
		} else {
			fmt.Fprintf(&b, "\nThat exceeds your %.2f EUR budget by %.2f EUR.", *state.Budget, total-*state.Budget)
		}
	}
	return b.String()
}
