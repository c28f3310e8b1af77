package core

import (
	"strings"
	"time"
)

// Unit is the measurement unit of a diet portion or grocery quantity.
type Unit string

const (
	// UnitGram measures solid foods.
	UnitGram Unit = "g"
	// UnitMilliliter measures liquids.
	UnitMilliliter Unit = "ml"
)

// Portion is a quantity of one food within a meal. Quantity is strictly
// positive for any populated diet.
type Portion struct {
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// Meal maps food names to portions.
type Meal map[string]Portion

// DayPlan maps meal names (breakfast, lunch, ...) to meals.
type DayPlan map[string]Meal

// Diet maps day indexes 1..7 to day plans. The nested structure is the
// canonical representation; any simplified projection is derived from it on
// write and never read back.
type Diet map[int]DayPlan

// Validate reports whether the diet honors its structural invariants: day
// keys in 1..7 and strictly positive quantities with a known unit.
func (d Diet) Validate() error {
	for day, plan := range d {
		if day < 1 || day > 7 {
			return Errorf(FaultCollaborator, "diet: day index %d outside 1..7", day)
		}
		for mealName, meal := range plan {
			for food, p := range meal {
				if p.Quantity <= 0 {
					return Errorf(FaultCollaborator, "diet: non-positive quantity for %q in day %d %s", food, day, mealName)
				}
				if p.Unit != UnitGram && p.Unit != UnitMilliliter {
					return Errorf(FaultCollaborator, "diet: unknown unit %q for %q", p.Unit, food)
				}
			}
		}
	}
	return nil
}

// GroceryItem is one consolidated entry of the shopping list. Price fields
// are populated by the price-matching step when a catalog match clears the
// similarity threshold.
type GroceryItem struct {
	Name           string   `json:"name"`
	Quantity       float64  `json:"quantity"`
	Unit           Unit     `json:"unit"`
	UnitPrice      *float64 `json:"unit_price,omitempty"`
	MatchedProduct string   `json:"matched_product,omitempty"`
}

// Metadata carries session bookkeeping persisted alongside the state.
type Metadata struct {
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	SessionID    string    `json:"session_id"`
	LastError    string    `json:"last_error,omitempty"`
}

// SessionState is the value threaded through the step graph and persisted
// between turns. Intolerances and ForbiddenFoods behave as case-insensitive
// sets via the Add/Remove helpers. Routing hints are intentionally absent:
// a step's branching decision is returned to the executor as a transient
// route label and never round-trips through storage.
type SessionState struct {
	Messages       []Message     `json:"messages"`
	Intolerances   []string      `json:"intolerances"`
	ForbiddenFoods []string      `json:"forbidden_foods"`
	Diet           Diet          `json:"diet,omitempty"`
	Budget         *float64      `json:"budget,omitempty"`
	GroceryList    []GroceryItem `json:"grocery_list,omitempty"`
	Info           string        `json:"info_text,omitempty"`
	TurnCounter    int           `json:"turn_counter"`
	Metadata       Metadata      `json:"metadata"`
}

// NewSessionState creates a fresh state for the given session id.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		Messages:       []Message{},
		Intolerances:   []string{},
		ForbiddenFoods: []string{},
		Diet:           Diet{},
		GroceryList:    []GroceryItem{},
		Metadata: Metadata{
			CreatedAt:    now,
			LastActiveAt: now,
			SessionID:    sessionID,
		},
	}
}

func containsFold(items []string, candidate string) bool {
	for _, it := range items {
		if strings.EqualFold(it, candidate) {
			return true
		}
	}
	return false
}

func removeFold(items []string, victims []string) []string {
	out := items[:0]
	for _, it := range items {
		if !containsFold(victims, it) {
			out = append(out, it)
		}
	}
	return out
}

// AddIntolerances merges new intolerances into the set, case-insensitively
// deduplicated.
func (s *SessionState) AddIntolerances(items ...string) {
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || containsFold(s.Intolerances, it) {
			continue
		}
		s.Intolerances = append(s.Intolerances, it)
	}
}

// RemoveIntolerances drops the named intolerances, matching case-insensitively.
func (s *SessionState) RemoveIntolerances(items ...string) {
	s.Intolerances = removeFold(s.Intolerances, items)
}

// AddForbiddenFoods merges new forbidden foods into the set, case-insensitively
// deduplicated.
func (s *SessionState) AddForbiddenFoods(items ...string) {
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || containsFold(s.ForbiddenFoods, it) {
			continue
		}
		s.ForbiddenFoods = append(s.ForbiddenFoods, it)
	}
}

// RemoveForbiddenFoods drops the named foods, matching case-insensitively.
func (s *SessionState) RemoveForbiddenFoods(items ...string) {
	s.ForbiddenFoods = removeFold(s.ForbiddenFoods, items)
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *SessionState) Clone() *SessionState {
	clone := *s
	clone.Messages = append([]Message(nil), s.Messages...)
	clone.Intolerances = append([]string(nil), s.Intolerances...)
	clone.ForbiddenFoods = append([]string(nil), s.ForbiddenFoods...)
	clone.GroceryList = append([]GroceryItem(nil), s.GroceryList...)
	if s.Budget != nil {
		b := *s.Budget
		clone.Budget = &b
	}
	if s.Diet != nil {
		clone.Diet = make(Diet, len(s.Diet))
		for day, plan := range s.Diet {
			p := make(DayPlan, len(plan))
			for mealName, meal := range plan {
				m := make(Meal, len(meal))
				for food, portion := range meal {
					m[food] = portion
				}
				p[mealName] = m
			}
			clone.Diet[day] = p
		}
	}
	return &clone
}
