package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/model"
)

type stubClassifier struct {
	label string
	err   error
}

func (s stubClassifier) Classify(context.Context, *core.SessionState) (string, error) {
	return s.label, s.err
}

type stubExtractor struct {
	update core.FactUpdate
	err    error
}

func (s stubExtractor) ExtractFacts(context.Context, *core.SessionState) (core.FactUpdate, error) {
	return s.update, s.err
}

type stubRetriever struct {
	info string
	err  error
}

func (s stubRetriever) Retrieve(context.Context, string) (string, error) {
	return s.info, s.err
}

type stubGenerator struct {
	diet core.Diet
	err  error
}

func (s stubGenerator) GenerateDiet(context.Context, core.DietRequest) (core.Diet, error) {
	return s.diet, s.err
}

type stubMatcher struct {
	prices map[string]core.PriceMatch
}

func (s stubMatcher) MatchAndPrice(_ context.Context, item core.GroceryItem) (*core.PriceMatch, error) {
	if match, ok := s.prices[item.Name]; ok {
		return &match, nil
	}
	return nil, nil
}

func testDiet() core.Diet {
	return core.Diet{
		1: {"breakfast": {"oats": {Quantity: 80, Unit: core.UnitGram}, "soy milk": {Quantity: 200, Unit: core.UnitMilliliter}}},
		2: {"breakfast": {"oats": {Quantity: 80, Unit: core.UnitGram}}, "lunch": {"rice": {Quantity: 120, Unit: core.UnitGram}}},
	}
}

func testDeps() Deps {
	return Deps{
		Intent:    stubClassifier{label: core.RouteOther},
		FollowUp:  stubClassifier{label: core.RouteAcknowledge},
		Facts:     stubExtractor{},
		Knowledge: stubRetriever{},
		Generator: stubGenerator{diet: testDiet()},
		Prices:    stubMatcher{},
	}
}

func runTurn(t *testing.T, deps Deps, userMessage string, state *core.SessionState) *core.SessionState {
	t.Helper()
	g, err := BuildGraph(deps)
	require.NoError(t, err)
	if state == nil {
		state = core.NewSessionState("sess_test")
	}
	state.AppendMessage(core.Message{Role: core.RoleUser, Content: userMessage})
	require.NoError(t, g.Run(context.Background(), state))
	return state
}

func lastMessage(t *testing.T, state *core.SessionState) core.Message {
	t.Helper()
	require.NotEmpty(t, state.Messages)
	return state.Messages[len(state.Messages)-1]
}

func TestLactoseIntoleranceTurn(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{label: core.RouteIntolerances}
	deps.Facts = stubExtractor{update: core.FactUpdate{Intolerances: []string{"lactosa"}}}

	state := runTurn(t, deps, "I am lactose intolerant", nil)

	assert.Equal(t, []string{"lactosa"}, state.Intolerances)
	assert.Empty(t, state.Diet)
	msg := lastMessage(t, state)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Contains(t, msg.Content, "lactosa")
}

func TestDietPipelineTurn(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{label: core.RouteDiet}
	deps.Knowledge = stubRetriever{info: "guide.pdf (page 3): eat legumes"}
	deps.Prices = stubMatcher{prices: map[string]core.PriceMatch{
		"oats":     {ProductName: "Copos de Avena 500g", UnitPrice: 1.80, Score: 0.9},
		"soy milk": {ProductName: "Leche de Soja 1L", UnitPrice: 1.25, Score: 0.8},
	}}

	state := runTurn(t, deps, "make me a weekly diet", nil)

	assert.Equal(t, "guide.pdf (page 3): eat legumes", state.Info)
	assert.Len(t, state.Diet, 2)

	require.Len(t, state.GroceryList, 3)
	assert.Equal(t, "oats", state.GroceryList[0].Name)
	assert.Equal(t, 160.0, state.GroceryList[0].Quantity, "oats summed across days")
	require.NotNil(t, state.GroceryList[0].UnitPrice)
	assert.Equal(t, 1.80, *state.GroceryList[0].UnitPrice)
	assert.Nil(t, state.GroceryList[1].UnitPrice, "rice has no catalog match")

	msg := lastMessage(t, state)
	assert.Contains(t, msg.Content, "2 days planned")
	assert.Contains(t, msg.Content, "3.05 EUR")
	assert.Contains(t, msg.Content, "1 items had no catalog match")
}

func TestIntoleranceFallsThroughToDiet(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{label: core.RouteIntolerances}
	deps.FollowUp = stubClassifier{label: core.RouteWantsDiet}
	deps.Facts = stubExtractor{update: core.FactUpdate{Intolerances: []string{"gluten"}}}

	state := runTurn(t, deps, "I am celiac, build me a diet", nil)

	assert.Equal(t, []string{"gluten"}, state.Intolerances)
	assert.NotEmpty(t, state.Diet, "wants_diet routes into the generation pipeline")
	assert.NotEmpty(t, state.GroceryList)
}

func TestBudgetComparison(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{label: core.RouteDiet}
	deps.Prices = stubMatcher{prices: map[string]core.PriceMatch{
		"oats": {ProductName: "Avena", UnitPrice: 5.00},
	}}

	budget := 2.0
	state := core.NewSessionState("sess_budget")
	state.Budget = &budget
	state = runTurn(t, deps, "weekly diet please", state)

	msg := lastMessage(t, state)
	assert.Contains(t, msg.Content, "exceeds your 2.00 EUR budget by 3.00 EUR")
}

func TestGeneratorFailureKeepsTurnAlive(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{label: core.RouteDiet}
	deps.Generator = stubGenerator{err: core.Errorf(core.FaultCollaborator, "model returned prose")}

	state := runTurn(t, deps, "weekly diet please", nil)

	assert.Empty(t, state.Diet)
	assert.Empty(t, state.GroceryList)
	assert.NotEmpty(t, state.Metadata.LastError)
	msg := lastMessage(t, state)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Contains(t, msg.Content, "could not put together your diet")
}

func TestSmallTalk(t *testing.T) {
	t.Run("canned reply without chat model", func(t *testing.T) {
		state := runTurn(t, testDeps(), "good morning!", nil)
		assert.Contains(t, lastMessage(t, state).Content, "diet-planning assistant")
	})

	t.Run("chat model reply", func(t *testing.T) {
		deps := testDeps()
		deps.Chat = &model.MockModel{Responses: []string{"Hello! Ask me for a diet."}}
		state := runTurn(t, deps, "good morning!", nil)
		assert.Equal(t, "Hello! Ask me for a diet.", lastMessage(t, state).Content)
	})
}

func TestClassifierErrorFailsTurn(t *testing.T) {
	deps := testDeps()
	deps.Intent = stubClassifier{err: errors.New("upstream down")}

	g, err := BuildGraph(deps)
	require.NoError(t, err)
	state := core.NewSessionState("sess_err")
	state.AppendMessage(core.Message{Role: core.RoleUser, Content: "hola"})

	err = g.Run(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), StepRouter)
}

func TestBuildGraphValidatesDeps(t *testing.T) {
	deps := testDeps()
	deps.Generator = nil

	_, err := BuildGraph(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Generator")
}

func TestAggregateDietSeparatesUnits(t *testing.T) {
	diet := core.Diet{
		1: {"lunch": {"Broth": {Quantity: 300, Unit: core.UnitMilliliter}}},
		2: {"dinner": {"broth": {Quantity: 100, Unit: core.UnitGram}}},
	}

	items := aggregateDiet(diet)
	require.Len(t, items, 2)
	assert.Equal(t, core.UnitGram, items[0].Unit)
	assert.Equal(t, 100.0, items[0].Quantity)
	assert.Equal(t, core.UnitMilliliter, items[1].Unit)
	assert.Equal(t, 300.0, items[1].Quantity)
}
