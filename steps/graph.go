package steps

import (
	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/graph"
)

// BuildGraph assembles the conversation graph over the given collaborators
// and validates it.
func BuildGraph(deps Deps, optFns ...func(o *graph.Options)) (*graph.Executor, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if len(optFns) == 0 && deps.Logger != nil {
		optFns = []func(o *graph.Options){func(o *graph.Options) { o.Logger = deps.Logger }}
	}

	g := graph.New(optFns...).
		AddStep(StepRouter, routerStep(deps)).
		AddStep(StepIntolerances, intolerancesStep(deps)).
		AddStep(StepIntoleranceRouter, intoleranceRouterStep(deps)).
		AddStep(StepAcknowledge, acknowledgeStep(deps)).
		AddStep(StepDietInfo, dietInfoStep(deps)).
		AddStep(StepCreateDiet, createDietStep(deps)).
		AddStep(StepGroceryList, groceryListStep(deps)).
		AddStep(StepPriceMatch, priceMatchStep(deps)).
		AddStep(StepSmallTalk, smallTalkStep(deps)).
		SetEntryPoint(StepRouter).
		AddConditionalEdges(StepRouter, map[string]string{
			core.RouteIntolerances: StepIntolerances,
			core.RouteDiet:         StepDietInfo,
			core.RouteOther:        StepSmallTalk,
		}, core.RouteOther).
		AddEdge(StepIntolerances, StepIntoleranceRouter).
		AddConditionalEdges(StepIntoleranceRouter, map[string]string{
			core.RouteWantsDiet:   StepDietInfo,
			core.RouteAcknowledge: StepAcknowledge,
		}, core.RouteAcknowledge).
		AddEdge(StepAcknowledge, graph.End).
		AddConditionalEdges(StepCreateDiet, map[string]string{
			routeGenerated: StepGroceryList,
			routeFailed:    graph.End,
		}, routeFailed).
		AddEdge(StepDietInfo, StepCreateDiet).
		AddEdge(StepGroceryList, StepPriceMatch).
		AddEdge(StepPriceMatch, graph.End).
		AddEdge(StepSmallTalk, graph.End)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
