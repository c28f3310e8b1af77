package core

// Route labels shared by the classifiers and the step graph's transition
// table. A classifier maps free-form model output onto exactly one of these.
const (
	// RouteIntolerances selects the fact-extraction branch.
	RouteIntolerances = "intolerances"
	// RouteDiet selects the diet-generation pipeline.
	RouteDiet = "diet"
	// RouteOther is the fallback label for anything off-topic.
	RouteOther = "other"

	// RouteWantsDiet is the second-level label that falls through from the
	// intolerance branch into the generation pipeline.
	RouteWantsDiet = "wants_diet"
	// RouteAcknowledge terminates the intolerance branch with a canned
	// acknowledgement.
	RouteAcknowledge = "acknowledge"
)
