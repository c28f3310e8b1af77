package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/graph"
	"github.com/Marcanta7/dietflow/logging"
	"github.com/Marcanta7/dietflow/model"
)

// Step names of the conversation graph.
const (
	StepRouter            = "router"
	StepIntolerances      = "intolerances"
	StepIntoleranceRouter = "intolerance_router"
	StepAcknowledge       = "acknowledge"
	StepDietInfo          = "diet_info"
	StepCreateDiet        = "create_diet"
	StepGroceryList       = "grocery_list"
	StepPriceMatch        = "price_match"
	StepSmallTalk         = "small_talk"
)

// Internal route labels of the create_diet conditional.
const (
	routeGenerated = "generated"
	routeFailed    = "failed"
)

// Deps carries the collaborators the graph steps call out to. Intent,
// FollowUp, Facts, Knowledge, Generator and Prices are required; Chat is an
// optional model used for small-talk replies, with a canned fallback when
// absent.
type Deps struct {
	Intent    core.Classifier
	FollowUp  core.Classifier
	Facts     core.FactExtractor
	Knowledge core.Retriever
	Generator core.DietGenerator
	Prices    core.PriceMatcher

	Chat   model.Model
	Logger logging.Logger
}

func (d *Deps) validate() error {
	switch {
	case d.Intent == nil:
		return fmt.Errorf("steps: Intent classifier is required")
	case d.FollowUp == nil:
		return fmt.Errorf("steps: FollowUp classifier is required")
	case d.Facts == nil:
		return fmt.Errorf("steps: Facts extractor is required")
	case d.Knowledge == nil:
		return fmt.Errorf("steps: Knowledge retriever is required")
	case d.Generator == nil:
		return fmt.Errorf("steps: diet Generator is required")
	case d.Prices == nil:
		return fmt.Errorf("steps: price matcher is required")
	}
	return nil
}

func (d *Deps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NoOpLogger{}
}

// routerStep classifies the latest user message into a top-level branch.
func routerStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		return d.Intent.Classify(ctx, state)
	}
}

// intolerancesStep extracts restriction facts from the user message and
// applies them to the session's sets.
func intolerancesStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		update, err := d.Facts.ExtractFacts(ctx, state)
		if err != nil {
			return "", err
		}
		state.AddIntolerances(update.Intolerances...)
		state.AddForbiddenFoods(update.ForbiddenFoods...)
		state.RemoveIntolerances(update.RemovedIntolerances...)
		state.RemoveForbiddenFoods(update.RemovedForbiddenFoods...)
		return "", nil
	}
}

// intoleranceRouterStep reclassifies the same user message to decide whether
// the user also asked for a diet.
func intoleranceRouterStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		return d.FollowUp.Classify(ctx, state)
	}
}

// acknowledgeStep ends the intolerance branch with a confirmation listing
// the restrictions currently on file.
func acknowledgeStep(Deps) graph.Step {
	return func(_ context.Context, state *core.SessionState) (string, error) {
		restrictions := append([]string{}, state.Intolerances...)
		restrictions = append(restrictions, state.ForbiddenFoods...)
		var reply string
		if len(restrictions) == 0 {
			reply = "Noted. You have no dietary restrictions on file."
		} else {
			reply = fmt.Sprintf("Noted. I will plan around: %s. Ask me for a diet whenever you want one.",
				strings.Join(restrictions, ", "))
		}
		state.AppendMessage(core.Message{Role: core.RoleAssistant, Content: reply})
		return "", nil
	}
}

// dietInfoStep retrieves nutritional guidance for the session's restrictions
// and stores it on the state for the generator.
func dietInfoStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		query := strings.Join(append(append([]string{state.LastUserMessage()},
			state.Intolerances...), state.ForbiddenFoods...), " ")
		info, err := d.Knowledge.Retrieve(ctx, query)
		if err != nil {
			return "", err
		}
		state.Info = info
		return "", nil
	}
}

// createDietStep generates the weekly diet. Generator failures do not fail
// the turn: the error is captured as an apology message and the pipeline
// short-circuits to the end.
func createDietStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		diet, err := d.Generator.GenerateDiet(ctx, core.DietRequest{
			Intolerances:   state.Intolerances,
			ForbiddenFoods: state.ForbiddenFoods,
			Info:           state.Info,
		})
		if err != nil {
			d.logger().Error("diet generation failed", "error", err)
			state.Metadata.LastError = err.Error()
			state.AppendMessage(core.Message{
				Role:    core.RoleAssistant,
				Content: "Sorry, I could not put together your diet this time. Please try again in a moment.",
			})
			return routeFailed, nil
		}
		state.Diet = diet
		return routeGenerated, nil
	}
}

// smallTalkStep answers off-topic messages. With a Chat model configured it
// generates a short reply; otherwise it falls back to a canned redirect.
func smallTalkStep(d Deps) graph.Step {
	return func(ctx context.Context, state *core.SessionState) (string, error) {
		reply := "I am a diet-planning assistant. Tell me about your food intolerances or ask me for a weekly diet."
		if d.Chat != nil {
			out, err := d.Chat.Complete(ctx, model.Request{
				Instructions: smallTalkInstructions,
				Prompt:       state.LastUserMessage(),
			})
			if err != nil {
				return "", core.Wrap(core.FaultCollaborator, err)
			}
			reply = strings.TrimSpace(out)
		}
		state.AppendMessage(core.Message{Role: core.RoleAssistant, Content: reply})
		return "", nil
	}
}

const smallTalkInstructions = `You are a friendly diet-planning assistant.
Reply briefly to the user's message and remind them you can track food
intolerances and build weekly diet plans with priced grocery lists.`
