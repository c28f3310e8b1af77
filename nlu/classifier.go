package nlu

import (
	"context"
	"strings"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/internal/util"
	"github.com/Marcanta7/dietflow/logging"
	"github.com/Marcanta7/dietflow/model"
)

// ClassifierOptions configures an IntentClassifier or FollowUpClassifier.
type ClassifierOptions struct {
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// IntentClassifier maps the latest user message onto one of the top-level
// route labels. Unrecognized model output falls back to core.RouteOther.
type IntentClassifier struct {
	model  model.Model
	logger logging.Logger
}

var _ core.Classifier = (*IntentClassifier)(nil)

// NewIntentClassifier creates a classifier backed by the given model.
func NewIntentClassifier(m model.Model, optFns ...func(o *ClassifierOptions)) *IntentClassifier {
	opts := ClassifierOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &IntentClassifier{model: m, logger: opts.Logger}
}

// Classify returns the route label for the latest user message in state.
func (c *IntentClassifier) Classify(ctx context.Context, state *core.SessionState) (string, error) {
	msg := state.LastUserMessage()
	if msg == "" {
		return core.RouteOther, nil
	}
	prompt, err := util.RenderTemplate(intentPromptTmpl, map[string]any{"UserMessage": msg})
	if err != nil {
		return "", core.Wrap(core.FaultCollaborator, err)
	}
	out, err := c.model.Complete(ctx, model.Request{
		Instructions: intentInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		return "", core.Wrap(core.FaultCollaborator, err)
	}
	label := normalizeLabel(out)
	switch label {
	case core.RouteIntolerances, core.RouteDiet, core.RouteOther:
		return label, nil
	}
	c.logger.Warn("unrecognized intent label", "label", label)
	return core.RouteOther, nil
}

// FollowUpClassifier decides whether an intolerance message also asked for a
// diet. It returns core.RouteWantsDiet or core.RouteAcknowledge.
type FollowUpClassifier struct {
	model  model.Model
	logger logging.Logger
}

var _ core.Classifier = (*FollowUpClassifier)(nil)

// NewFollowUpClassifier creates a follow-up classifier backed by the given model.
func NewFollowUpClassifier(m model.Model, optFns ...func(o *ClassifierOptions)) *FollowUpClassifier {
	opts := ClassifierOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FollowUpClassifier{model: m, logger: opts.Logger}
}

// Classify returns core.RouteWantsDiet when the latest user message also
// requests a diet, and core.RouteAcknowledge otherwise.
func (c *FollowUpClassifier) Classify(ctx context.Context, state *core.SessionState) (string, error) {
	msg := state.LastUserMessage()
	if msg == "" {
		return core.RouteAcknowledge, nil
	}
	prompt, err := util.RenderTemplate(intentPromptTmpl, map[string]any{"UserMessage": msg})
	if err != nil {
		return "", core.Wrap(core.FaultCollaborator, err)
	}
	out, err := c.model.Complete(ctx, model.Request{
		Instructions: followUpInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		return "", core.Wrap(core.FaultCollaborator, err)
	}
	if normalizeLabel(out) == core.RouteWantsDiet {
		return core.RouteWantsDiet, nil
	}
	return core.RouteAcknowledge, nil
}

// normalizeLabel lowercases model output and strips quotes, periods and
// surrounding whitespace so that "Diet." and `"diet"` both map to "diet".
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, "\"'`. \t\n")
}
