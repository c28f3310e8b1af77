package nlu

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/internal/util"
	"github.com/Marcanta7/dietflow/logging"
	"github.com/Marcanta7/dietflow/model"
)

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Extractor pulls intolerance and forbidden-food facts out of the latest
// user message as a core.FactUpdate.
type Extractor struct {
	model  model.Model
	logger logging.Logger
}

var _ core.FactExtractor = (*Extractor)(nil)

// NewExtractor creates a fact extractor backed by the given model.
func NewExtractor(m model.Model, optFns ...func(o *ExtractorOptions)) *Extractor {
	opts := ExtractorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{model: m, logger: opts.Logger}
}

// ExtractFacts asks the model for the restrictions stated in the latest user
// message. Known facts are passed along so the model can detect removals.
func (e *Extractor) ExtractFacts(ctx context.Context, state *core.SessionState) (core.FactUpdate, error) {
	prompt, err := util.RenderTemplate(extractPromptTmpl, map[string]any{
		"Intolerances":   state.Intolerances,
		"ForbiddenFoods": state.ForbiddenFoods,
		"UserMessage":    state.LastUserMessage(),
	})
	if err != nil {
		return core.FactUpdate{}, core.Wrap(core.FaultCollaborator, err)
	}
	out, err := e.model.Complete(ctx, model.Request{
		Instructions: extractInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		return core.FactUpdate{}, core.Wrap(core.FaultCollaborator, err)
	}
	var update core.FactUpdate
	if err := json.Unmarshal([]byte(stripFences(out)), &update); err != nil {
		return core.FactUpdate{}, core.Errorf(core.FaultCollaborator, "parse fact update: %v", err)
	}
	return update, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, so fenced model output still parses as JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
