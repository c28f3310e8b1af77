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

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Generator produces a 7-day diet from the session's restrictions and the
// retrieved nutritional guidance. The model is asked for strict JSON; the
// response is parsed and validated before it is returned.
type Generator struct {
	model  model.Model
	logger logging.Logger
}

var _ core.DietGenerator = (*Generator)(nil)

// NewGenerator creates a diet generator backed by the given model.
func NewGenerator(m model.Model, optFns ...func(o *GeneratorOptions)) *Generator {
	opts := GeneratorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{model: m, logger: opts.Logger}
}

// GenerateDiet asks the model for a weekly plan honoring req's restrictions.
func (g *Generator) GenerateDiet(ctx context.Context, req core.DietRequest) (core.Diet, error) {
	prompt, err := util.RenderTemplate(generatePromptTmpl, map[string]any{
		"Intolerances":   req.Intolerances,
		"ForbiddenFoods": req.ForbiddenFoods,
		"Info":           req.Info,
	})
	if err != nil {
		return nil, core.Wrap(core.FaultCollaborator, err)
	}
	out, err := g.model.Complete(ctx, model.Request{
		Instructions: generateInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		return nil, core.Wrap(core.FaultCollaborator, err)
	}
	diet, err := ParseDiet(out)
	if err != nil {
		return nil, err
	}
	return diet, nil
}

// ParseDiet parses model output into a validated core.Diet. It tolerates
// code fences and surrounding prose by extracting the outermost JSON object.
func ParseDiet(raw string) (core.Diet, error) {
	body, ok := extractObject(stripFences(raw))
	if !ok {
		return nil, core.Errorf(core.FaultCollaborator, "diet response contains no JSON object")
	}
	var diet core.Diet
	if err := json.Unmarshal([]byte(body), &diet); err != nil {
		return nil, core.Errorf(core.FaultCollaborator, "parse diet: %v", err)
	}
	if len(diet) == 0 {
		return nil, core.Errorf(core.FaultCollaborator, "diet response is empty")
	}
	if err := diet.Validate(); err != nil {
		return nil, err
	}
	return diet, nil
}

// extractObject returns the substring spanning the first '{' through the
// last '}' of s.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
