package nlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/model"
)

func TestExtractorParsesFactUpdate(t *testing.T) {
	m := &model.MockModel{Responses: []string{
		`{"intolerances": ["lactosa"], "forbidden_foods": ["atun"], "removed_intolerances": [], "removed_forbidden_foods": []}`,
	}}
	e := NewExtractor(m)

	update, err := e.ExtractFacts(context.Background(), stateWithUser(t, "soy intolerante a la lactosa y no como atun"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lactosa"}, update.Intolerances)
	assert.Equal(t, []string{"atun"}, update.ForbiddenFoods)
	assert.Empty(t, update.RemovedIntolerances)
}

func TestExtractorStripsCodeFence(t *testing.T) {
	m := &model.MockModel{Responses: []string{
		"```json\n{\"intolerances\": [\"gluten\"], \"forbidden_foods\": [], \"removed_intolerances\": [], \"removed_forbidden_foods\": []}\n```",
	}}
	e := NewExtractor(m)

	update, err := e.ExtractFacts(context.Background(), stateWithUser(t, "soy celiaco"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gluten"}, update.Intolerances)
}

func TestExtractorPromptIncludesKnownFacts(t *testing.T) {
	m := &model.MockModel{Responses: []string{
		`{"intolerances": [], "forbidden_foods": [], "removed_intolerances": ["lactosa"], "removed_forbidden_foods": []}`,
	}}
	e := NewExtractor(m)

	state := stateWithUser(t, "ya tolero la lactosa")
	state.Intolerances = []string{"lactosa", "gluten"}

	update, err := e.ExtractFacts(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, []string{"lactosa"}, update.RemovedIntolerances)
	require.Len(t, m.Requests, 1)
	assert.Contains(t, m.Requests[0].Prompt, "lactosa, gluten")
}

func TestExtractorMalformedOutput(t *testing.T) {
	m := &model.MockModel{Responses: []string{"sure, here are the facts!"}}
	e := NewExtractor(m)

	_, err := e.ExtractFacts(context.Background(), stateWithUser(t, "hola"))
	require.Error(t, err)
	assert.Equal(t, core.FaultCollaborator, core.FaultOf(err))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
