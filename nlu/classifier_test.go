package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/model"
)

func stateWithUser(t *testing.T, text string) *core.SessionState {
	t.Helper()
	state := core.NewSessionState("sess_test")
	state.AppendMessage(core.Message{Role: core.RoleUser, Content: text})
	return state
}

func TestIntentClassifier(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain label", "diet", core.RouteDiet},
		{"quoted with period", `"Intolerances".`, core.RouteIntolerances},
		{"unknown falls back to other", "banana", core.RouteOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.MockModel{Responses: []string{tt.response}}
			c := NewIntentClassifier(m)

			got, err := c.Classify(context.Background(), stateWithUser(t, "hola"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntentClassifierEmptyMessage(t *testing.T) {
	m := &model.MockModel{Responses: []string{"diet"}}
	c := NewIntentClassifier(m)

	got, err := c.Classify(context.Background(), core.NewSessionState("sess_test"))
	require.NoError(t, err)
	assert.Equal(t, core.RouteOther, got)
	assert.Empty(t, m.Requests, "no model call without a user message")
}

func TestIntentClassifierModelError(t *testing.T) {
	m := &model.MockModel{Err: errors.New("rate limited")}
	c := NewIntentClassifier(m)

	_, err := c.Classify(context.Background(), stateWithUser(t, "quiero una dieta"))
	require.Error(t, err)
	assert.Equal(t, core.FaultCollaborator, core.FaultOf(err))
}

func TestFollowUpClassifier(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"wants diet", "wants_diet", core.RouteWantsDiet},
		{"acknowledge", "acknowledge", core.RouteAcknowledge},
		{"anything else acknowledges", "maybe later", core.RouteAcknowledge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.MockModel{Responses: []string{tt.response}}
			c := NewFollowUpClassifier(m)

			got, err := c.Classify(context.Background(), stateWithUser(t, "soy celiaco, hazme una dieta"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifierPromptCarriesUserMessage(t *testing.T) {
	m := &model.MockModel{Responses: []string{"other"}}
	c := NewIntentClassifier(m)

	_, err := c.Classify(context.Background(), stateWithUser(t, "tengo intolerancia a la lactosa"))
	require.NoError(t, err)
	require.Len(t, m.Requests, 1)
	assert.Contains(t, m.Requests[0].Prompt, "tengo intolerancia a la lactosa")
	assert.Equal(t, intentInstructions, m.Requests[0].Instructions)
}
