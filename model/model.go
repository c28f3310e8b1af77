// Package model defines the minimal language-model interface the collaborator
// implementations are built on: a blocking, non-streaming single completion.
// Provider adapters live in subpackages; MockModel scripts completions for
// tests.
package model

import (
	"context"
	"fmt"
)

// Request captures one completion request. Instructions (system prompt) may
// be empty; Prompt is the user-visible input.
type Request struct {
	Instructions string
	Prompt       string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the interface required by the nlu collaborators to drive
// generation. Complete blocks until the provider returns; any provider or
// transport failure surfaces as the error.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays scripted responses in order, then repeats the last one.
type MockModel struct {
	Responses []string
	Err       error

	calls    int
	Requests []Request
}

// Complete returns the next scripted response.
func (m *MockModel) Complete(_ context.Context, req Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock model: no scripted responses")
	}
	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[idx], nil
}

// Info identifies the mock.
func (m *MockModel) Info() Info { return Info{Name: "mock", Provider: "mock"} }
