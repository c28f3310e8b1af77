// Package nlu provides the model-backed collaborators of the diet
// assistant: intent and follow-up classification, intolerance fact
// extraction and weekly diet generation.
//
// Every collaborator wraps a model.Model and normalizes its free-form
// output into the typed values the rest of the system consumes. Model
// failures and malformed output are reported as collaborator faults so
// that callers can distinguish them from routing or persistence errors.
package nlu
