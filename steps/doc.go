// Package steps defines the conversation graph of the diet assistant: the
// individual steps, the transition table between them, and the collaborator
// dependencies they call out to.
//
// The topology has two routing levels. The entry router classifies the user
// message into the intolerance branch, the diet pipeline or small talk. The
// intolerance branch then runs a second classification over the same message
// to decide whether to stop with an acknowledgement or fall through into the
// diet pipeline. The pipeline itself is linear: retrieve guidance, generate
// the weekly diet, aggregate the grocery list, price it.
package steps
