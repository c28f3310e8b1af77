// Package service orchestrates one conversational turn: load the session
// state, run the conversation graph over it, persist the result and extract
// the assistant's reply.
//
// Turns are not atomic. A step failure mid-graph aborts the run but the
// mutations applied up to that point are persisted anyway, so facts learned
// before the failure survive into the next turn. The service serializes
// turns per session; concurrent Process calls for the same session queue
// behind each other.
package service
