// Package core contains the shared domain types of dietflow: the session
// state threaded through the step graph, the message-log discipline applied
// on every append, the collaborator interfaces consumed by individual steps,
// and the fault taxonomy used across the executor, store and service layers.
//
// Everything here is deliberately free of provider or transport concerns so
// that the graph executor and the durable store can be tested against plain
// values.
package core
