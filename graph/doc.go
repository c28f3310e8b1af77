// Package graph provides a small deterministic interpreter for a directed
// graph of state-transform steps. A graph holds a fixed set of named steps
// and a transition table; Run threads a session state from the entry step to
// the End marker, resolving data-dependent branches from the route label each
// step returns.
package graph
