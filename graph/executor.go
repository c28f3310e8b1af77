package graph

import (
	"context"
	"fmt"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/logging"
)

// End is the terminal marker. A transition targeting End stops execution and
// returns control to the caller.
const End = "__end__"

// Step is one named transform of the graph. It mutates the state in place
// and returns a route label recording any branching decision it made; steps
// on unconditional edges return the empty label. There is no hidden side
// channel: the label is the only way a step influences control flow.
type Step func(ctx context.Context, state *core.SessionState) (route string, err error)

// transition is one row of the transition table. Either Next is set
// (unconditional edge) or Targets/Fallback are (conditional dispatch on the
// returned route label).
type transition struct {
	Next     string
	Targets  map[string]string
	Fallback string
}

// Options configures an Executor.
type Options struct {
	// MaxSteps bounds one Run to guard against accidental cycles in the
	// transition table. Zero selects the default of 25.
	MaxSteps int
	// Logger receives per-step execution records. Defaults to NoOp.
	Logger logging.Logger
}

// Executor interprets a statically declared step graph. Build it with
// AddStep/AddEdge/AddConditionalEdges/SetEntryPoint, then call Run once per
// user turn. Execution is synchronous and single-threaded per invocation;
// a step's collaborator calls block the turn until they return.
type Executor struct {
	steps       map[string]Step
	transitions map[string]transition
	entry       string
	opts        Options
}

// New creates an empty executor.
func New(optFns ...func(o *Options)) *Executor {
	opts := Options{MaxSteps: 25, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 25
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Executor{
		steps:       map[string]Step{},
		transitions: map[string]transition{},
		opts:        opts,
	}
}

// AddStep registers a named step. Registering the same name twice replaces
// the previous step.
func (e *Executor) AddStep(name string, step Step) *Executor {
	e.steps[name] = step
	return e
}

// AddEdge declares an unconditional transition from one step to the next
// (or to End).
func (e *Executor) AddEdge(from, to string) *Executor {
	e.transitions[from] = transition{Next: to}
	return e
}

// AddConditionalEdges declares a data-dependent transition: after `from`
// runs, the returned route label selects the next step from targets. An empty
// or unknown label resolves to the fallback label's target, so a step that
// fails to produce a usable hint degrades to the fallback branch instead of
// failing the turn.
func (e *Executor) AddConditionalEdges(from string, targets map[string]string, fallback string) *Executor {
	e.transitions[from] = transition{Targets: targets, Fallback: fallback}
	return e
}

// SetEntryPoint designates the step Run starts from.
func (e *Executor) SetEntryPoint(name string) *Executor {
	e.entry = name
	return e
}

// Validate checks that the declared topology is runnable: an entry point
// exists, every transition source and target is a registered step (or End),
// and every conditional fallback label resolves.
func (e *Executor) Validate() error {
	if e.entry == "" {
		return fmt.Errorf("graph: no entry point set")
	}
	if _, ok := e.steps[e.entry]; !ok {
		return fmt.Errorf("graph: entry step %q not registered", e.entry)
	}
	for name := range e.steps {
		if _, ok := e.transitions[name]; !ok {
			return fmt.Errorf("graph: step %q has no outgoing transition", name)
		}
	}
	for from, tr := range e.transitions {
		if _, ok := e.steps[from]; !ok {
			return fmt.Errorf("graph: transition declared for unregistered step %q", from)
		}
		if tr.Targets == nil {
			if err := e.checkTarget(from, tr.Next); err != nil {
				return err
			}
			continue
		}
		if _, ok := tr.Targets[tr.Fallback]; !ok {
			return fmt.Errorf("graph: step %q fallback label %q has no target", from, tr.Fallback)
		}
		for label, to := range tr.Targets {
			if err := e.checkTarget(from, to); err != nil {
				return fmt.Errorf("graph: label %q: %w", label, err)
			}
		}
	}
	return nil
}

func (e *Executor) checkTarget(from, to string) error {
	if to == End {
		return nil
	}
	if _, ok := e.steps[to]; !ok {
		return fmt.Errorf("graph: step %q targets unregistered step %q", from, to)
	}
	return nil
}

// Run executes the graph from the entry step, threading state through each
// step until a transition reaches End. A step error aborts the run and is
// returned as-is; mutations applied by earlier steps of the same run are
// deliberately kept (non-atomic-turn policy), leaving the caller to persist
// the partially-mutated state.
func (e *Executor) Run(ctx context.Context, state *core.SessionState) error {
	if err := e.Validate(); err != nil {
		return err
	}
	current := e.entry
	for i := 0; i < e.opts.MaxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := e.steps[current]
		route, err := step(ctx, state)
		if err != nil {
			e.opts.Logger.Error("graph.step.failed", "step", current, "error", err)
			return fmt.Errorf("graph: step %q: %w", current, err)
		}
		next := e.resolve(current, route)
		e.opts.Logger.Debug("graph.step.completed", "step", current, "route", route, "next", next)
		if next == End {
			return nil
		}
		current = next
	}
	return fmt.Errorf("graph: step budget of %d exceeded starting from %q", e.opts.MaxSteps, e.entry)
}

// resolve computes the next step name from the transition table and the
// route label returned by the step that just ran.
func (e *Executor) resolve(current, route string) string {
	tr := e.transitions[current]
	if tr.Targets == nil {
		return tr.Next
	}
	if to, ok := tr.Targets[route]; ok {
		return to
	}
	if route != "" {
		e.opts.Logger.Warn("graph.route.unknown", "step", current, "route", route, "fallback", tr.Fallback)
	}
	return tr.Targets[tr.Fallback]
}
