// Package dietflow provides a high-level façade over the conversation graph
// and session services of the diet-planning assistant. Most applications
// interact with this package by:
//  1. Creating a DietFlow via New() with a completion model (optionally
//     overriding collaborators, the session store and the logger)
//  2. Calling Process() once per user message
//
// The façade wires the default nlu collaborators around the supplied model
// and delegates the turn lifecycle to service.Session. All defaults are safe
// for local development and testing; production deployments typically supply
// a durable session store and a structured logger.
package dietflow

import (
	"context"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/graph"
	"github.com/Marcanta7/dietflow/logging"
	"github.com/Marcanta7/dietflow/model"
	"github.com/Marcanta7/dietflow/nlu"
	"github.com/Marcanta7/dietflow/pricing"
	"github.com/Marcanta7/dietflow/retrieval"
	"github.com/Marcanta7/dietflow/service"
	"github.com/Marcanta7/dietflow/steps"
	"github.com/Marcanta7/dietflow/store"
)

// Options configures the DietFlow instance.
type Options struct {
	// SessionStore persists session state between turns. Defaults to a
	// chunked store over an in-memory backend.
	SessionStore store.SessionStore

	// Knowledge supplies nutritional guidance to diet generation. Defaults
	// to an empty in-memory knowledge base.
	Knowledge core.Retriever

	// Prices matches grocery items against a product catalog. Defaults to a
	// matcher over Catalog.
	Prices core.PriceMatcher

	// Catalog seeds the default price matcher. Ignored when Prices is set.
	Catalog []pricing.Product

	// Intent, FollowUp, Facts and Generator override the default nlu
	// collaborators built on the supplied model.
	Intent    core.Classifier
	FollowUp  core.Classifier
	Facts     core.FactExtractor
	Generator core.DietGenerator

	// Chat handles small-talk replies. Defaults to the supplied model.
	Chat model.Model

	// AsyncPersist writes post-turn state in the background.
	AsyncPersist bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// DietFlow is the high-level façade aggregating the conversation graph and
// the session service.
type DietFlow struct {
	opts     Options
	sessions *service.Session
}

// New creates a DietFlow around the given completion model. Any collaborator
// left unset is initialized with its default implementation over that model.
func New(m model.Model, optFns ...func(o *Options)) (*DietFlow, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = store.NewChunkedStore(store.NewInMemoryBackend(), func(o *store.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Knowledge == nil {
		opts.Knowledge = retrieval.NewKnowledgeBase(func(o *retrieval.Options) { o.Logger = opts.Logger })
	}
	if opts.Prices == nil {
		opts.Prices = pricing.NewMatcher(opts.Catalog, func(o *pricing.Options) { o.Logger = opts.Logger })
	}
	if opts.Intent == nil {
		opts.Intent = nlu.NewIntentClassifier(m, func(o *nlu.ClassifierOptions) { o.Logger = opts.Logger })
	}
	if opts.FollowUp == nil {
		opts.FollowUp = nlu.NewFollowUpClassifier(m, func(o *nlu.ClassifierOptions) { o.Logger = opts.Logger })
	}
	if opts.Facts == nil {
		opts.Facts = nlu.NewExtractor(m, func(o *nlu.ExtractorOptions) { o.Logger = opts.Logger })
	}
	if opts.Generator == nil {
		opts.Generator = nlu.NewGenerator(m, func(o *nlu.GeneratorOptions) { o.Logger = opts.Logger })
	}
	if opts.Chat == nil {
		opts.Chat = m
	}

	g, err := steps.BuildGraph(steps.Deps{
		Intent:    opts.Intent,
		FollowUp:  opts.FollowUp,
		Facts:     opts.Facts,
		Knowledge: opts.Knowledge,
		Generator: opts.Generator,
		Prices:    opts.Prices,
		Chat:      opts.Chat,
		Logger:    opts.Logger,
	}, func(o *graph.Options) { o.Logger = opts.Logger })
	if err != nil {
		return nil, err
	}

	sessions, err := service.New(g, opts.SessionStore, func(o *service.Options) {
		o.Logger = opts.Logger
		o.AsyncPersist = opts.AsyncPersist
	})
	if err != nil {
		return nil, err
	}
	return &DietFlow{opts: opts, sessions: sessions}, nil
}

// Process runs one user turn. An empty sessionID starts a fresh session.
// Per-turn options (such as the grocery budget) apply before the graph runs.
func (d *DietFlow) Process(ctx context.Context, sessionID, userMessage string, optFns ...func(o *service.TurnOptions)) (*service.Result, error) {
	return d.sessions.Process(ctx, sessionID, userMessage, optFns...)
}

// Sessions lists the IDs of every persisted session.
func (d *DietFlow) Sessions(ctx context.Context) ([]string, error) {
	return d.sessions.Sessions(ctx)
}

// State loads the persisted state of one session, or nil when it does not
// exist.
func (d *DietFlow) State(ctx context.Context, sessionID string) (*core.SessionState, error) {
	return d.sessions.State(ctx, sessionID)
}

// Wait blocks until in-flight background persists complete.
func (d *DietFlow) Wait() { d.sessions.Wait() }
