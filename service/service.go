package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Marcanta7/dietflow/core"
	"github.com/Marcanta7/dietflow/logging"
	"github.com/Marcanta7/dietflow/store"
)

// NoResponseReply is returned as the reply when a turn produced no assistant
// message, typically because a step failed before one was appended.
const NoResponseReply = "No response generated."

// Runner executes the conversation graph over a session state.
// *graph.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, state *core.SessionState) error
}

// Options configures a Session service.
type Options struct {
	// Logger is the logger to use. Defaults to logging.NoOpLogger.
	Logger logging.Logger
	// AsyncPersist writes the post-turn state in the background instead of
	// blocking the response on it. Persistence errors are then only logged.
	AsyncPersist bool
}

// TurnOptions adjusts a single Process call.
type TurnOptions struct {
	// Budget, when set, becomes the session's grocery budget before the
	// turn runs and persists with the state.
	Budget *float64
}

// Result is the outcome of one processed turn.
type Result struct {
	SessionID string             `json:"session_id"`
	Reply     string             `json:"reply"`
	State     *core.SessionState `json:"-"`
}

// Session is the session service. It owns the load/run/persist lifecycle
// around the graph runner.
type Session struct {
	runner Runner
	store  store.SessionStore
	opts   Options

	mu    sync.Mutex
	locks map[string]*sessionLock
	wg    sync.WaitGroup
}

// sessionLock is a reference-counted per-session mutex. The entry leaves the
// lock map once no turn holds or awaits it, so the map stays bounded by the
// number of in-flight turns rather than the number of sessions ever seen.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a session service over the given runner and store.
func New(runner Runner, sessions store.SessionStore, optFns ...func(o *Options)) (*Session, error) {
	if runner == nil {
		return nil, fmt.Errorf("service: runner is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("service: session store is required")
	}
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Session{
		runner: runner,
		store:  sessions,
		opts:   opts,
		locks:  map[string]*sessionLock{},
	}, nil
}

// Process runs one user turn. An empty sessionID starts a fresh session
// under a generated ID. The returned Result is populated even when the run
// fails: the state as of the failure is persisted and the error is recorded
// on its metadata, so the caller can both report the failure and show what
// the assistant managed to say.
func (s *Session) Process(ctx context.Context, sessionID, userMessage string, optFns ...func(o *TurnOptions)) (*Result, error) {
	var turn TurnOptions
	for _, fn := range optFns {
		fn(&turn)
	}
	if sessionID == "" {
		sessionID = "sess_" + core.NewID()
	}
	unlock := s.lockSession(sessionID)
	defer unlock()

	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service: load session %q: %w", sessionID, err)
	}
	if state == nil {
		state = core.NewSessionState(sessionID)
		s.opts.Logger.Info("session created", "session_id", sessionID)
	}

	state.TurnCounter++
	state.Metadata.LastActiveAt = time.Now().UTC()
	state.Metadata.LastError = ""
	if turn.Budget != nil {
		b := *turn.Budget
		state.Budget = &b
	}
	state.AppendMessage(core.Message{Role: core.RoleUser, Content: userMessage})

	runErr := s.runner.Run(ctx, state)
	if runErr != nil {
		state.Metadata.LastError = runErr.Error()
		s.opts.Logger.Error("turn failed", "session_id", sessionID, "turn", state.TurnCounter, "error", runErr)
	}

	if err := s.persist(ctx, sessionID, state); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("service: persist after failed turn: %w (turn error: %v)", err, runErr)
		}
		return nil, fmt.Errorf("service: persist session %q: %w", sessionID, err)
	}

	return &Result{
		SessionID: sessionID,
		Reply:     replyFor(state),
		State:     state,
	}, runErr
}

// Sessions lists the IDs of every persisted session.
func (s *Session) Sessions(ctx context.Context) ([]string, error) {
	return s.store.ListKeys(ctx)
}

// State loads the persisted state of one session, or nil when it does not
// exist.
func (s *Session) State(ctx context.Context, sessionID string) (*core.SessionState, error) {
	return s.store.Get(ctx, sessionID)
}

// Wait blocks until in-flight background persists complete. Call it on
// shutdown when AsyncPersist is enabled.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) persist(ctx context.Context, sessionID string, state *core.SessionState) error {
	if !s.opts.AsyncPersist {
		return s.store.Put(ctx, sessionID, state)
	}
	snapshot := state.Clone()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.store.Put(context.WithoutCancel(ctx), sessionID, snapshot); err != nil {
			s.opts.Logger.Error("background persist failed", "session_id", sessionID, "error", err)
		}
	}()
	return nil
}

// replyFor extracts the assistant's answer for the turn that just ran: the
// last assistant message tagged with the current turn counter.
func replyFor(state *core.SessionState) string {
	msgs := state.AssistantMessagesForTurn(state.TurnCounter)
	if len(msgs) == 0 {
		return NoResponseReply
	}
	return msgs[len(msgs)-1].Content
}

// lockSession acquires the per-session mutex, creating it on first use and
// dropping it from the map when the last holder releases it.
func (s *Session) lockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		s.locks[sessionID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
