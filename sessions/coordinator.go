package sessions

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultLoginPath = "/login"

// State of the current session.
type State int

const (
	// StateActive is a session whose credentials may be used.
	StateActive State = iota
	// StateTerminated is absorbing until the next Begin.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// LogoutHandler is invoked once when a session ends.
type LogoutHandler func(ctx context.Context, reason Reason)

// TokenClearer drops every local copy of the session credentials.
type TokenClearer interface {
	Clear(ctx context.Context) error
}

// Coordinator starts and ends sessions. Every path that detects a dead
// session, local expiry or a server 401, converges on TerminateGeneration,
// which runs its side effects once per session no matter how many goroutines
// race into it. Each Begin opens a new generation; failures reported against
// an older generation are ignored.
type Coordinator struct {
	tokens    TokenClearer
	navigator Navigator
	bus       evbus.Bus
	loginPath string
	logger    zerolog.Logger
	nowFunc   func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	handler    LogoutHandler
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithNavigator sets where the user is sent when a session ends.
func WithNavigator(n Navigator) CoordinatorOption {
	return func(c *Coordinator) {
		c.navigator = n
	}
}

// WithEventBus publishes TopicTerminated on bus when a session ends.
func WithEventBus(bus evbus.Bus) CoordinatorOption {
	return func(c *Coordinator) {
		c.bus = bus
	}
}

// WithLoginPath overrides the default "/login" navigation target.
func WithLoginPath(path string) CoordinatorOption {
	return func(c *Coordinator) {
		if path != "" {
			c.loginPath = path
		}
	}
}

// WithLogger sets the logger used for termination logs.
func WithLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithNowFunc sets the clock stamped on TerminatedEvent (primarily for testing).
func WithNowFunc(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.nowFunc = now
	}
}

// NewCoordinator creates a Coordinator whose first session, generation 0,
// is active.
func NewCoordinator(tokens TokenClearer, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		tokens:    tokens,
		loginPath: defaultLoginPath,
		logger:    log.Logger,
		state:     StateActive,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	if c.navigator == nil {
		c.navigator = NavigatorFunc(func(_ context.Context, path string) {
			c.logger.Info().Str("path", path).Msg("navigation requested, no navigator registered")
		})
	}
	return c
}

// RegisterLogoutHandler replaces the logout handler. Passing nil removes it.
func (c *Coordinator) RegisterLogoutHandler(fn LogoutHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = fn
}

// State returns the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation identifies the current session. Callers capture it before
// reading credentials and hand it back to TerminateGeneration, so a late
// failure from an earlier session cannot end a later one.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Begin starts a new active session and returns its generation. install, when
// not nil, runs first under the coordinator lock, so it never interleaves with
// the credential clear of a termination; an install error leaves the current
// session untouched. install must not call back into the Coordinator.
func (c *Coordinator) Begin(ctx context.Context, install func(ctx context.Context) error) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if install != nil {
		if err := install(ctx); err != nil {
			return c.generation, err
		}
	}
	c.state = StateActive
	c.generation++
	return c.generation, nil
}

// Terminate ends the current session whatever its generation. It is what a
// user initiated logout calls.
func (c *Coordinator) Terminate(ctx context.Context, reason Reason) bool {
	return c.terminate(ctx, reason, func(uint64) bool { return true })
}

// TerminateGeneration ends the session only if generation is still the
// current one. Credentials are cleared, the logout handler runs,
// TopicTerminated is published and the navigator is sent to the login path.
// Only the call that performs the transition does this work and returns
// true; calls on a terminated or superseded session return false.
func (c *Coordinator) TerminateGeneration(ctx context.Context, generation uint64, reason Reason) bool {
	return c.terminate(ctx, reason, func(current uint64) bool { return current == generation })
}

func (c *Coordinator) terminate(ctx context.Context, reason Reason, matches func(current uint64) bool) bool {
	c.mu.Lock()
	if c.state == StateTerminated || !matches(c.generation) {
		c.mu.Unlock()
		return false
	}
	c.state = StateTerminated
	handler := c.handler
	generation := c.generation

	c.logger.Info().Str("reason", string(reason)).Uint64("generation", generation).Msg("terminating session")
	// Cleared under the lock: Begin cannot install new credentials until this returns.
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Err(err).Msg("Terminate: failed to clear stored credentials")
	}
	c.mu.Unlock()

	if handler != nil {
		c.runHandler(ctx, handler, reason)
	}

	if c.bus != nil {
		c.bus.Publish(TopicTerminated, TerminatedEvent{
			Reason:     reason,
			Generation: generation,
			At:         c.nowFunc(),
		})
	}

	c.navigator.Navigate(ctx, c.loginPath)
	return true
}

func (c *Coordinator) runHandler(ctx context.Context, handler LogoutHandler, reason Reason) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Terminate: logout handler panicked")
		}
	}()
	handler(ctx, reason)
}
